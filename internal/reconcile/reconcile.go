package reconcile

import (
	"github.com/samvad-hq/listing-filter/internal/blocklist"
	"github.com/samvad-hq/listing-filter/internal/logger"
	"github.com/samvad-hq/listing-filter/internal/seller"
)

// Row is one listing entry as seen by the reconciler.
type Row interface {
	seller.Source
	// ID must be stable across passes over the same page.
	ID() string
}

// State is the bookkeeping kept per row.
type State struct {
	Seller    string `json:"seller,omitempty"`
	Key       string `json:"key,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	Blocked   bool   `json:"blocked"`
	Hidden    bool   `json:"hidden"`
	Processed bool   `json:"processed"`
}

// PassResult summarizes one reconciliation pass.
type PassResult struct {
	Scanned      int `json:"scanned"`
	Extracted    int `json:"extracted"`
	Unknown      int `json:"unknown"`
	NewlyBlocked int `json:"newly_blocked"`
	Dropped      int `json:"dropped"`
}

// Changed reports whether the pass touched any row state.
func (r PassResult) Changed() bool {
	return r.Scanned > 0 || r.Dropped > 0
}

// Reconciler tracks row states keyed by row id. It is not safe for
// concurrent use; callers drive it from a single goroutine.
type Reconciler struct {
	chain  seller.Chain
	states map[string]*State
	log    logger.Logger
}

// New builds a reconciler; a nil chain uses seller.DefaultChain with the default marker.
func New(chain seller.Chain, log logger.Logger) *Reconciler {
	if chain == nil {
		chain = seller.DefaultChain("")
	}
	return &Reconciler{
		chain:  chain,
		states: make(map[string]*State),
		log:    logger.Ensure(log),
	}
}

// Pass extracts and matches every row not yet processed against set.
// States of rows that are no longer present are dropped.
func (r *Reconciler) Pass(rows []Row, set blocklist.Set) PassResult {
	var res PassResult
	present := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if row == nil {
			continue
		}
		id := row.ID()
		present[id] = struct{}{}

		st, ok := r.states[id]
		if !ok {
			st = &State{}
			r.states[id] = st
		}
		if st.Processed {
			continue
		}

		res.Scanned++
		st.Processed = true

		raw, strategy, found := r.chain.Extract(row)
		if !found {
			res.Unknown++
			r.log.DebugObj("seller not found for row", "row_id", id)
			continue
		}
		res.Extracted++
		st.Seller = raw
		st.Strategy = strategy
		st.Key = seller.Canonicalize(raw)

		if set.Contains(st.Key) {
			st.Blocked = true
			st.Hidden = true
			res.NewlyBlocked++
		}
	}

	for id := range r.states {
		if _, ok := present[id]; !ok {
			delete(r.states, id)
			res.Dropped++
		}
	}

	if res.Changed() {
		r.log.DebugObj("reconcile pass completed", "pass_result", res)
	}
	return res
}

// SetHiddenForBlocked reveals (show=true) or re-hides every blocked row.
// It returns the number of blocked rows.
func (r *Reconciler) SetHiddenForBlocked(show bool) int {
	n := 0
	for _, st := range r.states {
		if !st.Blocked {
			continue
		}
		st.Hidden = !show
		n++
	}
	return n
}

// Reset clears all flags so the next pass re-evaluates every row.
func (r *Reconciler) Reset() {
	for _, st := range r.states {
		*st = State{}
	}
}

// BlockedCount returns the number of rows flagged blocked.
func (r *Reconciler) BlockedCount() int {
	n := 0
	for _, st := range r.states {
		if st.Blocked {
			n++
		}
	}
	return n
}

// HiddenCount returns the number of rows currently hidden.
func (r *Reconciler) HiddenCount() int {
	n := 0
	for _, st := range r.states {
		if st.Hidden {
			n++
		}
	}
	return n
}

// State returns a copy of the state for id.
func (r *Reconciler) State(id string) (State, bool) {
	st, ok := r.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Snapshot copies all row states.
func (r *Reconciler) Snapshot() map[string]State {
	out := make(map[string]State, len(r.states))
	for id, st := range r.states {
		out[id] = *st
	}
	return out
}
