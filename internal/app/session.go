package app

import (
	"errors"
	"fmt"

	"github.com/samvad-hq/listing-filter/internal/blocklist"
	"github.com/samvad-hq/listing-filter/internal/logger"
	"github.com/samvad-hq/listing-filter/internal/page"
	"github.com/samvad-hq/listing-filter/internal/reconcile"
	"github.com/samvad-hq/listing-filter/internal/seller"
)

// ErrSaveFailed is returned when the blocklist could not be persisted.
var ErrSaveFailed = errors.New("blocklist could not be saved")

// Session binds one listing page to the blocklist and the reconciler.
// All methods must be called from the same goroutine.
type Session struct {
	page    *page.Page
	store   *blocklist.Store
	rec     *reconcile.Reconciler
	showing bool
	log     logger.Logger
}

// NewSession builds a session for p. It does not run a pass; call Refresh.
func NewSession(p *page.Page, store *blocklist.Store, log logger.Logger) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("page must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("blocklist store must not be nil")
	}
	log = logger.Ensure(log)
	chain := seller.DefaultChain(p.Layout().SellerPathMarker)
	return &Session{
		page:  p,
		store: store,
		rec:   reconcile.New(chain, log),
		log:   log,
	}, nil
}

// Refresh runs a reconciliation pass against a fresh blocklist snapshot.
func (s *Session) Refresh() reconcile.PassResult {
	set := s.store.CanonicalSet()
	res := s.rec.Pass(s.page.Rows(), set)
	s.render()
	return res
}

// ReplacePage swaps in a re-parsed page. Rows keep their state by id.
func (s *Session) ReplacePage(p *page.Page) reconcile.PassResult {
	if p != nil {
		s.page = p
	}
	return s.Refresh()
}

// Show reveals (true) or re-hides (false) every blocked row.
func (s *Session) Show(show bool) {
	s.showing = show
	s.rec.SetHiddenForBlocked(show)
	s.render()
}

// Toggle flips between showing and hiding blocked rows and returns the new mode.
func (s *Session) Toggle() bool {
	s.Show(!s.showing)
	return s.showing
}

// Showing reports whether blocked rows are currently revealed.
func (s *Session) Showing() bool { return s.showing }

// Entries returns the raw blocklist as persisted.
func (s *Session) Entries() []string { return s.store.Load() }

// SaveBlocklist persists entries and re-evaluates every row. On failure the
// page and row states are left untouched.
func (s *Session) SaveBlocklist(entries []string) error {
	if !s.store.Save(entries) {
		return ErrSaveFailed
	}
	s.Reevaluate()
	return nil
}

// ResetBlocklist restores the built-in defaults and re-evaluates every row.
func (s *Session) ResetBlocklist() error {
	if !s.store.Reset() {
		return ErrSaveFailed
	}
	s.Reevaluate()
	return nil
}

// Reevaluate clears all row flags and runs a fresh pass. Used after the
// blocklist changed, here or out of band.
func (s *Session) Reevaluate() reconcile.PassResult {
	s.rec.Reset()
	s.showing = false
	return s.Refresh()
}

// Count returns the number of blocked rows.
func (s *Session) Count() int { return s.rec.BlockedCount() }

// Hidden returns the number of rows currently hidden by the filter.
func (s *Session) Hidden() int { return s.rec.HiddenCount() }

// Status is the readout shown to the user.
func (s *Session) Status() string {
	return fmt.Sprintf("%d hidden", s.Count())
}

// States returns a copy of all row states.
func (s *Session) States() map[string]reconcile.State { return s.rec.Snapshot() }

// HTML renders the current page.
func (s *Session) HTML() (string, error) { return s.page.HTML() }

func (s *Session) render() {
	s.page.Apply(s.rec.Snapshot())
	s.page.SetStatus(s.Status(), s.Count(), s.showing)
}
