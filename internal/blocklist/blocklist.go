package blocklist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samvad-hq/listing-filter/internal/logger"
	"github.com/samvad-hq/listing-filter/internal/seller"
	"github.com/samvad-hq/listing-filter/internal/storage"
)

// DefaultKey is the storage key holding the JSON-encoded entry list.
const DefaultKey = "seller_blocklist"

var defaultEntries = []string{"KUPIKU-EU", "Justicker"}

// DefaultEntries returns a fresh copy of the built-in blocklist.
func DefaultEntries() []string {
	out := make([]string, len(defaultEntries))
	copy(out, defaultEntries)
	return out
}

// Set is a snapshot of canonical seller keys.
type Set map[string]struct{}

// NewSet canonicalizes raw entries into a Set, dropping entries with an empty key.
func NewSet(entries []string) Set {
	set := make(Set, len(entries))
	for _, e := range entries {
		if key := seller.Canonicalize(e); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// Contains reports whether key is blocked. key must already be canonical.
func (s Set) Contains(key string) bool {
	if key == "" {
		return false
	}
	_, ok := s[key]
	return ok
}

// Len returns the number of distinct canonical keys.
func (s Set) Len() int { return len(s) }

// Store reads and writes the persisted blocklist.
type Store struct {
	kv  storage.KV
	key string
	log logger.Logger
}

// NewStore wraps kv; an empty key falls back to DefaultKey.
func NewStore(kv storage.KV, key string, log logger.Logger) *Store {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key, log: logger.Ensure(log)}
}

// Load returns the persisted entries, or the defaults when nothing usable is stored.
func (s *Store) Load() []string {
	if s == nil || s.kv == nil {
		return DefaultEntries()
	}

	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.log.WarnObj("blocklist read failed; using defaults", "blocklist_error", map[string]any{
			"key":   s.key,
			"error": err.Error(),
		})
		return DefaultEntries()
	}
	if !ok {
		s.log.DebugObj("no blocklist persisted; using defaults", "key", s.key)
		return DefaultEntries()
	}

	entries, err := decode(raw)
	if err != nil {
		s.log.WarnObj("persisted blocklist malformed; using defaults", "blocklist_error", map[string]any{
			"key":   s.key,
			"error": err.Error(),
		})
		return DefaultEntries()
	}
	return entries
}

// decode accepts only a JSON array whose elements are all strings.
func decode(raw string) ([]string, error) {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode blocklist: %w", err)
	}
	if items == nil {
		return nil, fmt.Errorf("decode blocklist: value is not a list")
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("decode blocklist: element %d is %T, not a string", i, item)
		}
		out = append(out, str)
	}
	return out, nil
}

// Save normalizes entries and persists them. It reports whether the write succeeded.
func (s *Store) Save(entries []string) bool {
	if s == nil || s.kv == nil {
		return false
	}

	clean := Normalize(entries)
	payload, err := json.Marshal(clean)
	if err != nil {
		s.log.ErrorObj("blocklist encode failed", "error", err)
		return false
	}
	if err := s.kv.Set(s.key, string(payload)); err != nil {
		s.log.ErrorObj("blocklist write failed", "blocklist_error", map[string]any{
			"key":     s.key,
			"entries": len(clean),
			"error":   err.Error(),
		})
		return false
	}

	s.log.InfoObj("blocklist saved", "blocklist_meta", map[string]any{
		"key":     s.key,
		"entries": len(clean),
	})
	return true
}

// Reset removes the stored list so Load falls back to the built-in defaults.
func (s *Store) Reset() bool {
	if s == nil || s.kv == nil {
		return false
	}
	if err := s.kv.Delete(s.key); err != nil {
		s.log.ErrorObj("blocklist reset failed", "error", err)
		return false
	}
	s.log.InfoObj("blocklist reset to defaults", "key", s.key)
	return true
}

// CanonicalSet loads the current entries and canonicalizes them. It reads
// storage on every call so out-of-band edits are picked up.
func (s *Store) CanonicalSet() Set {
	return NewSet(s.Load())
}

// Normalize trims entries, drops blanks and removes exact duplicates,
// keeping first-seen order. Entries that differ only in case or
// punctuation are kept as distinct spellings.
func Normalize(entries []string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
