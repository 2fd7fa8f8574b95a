package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestBoltStoreSetGetDelete(t *testing.T) {
	dir := t.TempDir()

	storeRaw, err := openBolt(filepath.Join(dir, "nested", "settings.db"), Options{})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	if _, ok, err := store.Get("k"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := store.Set("k", `["a"]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get("k")
	if err != nil || !ok || got != `["a"]` {
		t.Fatalf("unexpected Get result %q ok=%v err=%v", got, ok, err)
	}

	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Fatalf("expected key to be deleted")
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	first, err := openBolt(path, Options{})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	if err := first.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := openBolt(path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if got, ok, err := second.Get("k"); err != nil || !ok || got != "v" {
		t.Fatalf("expected persisted value, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestBoltStoreRejectsOversizedValues(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "settings.db"), Options{MaxValueBytes: 4})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	if err := store.Set("k", "12345"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Fatalf("oversized value must not be stored")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Set("x", "y"); err != nil {
		t.Fatalf("noop store Set: %v", err)
	}
	if _, ok, _ := store.Get("x"); ok {
		t.Fatalf("noop store must never return values")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
}

func TestMemoryQuota(t *testing.T) {
	m := NewMemory(Options{MaxValueBytes: 2})
	if err := m.Set("k", "ok"); err != nil {
		t.Fatalf("Set within quota: %v", err)
	}
	if err := m.Set("k", "too long"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if got, _, _ := m.Get("k"); got != "ok" {
		t.Fatalf("failed write must keep previous value, got %q", got)
	}
}

func TestSharedStoreReleasesFileBetweenOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	shared, err := NewSharedStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewSharedStore: %v", err)
	}
	if err := shared.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A second exclusive handle must be obtainable while the shared store is idle.
	direct, err := openBolt(path, Options{})
	if err != nil {
		t.Fatalf("shared store kept the file locked: %v", err)
	}
	if err := direct.Set("k", "v2"); err != nil {
		t.Fatalf("direct Set: %v", err)
	}
	if err := direct.Close(); err != nil {
		t.Fatalf("direct Close: %v", err)
	}

	if got, ok, err := shared.Get("k"); err != nil || !ok || got != "v2" {
		t.Fatalf("expected shared store to observe v2, got %q ok=%v err=%v", got, ok, err)
	}
	if p, ok := shared.(interface{ Path() string }); !ok || p.Path() != path {
		t.Fatalf("expected shared store to expose its path")
	}
}
