// Package storage provides the local key-value persistence used for settings.
package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrQuotaExceeded is returned when a value is larger than the configured quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV is a string key-value store.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Options controls limits for concrete store implementations.
type Options struct {
	// MaxValueBytes caps a single stored value; zero disables the check.
	MaxValueBytes int
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (KV, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "memory":
		return NewMemory(opts), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func checkQuota(opts Options, value string) error {
	if opts.MaxValueBytes > 0 && len(value) > opts.MaxValueBytes {
		return fmt.Errorf("%w: %d bytes > %d", ErrQuotaExceeded, len(value), opts.MaxValueBytes)
	}
	return nil
}

// Memory is an in-process KV, used for tests and the memory storage type.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	opts   Options
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts Options) *Memory {
	return &Memory{values: make(map[string]string), opts: opts}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	if err := checkQuota(m.opts, value); err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// noopStore never persists anything; every read is a miss.
type noopStore struct{}

func (noopStore) Get(string) (string, bool, error) { return "", false, nil }
func (noopStore) Set(string, string) error         { return nil }
func (noopStore) Delete(string) error              { return nil }
func (noopStore) Close() error                     { return nil }
