package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const settingsBucket = "settings"

// boltStore implements KV backed by BoltDB.
type boltStore struct {
	db   *bolt.DB
	opts Options
}

// openBolt initializes a BoltDB-backed KV.
func openBolt(path string, opts Options) (KV, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	// Only write when the bucket is missing; every committed Update touches the file.
	var hasBucket bool
	_ = db.View(func(tx *bolt.Tx) error {
		hasBucket = tx.Bucket([]byte(settingsBucket)) != nil
		return nil
	})
	if !hasBucket {
		if err := db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(settingsBucket))
			return err
		}); err != nil {
			db.Close()
			return nil, fmt.Errorf("init bucket: %w", err)
		}
	}

	return &boltStore{db: db, opts: opts}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns the value stored under key.
func (b *boltStore) Get(key string) (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, nil
	}

	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket missing")
		}
		// bbolt values are only valid inside the transaction.
		if raw := bucket.Get([]byte(key)); raw != nil {
			value = string(raw)
			found = true
		}
		return nil
	})
	return value, found, err
}

// Set stores value under key, replacing any previous value.
func (b *boltStore) Set(key, value string) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("bbolt store is not open")
	}
	if err := checkQuota(b.opts, value); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket missing")
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

// Delete removes key; missing keys are not an error.
func (b *boltStore) Delete(key string) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket missing")
		}
		return bucket.Delete([]byte(key))
	})
}

// lazyBolt opens the database for each operation and closes it afterwards,
// so several processes can share one settings file.
type lazyBolt struct {
	path string
	opts Options
}

// NewSharedStore is like NewStore, except bbolt files are only held open
// for the duration of a single Get, Set or Delete.
func NewSharedStore(typ, path string, opts Options) (KV, error) {
	if strings.TrimSpace(strings.ToLower(typ)) != "bbolt" {
		return NewStore(typ, path, opts)
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bbolt storage requires a path")
	}
	// Open once up front so configuration errors surface immediately.
	kv, err := openBolt(path, opts)
	if err != nil {
		return nil, err
	}
	if err := kv.Close(); err != nil {
		return nil, fmt.Errorf("close bbolt db: %w", err)
	}
	return &lazyBolt{path: path, opts: opts}, nil
}

func (l *lazyBolt) with(fn func(KV) error) error {
	kv, err := openBolt(l.path, l.opts)
	if err != nil {
		return err
	}
	opErr := fn(kv)
	if err := kv.Close(); err != nil && opErr == nil {
		opErr = fmt.Errorf("close bbolt db: %w", err)
	}
	return opErr
}

func (l *lazyBolt) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := l.with(func(kv KV) error {
		var err error
		value, found, err = kv.Get(key)
		return err
	})
	return value, found, err
}

func (l *lazyBolt) Set(key, value string) error {
	return l.with(func(kv KV) error { return kv.Set(key, value) })
}

func (l *lazyBolt) Delete(key string) error {
	return l.with(func(kv KV) error { return kv.Delete(key) })
}

func (l *lazyBolt) Close() error { return nil }

// Path returns the database file, for change watching.
func (l *lazyBolt) Path() string { return l.path }
