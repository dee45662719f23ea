// ABOUTME: Test client backed by a temporary BadgerDB
// ABOUTME: Lets backup code run without a charm server or SSH key

package charm

import (
	"os"
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// badgerStore implements kvStore on a local database. Sync is a no-op.
type badgerStore struct {
	db *badger.DB
}

func (b *badgerStore) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (b *badgerStore) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) })
}

func (b *badgerStore) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) })
}

func (b *badgerStore) Keys() ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (b *badgerStore) Sync() error { return nil }

// NewTestClient returns a client over a throwaway badger database in a temp
// dir. Defer the cleanup func.
func NewTestClient(t *testing.T) (*Client, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "leadline-charm-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		_ = os.RemoveAll(dir)
		t.Fatalf("Failed to open badger: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Host = "localhost"
	cfg.AutoSync = false

	c := &Client{
		store:    &badgerStore{db: db},
		config:   cfg,
		identity: func() (string, error) { return "test-device", nil },
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
		if err := os.RemoveAll(dir); err != nil {
			t.Logf("Warning: failed to remove %s: %v", dir, err)
		}
	}
	return c, cleanup
}
