package storage

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// PersistenceStore wraps LevelDB for raw key-value persistence.
// This is the foundational persistence layer - no ledger logic here.
// Thread-safe: LevelDB handles its own synchronization.
type PersistenceStore struct {
	db *leveldb.DB
}

// NewPersistenceStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewPersistenceStore(path string) (*PersistenceStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	return &PersistenceStore{db: db}, nil
}

// NewMemoryPersistenceStore creates an in-memory PersistenceStore for testing.
func NewMemoryPersistenceStore() (*PersistenceStore, error) {
	return NewPersistenceStore("")
}

// Get retrieves a value by key. Returns (nil, false, nil) if not found.
func (ps *PersistenceStore) Get(key []byte) ([]byte, bool, error) {
	data, err := ps.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get %x: %w", key, err)
	}
	return data, true, nil
}

// Has reports whether the key exists.
func (ps *PersistenceStore) Has(key []byte) (bool, error) {
	_, ok, err := ps.Get(key)
	return ok, err
}

func (ps *PersistenceStore) Put(key []byte, value []byte) error {
	return ps.db.Put(key, value, nil)
}

func (ps *PersistenceStore) Delete(key []byte) error {
	return ps.db.Delete(key, nil)
}

// WriteBatch applies a prepared batch of writes atomically.
func (ps *PersistenceStore) WriteBatch(batch *leveldb.Batch) error {
	return ps.db.Write(batch, nil)
}

// GetWithPrefix returns all key-value pairs with the given prefix,
// sorted by key order. Keys and values are copied out of the iterator.
func (ps *PersistenceStore) GetWithPrefix(prefix []byte) ([][2][]byte, error) {
	iter := ps.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var results [][2][]byte
	for iter.Next() {
		key := append([]byte{}, iter.Key()...)
		val := append([]byte{}, iter.Value()...)
		results = append(results, [2][]byte{key, val})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("prefix scan %x: %w", prefix, err)
	}
	return results, nil
}

// Dump returns every key-value pair in the store sorted by key. Used by
// tests asserting that canonical storage is untouched after a rollback.
func (ps *PersistenceStore) Dump() ([][2][]byte, error) {
	return ps.GetWithPrefix(nil)
}

// Close closes the underlying database.
func (ps *PersistenceStore) Close() error {
	return ps.db.Close()
}
