package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
)

func TestPersistenceStoreBasic(t *testing.T) {
	store, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put([]byte("k1"), []byte("v1")))
	val, ok, err := store.Get([]byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), val)

	has, err := store.Has([]byte("k1"))
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, store.Delete([]byte("k1")))
	has, err = store.Has([]byte("k1"))
	require.NoError(t, err)
	require.False(t, has)
}

func TestPersistenceStoreWriteBatch(t *testing.T) {
	store, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer store.Close()

	batch := new(leveldb.Batch)
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	require.NoError(t, store.WriteBatch(batch))

	val, ok, err := store.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), val)
}

func TestPersistenceStorePrefixScan(t *testing.T) {
	store, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("p/x"), []byte("1")))
	require.NoError(t, store.Put([]byte("p/y"), []byte("2")))
	require.NoError(t, store.Put([]byte("q/z"), []byte("3")))

	entries, err := store.GetWithPrefix([]byte("p/"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestPersistenceStoreDump(t *testing.T) {
	store, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("a"), []byte("1")))
	before, err := store.Dump()
	require.NoError(t, err)

	require.NoError(t, store.Put([]byte("b"), []byte("2")))
	after, err := store.Dump()
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	require.NoError(t, store.Delete([]byte("b")))
	restored, err := store.Dump()
	require.NoError(t, err)
	require.Equal(t, before, restored)
}
