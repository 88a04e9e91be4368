package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/storage"
)

func newTestChain(t *testing.T) *Blockchain {
	t.Helper()
	store, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestOverlayReadThrough(t *testing.T) {
	bc := newTestChain(t)
	cid := common.DeriveContractID("test")

	// Seed canonical state through a committed overlay.
	seed := NewOverlay(bc)
	seed.ContractPut(cid, "info", []byte("k"), []byte("base"))
	require.NoError(t, seed.Commit())

	overlay := NewOverlay(bc)

	// Base value visible through the overlay.
	val, ok, err := overlay.ContractGet(cid, "info", []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("base"), val)

	// Overlay write shadows the base without touching it.
	overlay.ContractPut(cid, "info", []byte("k"), []byte("shadow"))
	val, ok, err = overlay.ContractGet(cid, "info", []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("shadow"), val)

	val, ok, err = bc.ContractGet(cid, "info", []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("base"), val)
}

func TestOverlayPurgeDropsWrites(t *testing.T) {
	bc := newTestChain(t)
	cid := common.DeriveContractID("test")

	before, err := bc.Store().Dump()
	require.NoError(t, err)

	overlay := NewOverlay(bc)
	overlay.ContractPut(cid, "coins", []byte("c1"), []byte{})
	overlay.ContractPut(cid, "coins", []byte("c2"), []byte{})
	overlay.Purge()

	after, err := bc.Store().Dump()
	require.NoError(t, err)
	require.Equal(t, before, after)

	_, ok, err := overlay.ContractGet(cid, "coins", []byte("c1"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOverlayCommitAtomic(t *testing.T) {
	bc := newTestChain(t)
	cid := common.DeriveContractID("test")

	overlay := NewOverlay(bc)
	overlay.ContractPut(cid, "nullifiers", []byte("n1"), []byte{})
	overlay.ContractPut(cid, "coins", []byte("c1"), []byte{})
	require.NoError(t, overlay.Commit())

	ok, err := bc.ContractHas(cid, "nullifiers", []byte("n1"))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = bc.ContractHas(cid, "coins", []byte("c1"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOverlayLastWriteWins(t *testing.T) {
	bc := newTestChain(t)
	cid := common.DeriveContractID("test")

	overlay := NewOverlay(bc)
	overlay.ContractPut(cid, "info", []byte("k"), []byte("v1"))
	overlay.ContractPut(cid, "info", []byte("k"), []byte("v2"))
	require.NoError(t, overlay.Commit())

	val, ok, err := bc.ContractGet(cid, "info", []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), val)
}

func TestPendingPool(t *testing.T) {
	bc := newTestChain(t)
	hash := common.Blake2Hash([]byte("tx"))

	ok, err := bc.HasPending(hash)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, bc.AddPending(hash, []byte("raw")))
	ok, err = bc.HasPending(hash)
	require.NoError(t, err)
	require.True(t, ok)

	raws, err := bc.PendingTxs()
	require.NoError(t, err)
	require.Len(t, raws, 1)
	require.Equal(t, []byte("raw"), raws[0])

	require.NoError(t, bc.RemovePending(hash))
	ok, err = bc.HasPending(hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestZkasRegistry(t *testing.T) {
	bc := newTestChain(t)
	cid := common.DeriveContractID("test")

	_, err := bc.GetZkas(cid, "Mint_V1")
	require.Error(t, err)

	require.NoError(t, bc.SetZkas(cid, "Mint_V1", []byte("vk1")))
	vk, err := bc.GetZkas(cid, "Mint_V1")
	require.NoError(t, err)
	require.Equal(t, []byte("vk1"), vk.Data)

	// Registered keys are immutable so historical transactions stay
	// verifiable.
	require.NoError(t, bc.SetZkas(cid, "Mint_V1", []byte("vk2")))
	vk, err = bc.GetZkas(cid, "Mint_V1")
	require.NoError(t, err)
	require.Equal(t, []byte("vk1"), vk.Data)
}
