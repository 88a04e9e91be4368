package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ggreptile/darkfi/common"
)

func TestMerkleTreeRoots(t *testing.T) {
	tree := NewMerkleTree()
	emptyRoot := tree.Root()

	tree.Append([]byte("a"))
	oneRoot := tree.Root()
	require.NotEqual(t, emptyRoot, oneRoot)

	tree.Append([]byte("b"))
	require.NotEqual(t, oneRoot, tree.Root())

	// Same leaves, same root.
	other := NewMerkleTree()
	other.Append([]byte("a"), []byte("b"))
	require.Equal(t, tree.Root(), other.Root())
}

func TestMerkleTreeOddLeaves(t *testing.T) {
	tree := NewMerkleTree()
	tree.Append([]byte("a"), []byte("b"), []byte("c"))
	root3 := tree.Root()

	tree.Append([]byte("d"))
	require.NotEqual(t, root3, tree.Root())
}

func TestMerkleAddRecordsRoots(t *testing.T) {
	bc := newTestChain(t)
	cid := common.DeriveContractID("test")
	treeKey := []byte("coin_merkle_tree")

	overlay := NewOverlay(bc)
	require.NoError(t, overlay.MerkleAdd(cid, "info", "coin_roots", treeKey, [][]byte{[]byte("c1")}))
	root1, err := overlay.MerkleRoot(cid, "info", treeKey)
	require.NoError(t, err)

	require.NoError(t, overlay.MerkleAdd(cid, "info", "coin_roots", treeKey, [][]byte{[]byte("c2")}))
	root2, err := overlay.MerkleRoot(cid, "info", treeKey)
	require.NoError(t, err)
	require.NotEqual(t, root1, root2)

	// Every historical root stays a member of the roots tree.
	for _, root := range []common.Hash{root1, root2} {
		ok, err := overlay.ContractHas(cid, "coin_roots", root.Bytes())
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.NoError(t, overlay.Commit())
	canonical, err := bc.MerkleRoot(cid, "info", treeKey)
	require.NoError(t, err)
	require.Equal(t, root2, canonical)
}
