package blockchain

import (
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/blake2b"

	"github.com/ggreptile/darkfi/common"
)

// bhash is the Merkle node hash.
func bhash(data []byte) []byte {
	hash := blake2b.Sum256(data)
	return hash[:]
}

// MerkleTree is an append-only commitment tree. Leaves are hashed and
// folded pairwise, duplicating the last node of an odd level. The tree
// is small enough per contract that the root is recomputed on append.
type MerkleTree struct {
	Leaves [][]byte
}

func NewMerkleTree() *MerkleTree {
	return &MerkleTree{}
}

// Append adds leaves to the tree.
func (t *MerkleTree) Append(leaves ...[]byte) {
	t.Leaves = append(t.Leaves, leaves...)
}

// Root returns the current root. The empty tree has a fixed sentinel
// root so it is distinguishable from any one-leaf tree.
func (t *MerkleTree) Root() common.Hash {
	if len(t.Leaves) == 0 {
		return common.BytesToHash(bhash([]byte("merkle:empty")))
	}
	level := make([][]byte, len(t.Leaves))
	for i, leaf := range t.Leaves {
		level[i] = bhash(leaf)
	}
	for len(level) > 1 {
		var parent [][]byte
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				parent = append(parent, bhash(append(level[i], level[i+1]...)))
			} else {
				parent = append(parent, bhash(append(level[i], level[i]...)))
			}
		}
		level = parent
	}
	return common.BytesToHash(level[0])
}

func (t *MerkleTree) encode() ([]byte, error) {
	return rlp.EncodeToBytes(t)
}

func decodeMerkleTree(data []byte) (*MerkleTree, error) {
	var t MerkleTree
	if err := rlp.DecodeBytes(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// MerkleAdd appends leaves to the contract's commitment tree stored
// under treeKey in its info tree, and records the resulting root in the
// contract's root tree. Roots are append-only; every historical root
// stays a member.
func (o *Overlay) MerkleAdd(cid common.ContractID, infoTree, rootsTree string, treeKey []byte, leaves [][]byte) error {
	tree := NewMerkleTree()
	if raw, ok, err := o.ContractGet(cid, infoTree, treeKey); err != nil {
		return err
	} else if ok {
		if tree, err = decodeMerkleTree(raw); err != nil {
			return err
		}
	}

	tree.Append(leaves...)
	enc, err := tree.encode()
	if err != nil {
		return err
	}
	o.ContractPut(cid, infoTree, treeKey, enc)

	root := tree.Root()
	o.ContractPut(cid, rootsTree, root.Bytes(), []byte{})
	return nil
}

// MerkleRoot returns the current root of the contract's commitment
// tree without modifying it.
func (o *Overlay) MerkleRoot(cid common.ContractID, infoTree string, treeKey []byte) (common.Hash, error) {
	tree := NewMerkleTree()
	if raw, ok, err := o.ContractGet(cid, infoTree, treeKey); err != nil {
		return common.Hash{}, err
	} else if ok {
		if tree, err = decodeMerkleTree(raw); err != nil {
			return common.Hash{}, err
		}
	}
	return tree.Root(), nil
}

// MerkleRoot is the canonical-state counterpart used by clients when
// building inclusion claims for new transactions.
func (bc *Blockchain) MerkleRoot(cid common.ContractID, infoTree string, treeKey []byte) (common.Hash, error) {
	tree := NewMerkleTree()
	if raw, ok, err := bc.ContractGet(cid, infoTree, treeKey); err != nil {
		return common.Hash{}, err
	} else if ok {
		if tree, err = decodeMerkleTree(raw); err != nil {
			return common.Hash{}, err
		}
	}
	return tree.Root(), nil
}
