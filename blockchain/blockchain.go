// Package blockchain owns canonical ledger storage: per-contract state
// trees, the transaction and pending stores, and the contract registry
// trees (bytecode and verifying keys). All batch-time mutation goes
// through an Overlay; the Blockchain itself only reads and commits.
package blockchain

import (
	"fmt"

	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/storage"
	"github.com/ggreptile/darkfi/txerrors"
	"github.com/ggreptile/darkfi/zk"
)

// Key layout inside the flat key-value store. Contract state trees are
// append-only for nullifiers, coins and roots; no deletion path exists.
const (
	contractPrefix = "c/"     // c/<cid>/<tree>/<key> -> value
	chainPrefix    = "chain/" // chain-level bookkeeping

	treeTransactions = chainPrefix + "transactions/" // tx hash -> raw tx
	treePending      = chainPrefix + "pending/"      // tx hash -> raw tx
	treeBytecode     = chainPrefix + "bytecode/"     // cid -> bytecode
	treeZkas         = chainPrefix + "zkas/"         // cid/ns -> vk data
)

// Blockchain is the canonical (finalized) ledger state.
type Blockchain struct {
	store *storage.PersistenceStore
}

func New(store *storage.PersistenceStore) *Blockchain {
	return &Blockchain{store: store}
}

// Store exposes the raw persistence layer. Tests use it to snapshot
// canonical state around rollbacks.
func (bc *Blockchain) Store() *storage.PersistenceStore {
	return bc.store
}

func contractTreeKey(cid common.ContractID, tree string, key []byte) []byte {
	out := make([]byte, 0, len(contractPrefix)+64+1+len(tree)+1+len(key))
	out = append(out, contractPrefix...)
	out = append(out, []byte(cid.Hex())...)
	out = append(out, '/')
	out = append(out, tree...)
	out = append(out, '/')
	return append(out, key...)
}

// ContractGet reads a key from a contract's named state tree.
func (bc *Blockchain) ContractGet(cid common.ContractID, tree string, key []byte) ([]byte, bool, error) {
	return bc.store.Get(contractTreeKey(cid, tree, key))
}

// ContractHas reports key membership in a contract's named state tree.
func (bc *Blockchain) ContractHas(cid common.ContractID, tree string, key []byte) (bool, error) {
	return bc.store.Has(contractTreeKey(cid, tree, key))
}

// AddTransaction records a confirmed transaction.
func (bc *Blockchain) AddTransaction(hash common.Hash, raw []byte) error {
	return bc.store.Put(append([]byte(treeTransactions), hash.Bytes()...), raw)
}

// HasTransaction reports whether the transaction is already in the chain.
func (bc *Blockchain) HasTransaction(hash common.Hash) (bool, error) {
	return bc.store.Has(append([]byte(treeTransactions), hash.Bytes()...))
}

// AddPending inserts a transaction into the pending pool.
func (bc *Blockchain) AddPending(hash common.Hash, raw []byte) error {
	log.Debug(log.BlockchainModule, "Adding tx to pending pool", "tx", hash.Hex())
	return bc.store.Put(append([]byte(treePending), hash.Bytes()...), raw)
}

// HasPending reports pool membership.
func (bc *Blockchain) HasPending(hash common.Hash) (bool, error) {
	return bc.store.Has(append([]byte(treePending), hash.Bytes()...))
}

// RemovePending drops a transaction from the pending pool, normally
// after it was confirmed in a written batch.
func (bc *Blockchain) RemovePending(hash common.Hash) error {
	return bc.store.Delete(append([]byte(treePending), hash.Bytes()...))
}

// PendingTxs returns the raw transactions currently in the pool.
func (bc *Blockchain) PendingTxs() ([][]byte, error) {
	pairs, err := bc.store.GetWithPrefix([]byte(treePending))
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(pairs))
	for i, kv := range pairs {
		out[i] = kv[1]
	}
	return out, nil
}

// DeployContract records a contract's bytecode. Native contracts store
// their registry name here; the runtime resolves execution through its
// own registry, not through this tree.
func (bc *Blockchain) DeployContract(cid common.ContractID, bytecode []byte) error {
	return bc.store.Put(append([]byte(treeBytecode), cid.Bytes()...), bytecode)
}

// HasContract reports whether a contract is deployed.
func (bc *Blockchain) HasContract(cid common.ContractID) (bool, error) {
	return bc.store.Has(append([]byte(treeBytecode), cid.Bytes()...))
}

func zkasKey(cid common.ContractID, namespace string) []byte {
	return append(append([]byte(treeZkas), cid.Bytes()...), []byte("/"+namespace)...)
}

// SetZkas registers the verifying key for one of a contract's circuit
// namespaces. Called at deploy; existing keys are not overwritten so
// historical transactions stay verifiable.
func (bc *Blockchain) SetZkas(cid common.ContractID, namespace string, vkData []byte) error {
	key := zkasKey(cid, namespace)
	if ok, err := bc.store.Has(key); err != nil {
		return err
	} else if ok {
		return nil
	}
	return bc.store.Put(key, vkData)
}

// GetZkas retrieves the verifying key for a (contract, namespace) pair.
func (bc *Blockchain) GetZkas(cid common.ContractID, namespace string) (*zk.VerifyingKey, error) {
	data, ok, err := bc.store.Get(zkasKey(cid, namespace))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: contract %s namespace %q",
			txerrors.ErrCZkasNotFound, cid.Hex(), namespace)
	}
	return &zk.VerifyingKey{Namespace: namespace, Data: data}, nil
}
