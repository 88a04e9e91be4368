package blockchain

import (
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/log"
)

// Overlay is a copy-on-write layer over canonical storage. One overlay
// is opened per validation batch and exclusively owned by the engine
// for the batch's lifetime: every call's reads go through it, so later
// calls observe the pending writes of earlier ones. Commit merges the
// layer into canonical storage in a single atomic batch; Purge drops it.
type Overlay struct {
	base   *Blockchain
	writes map[string][]byte
	order  []string
}

// NewOverlay opens a fresh overlay over the canonical state.
func NewOverlay(base *Blockchain) *Overlay {
	return &Overlay{
		base:   base,
		writes: make(map[string][]byte),
	}
}

func (o *Overlay) put(key, value []byte) {
	k := string(key)
	if _, seen := o.writes[k]; !seen {
		o.order = append(o.order, k)
	}
	o.writes[k] = value
}

func (o *Overlay) get(key []byte) ([]byte, bool, error) {
	if val, ok := o.writes[string(key)]; ok {
		return val, true, nil
	}
	return o.base.store.Get(key)
}

// ContractGet reads a key from a contract tree through the overlay.
func (o *Overlay) ContractGet(cid common.ContractID, tree string, key []byte) ([]byte, bool, error) {
	return o.get(contractTreeKey(cid, tree, key))
}

// ContractHas reports key membership through the overlay.
func (o *Overlay) ContractHas(cid common.ContractID, tree string, key []byte) (bool, error) {
	_, ok, err := o.get(contractTreeKey(cid, tree, key))
	return ok, err
}

// ContractPut stages a write to a contract tree.
func (o *Overlay) ContractPut(cid common.ContractID, tree string, key, value []byte) {
	o.put(contractTreeKey(cid, tree, key), value)
}

// Commit merges every staged write into canonical storage atomically.
// The overlay must not be used afterwards.
func (o *Overlay) Commit() error {
	batch := new(leveldb.Batch)
	for _, k := range o.order {
		batch.Put([]byte(k), o.writes[k])
	}
	log.Debug(log.BlockchainModule, "Committing overlay", "writes", len(o.order))
	if err := o.base.store.WriteBatch(batch); err != nil {
		return err
	}
	o.Purge()
	return nil
}

// Purge discards every staged write. Partial overlay mutations are
// never visible to canonical storage.
func (o *Overlay) Purge() {
	log.Debug(log.BlockchainModule, "Purging overlay", "writes", len(o.order))
	o.writes = make(map[string][]byte)
	o.order = nil
}
