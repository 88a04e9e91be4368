// Package validator is the transaction verification and atomic-apply
// engine. A batch of transactions is verified against one copy-on-write
// overlay; either every transaction passes and the overlay commits as a
// single atomic write, or the overlay is purged and canonical state is
// untouched.
package validator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/contract/money"
	"github.com/ggreptile/darkfi/contract/stake"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/runtime"
	"github.com/ggreptile/darkfi/storage"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/txerrors"
	"github.com/ggreptile/darkfi/zk"
)

const defaultProofCacheSize = 1024

// Config carries the validator's genesis parameters.
type Config struct {
	// FaucetPubkeys is the allowlist of keys that may conjure inputs.
	// Testnet bootstrap only.
	FaucetPubkeys []crypto.PublicKey

	// ProofCacheSize bounds the verified-proof LRU. Zero means default.
	ProofCacheSize int
}

// vkCache caches verifying keys per contract and namespace for the
// lifetime of one verification batch.
type vkCache map[common.ContractID]map[string]*zk.VerifyingKey

// ValidatorState is the engine. All public operations hold the state
// lock; a batch is verified and committed under one critical section.
type ValidatorState struct {
	mu       sync.RWMutex
	bc       *blockchain.Blockchain
	verifier *zk.Verifier
}

// New opens a validator over the given store, deploying the native
// contracts and registering their verifying keys if they are not
// already present.
func New(store *storage.PersistenceStore, cfg Config) (*ValidatorState, error) {
	cacheSize := cfg.ProofCacheSize
	if cacheSize == 0 {
		cacheSize = defaultProofCacheSize
	}
	verifier, err := zk.NewVerifier(cacheSize)
	if err != nil {
		return nil, err
	}

	s := &ValidatorState{
		bc:       blockchain.New(store),
		verifier: verifier,
	}
	if err := s.deployNatives(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Blockchain exposes the canonical ledger for clients building calls.
func (s *ValidatorState) Blockchain() *blockchain.Blockchain {
	return s.bc
}

// deployNatives runs the native contracts' deploy entrypoints over one
// overlay and registers their circuit verifying keys. Idempotent across
// restarts over the same store.
func (s *ValidatorState) deployNatives(cfg Config) error {
	overlay := blockchain.NewOverlay(s.bc)

	faucetPayload, err := rlp.EncodeToBytes(cfg.FaucetPubkeys)
	if err != nil {
		return err
	}

	natives := []struct {
		cid        common.ContractID
		payload    []byte
		namespaces []string
	}{
		{money.ContractID(), faucetPayload, []string{money.ZkasMintNsV1, money.ZkasBurnNsV1}},
		{stake.ContractID(), nil, []string{stake.ZkasMintNsV1}},
	}

	for _, n := range natives {
		rt, err := runtime.New(overlay, n.cid)
		if err != nil {
			return err
		}
		if err := rt.Deploy(n.payload); err != nil {
			return err
		}
		if err := s.bc.DeployContract(n.cid, []byte("native")); err != nil {
			return err
		}
		for _, ns := range n.namespaces {
			vk := zk.NewVerifyingKey(n.cid, ns)
			if err := s.bc.SetZkas(n.cid, ns, vk.Data); err != nil {
				return err
			}
		}
	}

	if err := overlay.Commit(); err != nil {
		return err
	}
	log.Info(log.ValidatorModule, "Native contracts deployed", "faucet_keys", len(cfg.FaucetPubkeys))
	return nil
}

// verifyTransaction runs one transaction's calls through the
// three-phase protocol against the batch overlay, then verifies its
// signatures and proofs. State writes land in the overlay; the caller
// decides their fate.
func (s *ValidatorState) verifyTransaction(overlay *blockchain.Overlay, vks vkCache, t *tx.Transaction) (*GasData, error) {
	hash := t.Hash()
	log.Debug(log.ValidatorModule, "Verifying transaction", "tx", hash.Hex())

	if len(t.Calls) < 2 {
		return nil, txerrors.ErrVMissingCalls
	}

	// Call 0 pays for the rest: it must be the native fee call.
	fn, err := t.Calls[0].Function()
	if err != nil {
		return nil, err
	}
	if t.Calls[0].ContractID != money.ContractID() || fn != money.FuncFeeV1 {
		return nil, txerrors.ErrVMissingFee
	}

	if len(t.Proofs) != len(t.Calls) {
		return nil, fmt.Errorf("%w: proof groups %d, calls %d",
			txerrors.ErrVInvalidZkProof, len(t.Proofs), len(t.Calls))
	}

	gas := &GasData{}
	sigTable := make([][]crypto.PublicKey, 0, len(t.Calls))
	zkpTable := make([][]zk.PublicInputs, 0, len(t.Calls))

	for i := range t.Calls {
		call := &t.Calls[i]
		rt, err := runtime.New(overlay, call.ContractID)
		if err != nil {
			return nil, err
		}

		payload, err := tx.EncodePayload(uint32(i), t.Calls)
		if err != nil {
			return nil, err
		}

		metaRaw, err := rt.Metadata(payload)
		if err != nil {
			return nil, err
		}
		meta, err := tx.DecodeCallMetadata(metaRaw)
		if err != nil {
			return nil, err
		}
		sigTable = append(sigTable, meta.SigKeys)
		zkpTable = append(zkpTable, meta.ZkInputs)

		// Populate the batch vk cache lazily from the contract store.
		inner, ok := vks[call.ContractID]
		if !ok {
			inner = make(map[string]*zk.VerifyingKey)
			vks[call.ContractID] = inner
		}
		for _, tuple := range meta.ZkInputs {
			if _, ok := inner[tuple.Namespace]; ok {
				continue
			}
			vk, err := s.bc.GetZkas(call.ContractID, tuple.Namespace)
			if err != nil {
				// Keys are registered at deploy; a call reaching a live
				// contract with no key is the engine's own state broken.
				return nil, fmt.Errorf("%w: %v", txerrors.ErrVInternal, err)
			}
			inner[tuple.Namespace] = vk
		}

		update, err := rt.Exec(payload)
		if err != nil {
			return nil, err
		}
		if err := rt.Apply(update); err != nil {
			return nil, err
		}
		gas.Phases += rt.GasUsed()
	}

	if len(sigTable) != len(t.Signatures) {
		return nil, fmt.Errorf("%w: table %d, transaction %d",
			txerrors.ErrVMissingSignatures, len(sigTable), len(t.Signatures))
	}

	// Signatures before proofs: signatures are cheap to reject on.
	if err := t.VerifySigs(sigTable); err != nil {
		return nil, err
	}
	if err := t.VerifyZkps(s.verifier, vks, zkpTable); err != nil {
		return nil, err
	}

	for _, keys := range sigTable {
		gas.Signatures += gasPerSignature * uint64(len(keys))
	}
	for _, tuples := range zkpTable {
		gas.Proofs += gasPerProof * uint64(len(tuples))
	}

	log.Debug(log.ValidatorModule, "Transaction verified", "tx", hash.Hex(), "gas", gas.Total())
	return gas, nil
}

// VerifyTransactions verifies a batch against one overlay over
// canonical state. Later transactions observe the pending writes of
// earlier ones. All transactions are attempted so every erroneous one
// is reported; any failure purges the overlay and nothing lands. With
// write false the overlay is purged even on success (dry run); with
// write true the overlay commits atomically and the transactions are
// recorded.
func (s *ValidatorState) VerifyTransactions(txs []*tx.Transaction, write bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyTransactionsLocked(txs, write)
}

// verifyTransactionsLocked is the batch body. The caller holds the
// state lock.
func (s *ValidatorState) verifyTransactionsLocked(txs []*tx.Transaction, write bool) error {
	overlay := blockchain.NewOverlay(s.bc)
	vks := make(vkCache)

	var erroneous []common.Hash
	for _, t := range txs {
		if _, err := s.verifyTransaction(overlay, vks, t); err != nil {
			// An internal error is the engine's own invariant breaking,
			// not a bad transaction. Abort the batch outright.
			if errors.Is(err, txerrors.ErrVInternal) {
				overlay.Purge()
				return err
			}
			log.Warn(log.ValidatorModule, "Erroneous transaction", "tx", t.Hash().Hex(), "err", err)
			erroneous = append(erroneous, t.Hash())
		}
	}

	if len(erroneous) > 0 {
		overlay.Purge()
		return &txerrors.ErroneousTxs{Hashes: erroneous}
	}
	if !write {
		overlay.Purge()
		return nil
	}

	if err := overlay.Commit(); err != nil {
		return err
	}
	for _, t := range txs {
		raw, err := t.EncodeToBytes()
		if err != nil {
			return fmt.Errorf("%w: %v", txerrors.ErrVInternal, err)
		}
		hash := t.Hash()
		if err := s.bc.AddTransaction(hash, raw); err != nil {
			return err
		}
		if err := s.bc.RemovePending(hash); err != nil {
			return err
		}
	}
	log.Info(log.ValidatorModule, "Batch committed", "txs", len(txs))
	return nil
}

// AppendTx appends an unconfirmed transaction to the pending pool after
// a dry-run verification against current canonical state. With write
// false the transaction is only validated. The state lock is held for
// the whole operation so a concurrent batch commit cannot slip between
// the seen-check, the dry run and the pool insert.
func (s *ValidatorState) AppendTx(t *tx.Transaction, write bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := t.Hash()
	seen, err := s.seenTransaction(hash)
	if err != nil {
		return err
	}
	if seen {
		return fmt.Errorf("%w: %s", txerrors.ErrVTransactionAlreadySeen, hash.Hex())
	}

	if err := s.verifyTransactionsLocked([]*tx.Transaction{t}, false); err != nil {
		return err
	}
	if !write {
		return nil
	}

	raw, err := t.EncodeToBytes()
	if err != nil {
		return fmt.Errorf("%w: %v", txerrors.ErrVInternal, err)
	}
	if err := s.bc.AddPending(hash, raw); err != nil {
		return err
	}
	log.Info(log.ValidatorModule, "Appended transaction to pending pool", "tx", hash.Hex())
	return nil
}

// PendingTxs decodes the current pending pool.
func (s *ValidatorState) PendingTxs() ([]*tx.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raws, err := s.bc.PendingTxs()
	if err != nil {
		return nil, err
	}
	txs := make([]*tx.Transaction, 0, len(raws))
	for _, raw := range raws {
		t, err := tx.DecodeTransaction(raw)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func (s *ValidatorState) seenTransaction(hash common.Hash) (bool, error) {
	if ok, err := s.bc.HasTransaction(hash); err != nil || ok {
		return ok, err
	}
	return s.bc.HasPending(hash)
}
