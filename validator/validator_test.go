package validator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/contract/money"
	"github.com/ggreptile/darkfi/contract/stake"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/storage"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/txerrors"
	"github.com/ggreptile/darkfi/zk"
)

type harness struct {
	state    *ValidatorState
	bc       *blockchain.Blockchain
	store    *storage.PersistenceStore
	faucetSk crypto.SecretKey

	userSk crypto.SecretKey
	coinA  money.OwnCoin // 20000
	coinB  money.OwnCoin // 5000
}

// newHarness opens a validator over in-memory state and commits a
// genesis transaction minting two coins to the test user: a faucet fee
// call plus a faucet transfer call.
func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	faucetPub, faucetSk, err := crypto.NewKeypair(nil)
	require.NoError(t, err)

	state, err := New(store, Config{FaucetPubkeys: []crypto.PublicKey{faucetPub}})
	require.NoError(t, err)

	h := &harness{state: state, bc: state.Blockchain(), store: store, faucetSk: faucetSk}

	userPub, userSk, err := crypto.NewKeypair(nil)
	require.NoError(t, err)
	h.userSk = userSk
	h.coinA = money.OwnCoin{Value: 20000, Serial: crypto.NewSerial(), Secret: crypto.NewSerial(), SignSecret: userSk}
	h.coinB = money.OwnCoin{Value: 5000, Serial: crypto.NewSerial(), Secret: crypto.NewSerial(), SignSecret: userSk}

	feeDebris, err := (&money.FaucetFeeCallBuilder{
		Chain: h.bc, FaucetSecret: faucetSk, FeeValue: money.MinFee,
	}).Build()
	require.NoError(t, err)

	transferDebris, err := (&money.TransferCallBuilder{
		Chain:        h.bc,
		FaucetSecret: faucetSk,
		Outputs: []money.TransferRecipient{
			{Value: h.coinA.Value, Pub: userPub, Serial: h.coinA.Serial},
			{Value: h.coinB.Value, Pub: userPub, Serial: h.coinB.Serial},
		},
	}).Build()
	require.NoError(t, err)

	genesis := h.buildTx(t,
		[]*money.CallDebris{feeDebris, transferDebris},
		[]common.ContractID{money.ContractID(), money.ContractID()},
		[]byte{money.FuncFeeV1, money.FuncTransferV1})
	require.NoError(t, state.VerifyTransactions([]*tx.Transaction{genesis}, true))
	return h
}

func (h *harness) buildTx(t *testing.T, debris []*money.CallDebris, cids []common.ContractID, fns []byte) *tx.Transaction {
	t.Helper()
	txn := &tx.Transaction{}
	var secrets [][]crypto.SecretKey
	for i, d := range debris {
		data, err := d.Encode(fns[i])
		require.NoError(t, err)
		txn.Calls = append(txn.Calls, tx.ContractCall{ContractID: cids[i], Data: data})
		txn.Proofs = append(txn.Proofs, d.Proofs)
		secrets = append(secrets, d.SignatureSecrets)
	}
	require.NoError(t, txn.CreateSigs(secrets))
	return txn
}

// spendTx builds [fee spending coinA with change, transfer of coinB]
// against current canonical state, returning the change coin the fee
// call mints.
func (h *harness) spendTx(t *testing.T, feeValue uint64) (*tx.Transaction, crypto.Coin) {
	t.Helper()
	recipientPub, _, err := crypto.NewKeypair(nil)
	require.NoError(t, err)

	changePub := h.userSk.PublicKey()
	changeSerial := crypto.NewSerial()
	feeDebris, err := (&money.FeeCallBuilder{
		Chain:        h.bc,
		Coins:        []money.OwnCoin{h.coinA},
		FeeValue:     feeValue,
		ChangePub:    changePub,
		ChangeSerial: changeSerial,
	}).Build()
	require.NoError(t, err)

	transferDebris, err := (&money.TransferCallBuilder{
		Chain:   h.bc,
		Coins:   []money.OwnCoin{h.coinB},
		Outputs: []money.TransferRecipient{{Value: h.coinB.Value, Pub: recipientPub, Serial: crypto.NewSerial()}},
	}).Build()
	require.NoError(t, err)

	txn := h.buildTx(t,
		[]*money.CallDebris{feeDebris, transferDebris},
		[]common.ContractID{money.ContractID(), money.ContractID()},
		[]byte{money.FuncFeeV1, money.FuncTransferV1})
	change := crypto.NewCoin(changePub, h.coinA.Value-feeValue, crypto.NativeTokenID, changeSerial)
	return txn, change
}

func requireErroneous(t *testing.T, err error, hashes ...common.Hash) {
	t.Helper()
	var etxs *txerrors.ErroneousTxs
	require.ErrorAs(t, err, &etxs)
	require.Equal(t, hashes, etxs.Hashes)
}

func TestSpendCommits(t *testing.T) {
	h := newHarness(t)
	spend, changeCoin := h.spendTx(t, money.MinFee)
	require.NoError(t, h.state.VerifyTransactions([]*tx.Transaction{spend}, true))

	moneyID := money.ContractID()
	for _, coin := range []money.OwnCoin{h.coinA, h.coinB} {
		ok, err := h.bc.ContractHas(moneyID, money.TreeNullifiers, coin.Nullifier().Bytes())
		require.NoError(t, err)
		require.True(t, ok)
	}

	// The change coin is in the coin set and the tree it was appended
	// to has its new root recorded.
	ok, err := h.bc.ContractHas(moneyID, money.TreeCoins, changeCoin.Bytes())
	require.NoError(t, err)
	require.True(t, ok)
	root, err := h.bc.MerkleRoot(moneyID, money.TreeInfo, []byte(money.KeyCoinMerkleTree))
	require.NoError(t, err)
	ok, err = h.bc.ContractHas(moneyID, money.TreeCoinRoots, root.Bytes())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.bc.HasTransaction(spend.Hash())
	require.NoError(t, err)
	require.True(t, ok)

	// Spending the same coins against committed state now fails.
	resend, _ := h.spendTx(t, money.MinFee)
	requireErroneous(t, h.state.VerifyTransactions([]*tx.Transaction{resend}, false), resend.Hash())
}

func TestDryRunLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	before, err := h.store.Dump()
	require.NoError(t, err)

	spend, _ := h.spendTx(t, money.MinFee)
	require.NoError(t, h.state.VerifyTransactions([]*tx.Transaction{spend}, false))

	after, err := h.store.Dump()
	require.NoError(t, err)
	require.Equal(t, before, after)

	// The same transaction still commits afterwards.
	require.NoError(t, h.state.VerifyTransactions([]*tx.Transaction{spend}, true))
}

func TestBatchRollsBackOnAnyFailure(t *testing.T) {
	h := newHarness(t)
	before, err := h.store.Dump()
	require.NoError(t, err)

	good, _ := h.spendTx(t, money.MinFee)

	// A transaction whose first call is not the fee call.
	bad := &tx.Transaction{
		Calls: []tx.ContractCall{
			{ContractID: money.ContractID(), Data: []byte{money.FuncTransferV1}},
			{ContractID: money.ContractID(), Data: []byte{money.FuncTransferV1}},
		},
		Proofs: [][]zk.Proof{nil, nil},
	}
	require.NoError(t, bad.CreateSigs([][]crypto.SecretKey{nil, nil}))

	err = h.state.VerifyTransactions([]*tx.Transaction{good, bad}, true)
	requireErroneous(t, err, bad.Hash())

	// Nothing landed, the good transaction included.
	after, err := h.store.Dump()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestDoubleSpendWithinBatch(t *testing.T) {
	h := newHarness(t)

	first, _ := h.spendTx(t, money.MinFee)
	second, _ := h.spendTx(t, money.MinFee)

	// Both spend coinA and coinB; the second must see the first's
	// nullifiers through the shared overlay.
	err := h.state.VerifyTransactions([]*tx.Transaction{first, second}, true)
	requireErroneous(t, err, second.Hash())
}

func TestMinFeeBoundary(t *testing.T) {
	h := newHarness(t)

	under, _ := h.spendTx(t, money.MinFee-1)
	requireErroneous(t, h.state.VerifyTransactions([]*tx.Transaction{under}, false), under.Hash())

	exact, _ := h.spendTx(t, money.MinFee)
	require.NoError(t, h.state.VerifyTransactions([]*tx.Transaction{exact}, false))
}

func TestMissingCallsRejected(t *testing.T) {
	h := newHarness(t)

	feeDebris, err := (&money.FaucetFeeCallBuilder{
		Chain: h.bc, FaucetSecret: h.faucetSk, FeeValue: money.MinFee,
	}).Build()
	require.NoError(t, err)

	lone := h.buildTx(t, []*money.CallDebris{feeDebris},
		[]common.ContractID{money.ContractID()}, []byte{money.FuncFeeV1})
	requireErroneous(t, h.state.VerifyTransactions([]*tx.Transaction{lone}, false), lone.Hash())
}

func TestTamperedSignatureRejected(t *testing.T) {
	h := newHarness(t)
	spend, _ := h.spendTx(t, money.MinFee)
	spend.Signatures[0][0][0] ^= 0xff
	requireErroneous(t, h.state.VerifyTransactions([]*tx.Transaction{spend}, false), spend.Hash())
}

func TestTamperedProofRejected(t *testing.T) {
	h := newHarness(t)
	spend, _ := h.spendTx(t, money.MinFee)
	spend.Proofs[0][0][0] ^= 0xff
	requireErroneous(t, h.state.VerifyTransactions([]*tx.Transaction{spend}, false), spend.Hash())
}

func TestMissingSignatureGroupRejected(t *testing.T) {
	h := newHarness(t)
	spend, _ := h.spendTx(t, money.MinFee)
	spend.Signatures = spend.Signatures[:1]
	requireErroneous(t, h.state.VerifyTransactions([]*tx.Transaction{spend}, false), spend.Hash())
}

func TestAppendTx(t *testing.T) {
	h := newHarness(t)
	spend, _ := h.spendTx(t, money.MinFee)

	require.NoError(t, h.state.AppendTx(spend, true))
	ok, err := h.bc.HasPending(spend.Hash())
	require.NoError(t, err)
	require.True(t, ok)

	// Resubmission is rejected without re-verification.
	require.ErrorIs(t, h.state.AppendTx(spend, false), txerrors.ErrVTransactionAlreadySeen)

	pending, err := h.state.PendingTxs()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Committing the pool removes the transaction from pending, and it
	// stays rejected as already seen in the chain.
	require.NoError(t, h.state.VerifyTransactions(pending, true))
	ok, err = h.bc.HasPending(spend.Hash())
	require.NoError(t, err)
	require.False(t, ok)
	require.ErrorIs(t, h.state.AppendTx(spend, true), txerrors.ErrVTransactionAlreadySeen)
}

func TestAppendTxConcurrentWithCommit(t *testing.T) {
	h := newHarness(t)
	spend, _ := h.spendTx(t, money.MinFee)
	hash := spend.Hash()

	// Race pool insertion against a batch commit of the same transaction.
	// AppendTx holds the state lock across its seen-check, dry run and
	// pool insert, so whichever side runs second must observe the first:
	// a transaction confirmed on chain can never be left in the pool.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = h.state.AppendTx(spend, true)
	}()
	go func() {
		defer wg.Done()
		_ = h.state.VerifyTransactions([]*tx.Transaction{spend}, true)
	}()
	wg.Wait()

	onChain, err := h.bc.HasTransaction(hash)
	require.NoError(t, err)
	inPool, err := h.bc.HasPending(hash)
	require.NoError(t, err)
	require.False(t, onChain && inPool)

	// Draining whatever is left in the pool must converge on the chain
	// copy without error.
	pending, err := h.state.PendingTxs()
	require.NoError(t, err)
	if len(pending) > 0 {
		require.NoError(t, h.state.VerifyTransactions(pending, true))
	}
	onChain, err = h.bc.HasTransaction(hash)
	require.NoError(t, err)
	require.True(t, onChain)
	inPool, err = h.bc.HasPending(hash)
	require.NoError(t, err)
	require.False(t, inPool)
}

func TestStakeEndToEnd(t *testing.T) {
	h := newHarness(t)

	feeDebris, err := (&money.FeeCallBuilder{
		Chain:        h.bc,
		Coins:        []money.OwnCoin{h.coinA},
		FeeValue:     money.MinFee,
		ChangePub:    h.userSk.PublicKey(),
		ChangeSerial: crypto.NewSerial(),
	}).Build()
	require.NoError(t, err)

	// The transfer burns coinB, writing its nullifier; the stake call
	// right after it moves the value into the consensus set.
	burnPub, _, err := crypto.NewKeypair(nil)
	require.NoError(t, err)
	transferDebris, err := (&money.TransferCallBuilder{
		Chain:   h.bc,
		Coins:   []money.OwnCoin{h.coinB},
		Outputs: []money.TransferRecipient{{Value: h.coinB.Value, Pub: burnPub, Serial: crypto.NewSerial()}},
	}).Build()
	require.NoError(t, err)

	stakeDebris, err := (&stake.StakeCallBuilder{
		Chain:       h.bc,
		Coin:        h.coinB,
		StakeSerial: crypto.NewSerial(),
	}).Build()
	require.NoError(t, err)

	stakeTx := h.buildTx(t,
		[]*money.CallDebris{feeDebris, transferDebris, stakeDebris},
		[]common.ContractID{money.ContractID(), money.ContractID(), stake.ContractID()},
		[]byte{money.FuncFeeV1, money.FuncTransferV1, stake.FuncStakeV1})
	require.NoError(t, h.state.VerifyTransactions([]*tx.Transaction{stakeTx}, true))

	stakedCoin := stakeDebris.Params.(*stake.StakeParamsV1).Output.Coin
	ok, err := h.bc.ContractHas(stake.ContractID(), stake.TreeCoins, stakedCoin.Bytes())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidatorRestartIdempotent(t *testing.T) {
	h := newHarness(t)
	before, err := h.store.Dump()
	require.NoError(t, err)

	// Reopening over the same store must not disturb existing state.
	_, err = New(h.store, Config{FaucetPubkeys: []crypto.PublicKey{h.faucetSk.PublicKey()}})
	require.NoError(t, err)

	after, err := h.store.Dump()
	require.NoError(t, err)
	require.Equal(t, before, after)
}
