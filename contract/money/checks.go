package money

import (
	"fmt"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/txerrors"
)

// checkInputs validates the anonymous inputs of a call against overlay
// state and accumulates their value commitments. It returns the
// nullifiers to insert.
//
// Faucet-signed inputs skip the root and nullifier bookkeeping: the
// allowlisted keys may conjure inputs out of nothing. This bypass is
// kept for bootstrap/testnet compatibility and is replay-exposed; it
// must not be extended.
func checkInputs(view *blockchain.Overlay, cid common.ContractID, faucet []crypto.PublicKey,
	inputs []Input, valcom crypto.Commitment) ([]crypto.Nullifier, crypto.Commitment, error) {

	newNullifiers := make([]crypto.Nullifier, 0, len(inputs))
	for i := range inputs {
		input := &inputs[i]

		if containsKey(faucet, input.SignaturePublic) {
			log.Debug(log.ContractModule, "Faucet input, skipping spend bookkeeping", "input", i)
			valcom = valcom.Add(input.ValueCommit)
			continue
		}

		ok, err := view.ContractHas(cid, TreeCoinRoots, input.MerkleRoot.Bytes())
		if err != nil {
			return nil, valcom, err
		}
		if !ok {
			return nil, valcom, fmt.Errorf("%w: input %d", txerrors.ErrMRootNotFound, i)
		}

		if containsNullifier(newNullifiers, input.Nullifier) {
			return nil, valcom, fmt.Errorf("%w: input %d", txerrors.ErrMDuplicateNullifier, i)
		}
		ok, err = view.ContractHas(cid, TreeNullifiers, input.Nullifier.Bytes())
		if err != nil {
			return nil, valcom, err
		}
		if ok {
			return nil, valcom, fmt.Errorf("%w: input %d", txerrors.ErrMDuplicateNullifier, i)
		}

		newNullifiers = append(newNullifiers, input.Nullifier)
		valcom = valcom.Add(input.ValueCommit)
	}
	return newNullifiers, valcom, nil
}

// checkOutputs validates the outputs of a call, subtracting their value
// commitments from the accumulator, and returns the coins to insert.
func checkOutputs(view *blockchain.Overlay, cid common.ContractID,
	outputs []Output, valcom crypto.Commitment) ([]crypto.Coin, crypto.Commitment, error) {

	newCoins := make([]crypto.Coin, 0, len(outputs))
	for i := range outputs {
		output := &outputs[i]

		if containsCoin(newCoins, output.Coin) {
			return nil, valcom, fmt.Errorf("%w: output %d", txerrors.ErrMDuplicateCoin, i)
		}
		ok, err := view.ContractHas(cid, TreeCoins, output.Coin.Bytes())
		if err != nil {
			return nil, valcom, err
		}
		if ok {
			return nil, valcom, fmt.Errorf("%w: output %d", txerrors.ErrMDuplicateCoin, i)
		}

		newCoins = append(newCoins, output.Coin)
		valcom = valcom.Sub(output.ValueCommit)
	}
	return newCoins, valcom, nil
}

// checkTokenCommits verifies that every input and output commits to the
// native token under the call's shared token blind.
func checkTokenCommits(inputs []Input, outputs []Output, tokenBlind crypto.Blind) error {
	expected := crypto.PedersenCommitBase(crypto.NativeTokenID.Element(), tokenBlind)
	for i := range inputs {
		if !inputs[i].TokenCommit.Equal(expected) {
			return fmt.Errorf("%w: input %d", txerrors.ErrMTokenMismatch, i)
		}
	}
	for i := range outputs {
		if !outputs[i].TokenCommit.Equal(expected) {
			return fmt.Errorf("%w: output %d", txerrors.ErrMTokenMismatch, i)
		}
	}
	return nil
}

// applySpends writes new nullifiers and coins and appends the coins to
// the contract's commitment tree, recording the fresh root.
func applySpends(view *blockchain.Overlay, cid common.ContractID,
	nullifiers []crypto.Nullifier, coins []crypto.Coin) error {

	for _, n := range nullifiers {
		view.ContractPut(cid, TreeNullifiers, n.Bytes(), []byte{})
	}
	for _, c := range coins {
		view.ContractPut(cid, TreeCoins, c.Bytes(), []byte{})
	}

	leaves := make([][]byte, len(coins))
	for i, c := range coins {
		leaves[i] = c.Bytes()
	}
	return view.MerkleAdd(cid, TreeInfo, TreeCoinRoots, []byte(KeyCoinMerkleTree), leaves)
}

func containsKey(keys []crypto.PublicKey, k crypto.PublicKey) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

func containsNullifier(ns []crypto.Nullifier, n crypto.Nullifier) bool {
	for _, x := range ns {
		if x == n {
			return true
		}
	}
	return false
}

func containsCoin(cs []crypto.Coin, c crypto.Coin) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}
