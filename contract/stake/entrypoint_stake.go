package stake

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/contract/money"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/txerrors"
	"github.com/ggreptile/darkfi/zk"
)

// stakeGetMetadata is the metadata phase of Consensus::StakeV1.
func stakeGetMetadata(callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	params, err := decodeStakeParams(&calls[callIdx])
	if err != nil {
		return nil, err
	}

	meta := &tx.CallMetadata{
		ZkInputs: []zk.PublicInputs{MintPublicInputs(&params.Output)},
		SigKeys:  []crypto.PublicKey{params.Input.SignaturePublic},
	}
	return meta.Encode()
}

// stakeProcessInstruction is the validation phase of Consensus::StakeV1.
func stakeProcessInstruction(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	params, err := decodeStakeParams(&calls[callIdx])
	if err != nil {
		return nil, err
	}
	input := &params.Input
	output := &params.Output

	// Both commitment pairs must open to the native token under the
	// revealed blind. Only the native token can be staked.
	expectedToken := crypto.PedersenCommitBase(crypto.NativeTokenID.Element(), input.TokenBlind)
	if !input.TokenCommit.Equal(expectedToken) || !output.TokenCommit.Equal(expectedToken) {
		return nil, txerrors.ErrSNonNativeToken
	}

	// Staking preserves value exactly.
	if !input.ValueCommit.Equal(output.ValueCommit) {
		return nil, txerrors.ErrSValueMismatch
	}

	moneyID := money.ContractID()

	ok, err := view.ContractHas(moneyID, money.TreeCoinRoots, input.MerkleRoot.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, txerrors.ErrSRootNotFound
	}

	// The burn must already have landed: an earlier money call of this
	// transaction spent the coin and wrote its nullifier.
	ok, err = view.ContractHas(moneyID, money.TreeNullifiers, input.Nullifier.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, txerrors.ErrSNullifierNotFound
	}

	// The spend hook: the preceding call in the transaction must be a
	// money call, the one that burned the coin.
	if callIdx == 0 || calls[callIdx-1].ContractID != moneyID {
		return nil, txerrors.ErrSSpendHookMismatch
	}

	ok, err = view.ContractHas(cid, TreeCoins, output.Coin.Bytes())
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, txerrors.ErrSDuplicateCoin
	}

	update := &StakeUpdateV1{Coin: output.Coin}
	enc, err := rlp.EncodeToBytes(update)
	if err != nil {
		return nil, err
	}
	return append([]byte{FuncStakeV1}, enc...), nil
}

// stakeProcessUpdate is the mutation phase of Consensus::StakeV1.
func stakeProcessUpdate(view *blockchain.Overlay, cid common.ContractID, update *StakeUpdateV1) error {
	view.ContractPut(cid, TreeCoins, update.Coin.Bytes(), []byte{})
	if err := view.MerkleAdd(cid, TreeInfo, TreeCoinRoots, []byte(KeyCoinMerkleTree), [][]byte{update.Coin.Bytes()}); err != nil {
		return err
	}
	log.Debug(log.ContractModule, "Staked coin", "coin", update.Coin.Hex())
	return nil
}

func decodeStakeParams(call *tx.ContractCall) (*StakeParamsV1, error) {
	var params StakeParamsV1
	if err := rlp.DecodeBytes(call.Params(), &params); err != nil {
		return nil, fmt.Errorf("%w: stake params: %v", txerrors.ErrVDecode, err)
	}
	return &params, nil
}
