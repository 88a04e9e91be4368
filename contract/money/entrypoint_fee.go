package money

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/txerrors"
)

// feeGetMetadata is the metadata phase of Money::FeeV1.
func feeGetMetadata(callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	// The fee is always the first call in a transaction.
	if callIdx != 0 {
		return nil, txerrors.ErrMCallIdxNonZero
	}

	params, err := decodeFeeParams(&calls[callIdx])
	if err != nil {
		return nil, err
	}

	meta := &tx.CallMetadata{}
	for i := range params.Inputs {
		meta.ZkInputs = append(meta.ZkInputs, BurnPublicInputs(&params.Inputs[i]))
		meta.SigKeys = append(meta.SigKeys, params.Inputs[i].SignaturePublic)
	}
	for i := range params.Outputs {
		meta.ZkInputs = append(meta.ZkInputs, MintPublicInputs(&params.Outputs[i]))
	}
	return meta.Encode()
}

// feeProcessInstruction is the validation phase of Money::FeeV1. It is
// pure with respect to the overlay: only reads, no mutation.
func feeProcessInstruction(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	if callIdx != 0 {
		return nil, txerrors.ErrMCallIdxNonZero
	}

	params, err := decodeFeeParams(&calls[callIdx])
	if err != nil {
		return nil, err
	}

	if len(params.Inputs) < 1 {
		return nil, txerrors.ErrMFeeMissingInputs
	}

	// Fixed minimum for now; eventually derived from gas use.
	if params.FeeValue < MinFee {
		return nil, fmt.Errorf("%w: fee %d", txerrors.ErrMIncorrectFee, params.FeeValue)
	}

	faucet, err := FaucetPubkeys(view, cid)
	if err != nil {
		return nil, err
	}

	var valcom crypto.Commitment
	newNullifiers, valcom, err := checkInputs(view, cid, faucet, params.Inputs, valcom)
	if err != nil {
		return nil, err
	}

	newCoins, valcom, err := checkOutputs(view, cid, params.Outputs, valcom)
	if err != nil {
		return nil, err
	}

	// inputs - outputs - fee must commit to zero.
	valcom = valcom.Sub(crypto.PedersenCommitUint64(params.FeeValue, params.FeeValueBlind))
	if !valcom.IsIdentity() {
		return nil, txerrors.ErrMValueMismatch
	}

	if err := checkTokenCommits(params.Inputs, params.Outputs, params.TokenBlind); err != nil {
		return nil, err
	}

	update := &FeeUpdateV1{
		Nullifiers: newNullifiers,
		Coins:      newCoins,
		FeeValue:   params.FeeValue,
	}
	return encodeUpdate(FuncFeeV1, update)
}

// feeProcessUpdate is the mutation phase of Money::FeeV1.
func feeProcessUpdate(view *blockchain.Overlay, cid common.ContractID, update *FeeUpdateV1) error {
	if err := applySpends(view, cid, update.Nullifiers, update.Coins); err != nil {
		return err
	}

	raw, ok, err := view.ContractGet(cid, TreeInfo, []byte(KeyPaidFees))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: missing paid fees accumulator", txerrors.ErrMInternal)
	}
	total := common.BytesToUint64(raw) + update.FeeValue
	view.ContractPut(cid, TreeInfo, []byte(KeyPaidFees), common.Uint64ToBytes(total))

	log.Debug(log.ContractModule, "Paid fee", "fee", update.FeeValue, "total", total)
	return nil
}

func decodeFeeParams(call *tx.ContractCall) (*FeeParamsV1, error) {
	var params FeeParamsV1
	if err := rlp.DecodeBytes(call.Params(), &params); err != nil {
		return nil, fmt.Errorf("%w: fee params: %v", txerrors.ErrVDecode, err)
	}
	return &params, nil
}

func encodeUpdate(fn byte, update interface{}) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(update)
	if err != nil {
		return nil, err
	}
	return append([]byte{fn}, enc...), nil
}
