package money

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/txerrors"
)

// transferGetMetadata is the metadata phase of Money::TransferV1.
func transferGetMetadata(callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	params, err := decodeTransferParams(&calls[callIdx])
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

// transferProcessInstruction is the validation phase of Money::TransferV1.
func transferProcessInstruction(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	params, err := decodeTransferParams(&calls[callIdx])
	if err != nil {
		return nil, err
	}

	if len(params.Inputs) < 1 {
		return nil, txerrors.ErrMTransferMissingInputs
	}
	if len(params.Outputs) < 1 {
		return nil, txerrors.ErrMTransferMissingOutputs
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

	// A transfer neither creates nor destroys value.
	if !valcom.IsIdentity() {
		return nil, txerrors.ErrMValueMismatch
	}

	if err := checkTokenCommits(params.Inputs, params.Outputs, params.TokenBlind); err != nil {
		return nil, err
	}

	update := &TransferUpdateV1{
		Nullifiers: newNullifiers,
		Coins:      newCoins,
	}
	return encodeUpdate(FuncTransferV1, update)
}

// transferProcessUpdate is the mutation phase of Money::TransferV1.
func transferProcessUpdate(view *blockchain.Overlay, cid common.ContractID, update *TransferUpdateV1) error {
	return applySpends(view, cid, update.Nullifiers, update.Coins)
}

func decodeTransferParams(call *tx.ContractCall) (*TransferParamsV1, error) {
	var params TransferParamsV1
	if err := rlp.DecodeBytes(call.Params(), &params); err != nil {
		return nil, fmt.Errorf("%w: transfer params: %v", txerrors.ErrVDecode, err)
	}
	return &params, nil
}
