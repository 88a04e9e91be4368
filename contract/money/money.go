// Package money is the native currency contract: anonymous transfers
// and the fee call every transaction must lead with. It is a native,
// statically compiled instance of the same three-phase protocol a
// sandboxed contract would implement.
package money

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/runtime"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/txerrors"
)

var contractID = common.DeriveContractID("money")

// ContractID returns the money contract's canonical ID.
func ContractID() common.ContractID { return contractID }

// State trees and info-tree keys.
const (
	TreeInfo       = "info"
	TreeCoins      = "coins"
	TreeNullifiers = "nullifiers"
	TreeCoinRoots  = "coin_roots"

	KeyFaucetPubkeys  = "faucet_pubkeys"
	KeyPaidFees       = "paid_fees"
	KeyCoinMerkleTree = "coin_merkle_tree"
)

// Circuit namespaces.
const (
	ZkasMintNsV1 = "Mint_V1"
	ZkasBurnNsV1 = "Burn_V1"
)

// Function discriminants (first byte of call data).
const (
	FuncTransferV1 byte = 0x01
	FuncFeeV1      byte = 0x04
)

// MinFee is the fixed minimum fee. Pricing will eventually derive from
// gas and proof complexity; the threshold itself is enforced here.
const MinFee uint64 = 10000

// Contract implements the money contract entrypoints.
type Contract struct{}

func init() {
	runtime.RegisterNative(contractID, &Contract{})
}

// Deploy initializes the money state. The payload is the RLP-encoded
// faucet pubkey allowlist. Redeploying over existing state is a no-op
// so the allowlist of the initial deploy stays authoritative.
func (c *Contract) Deploy(view *blockchain.Overlay, cid common.ContractID, payload []byte) error {
	if ok, err := view.ContractHas(cid, TreeInfo, []byte(KeyFaucetPubkeys)); err != nil {
		return err
	} else if ok {
		return nil
	}

	var faucet []crypto.PublicKey
	if err := rlp.DecodeBytes(payload, &faucet); err != nil {
		return fmt.Errorf("%w: faucet pubkeys: %v", txerrors.ErrVDecode, err)
	}
	log.Info(log.ContractModule, "Deploying money contract", "faucet_keys", len(faucet))

	view.ContractPut(cid, TreeInfo, []byte(KeyFaucetPubkeys), payload)
	view.ContractPut(cid, TreeInfo, []byte(KeyPaidFees), common.Uint64ToBytes(0))
	return nil
}

// GetMetadata dispatches the metadata phase on the function byte.
func (c *Contract) GetMetadata(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	fn, err := calls[callIdx].Function()
	if err != nil {
		return nil, err
	}
	switch fn {
	case FuncFeeV1:
		return feeGetMetadata(callIdx, calls)
	case FuncTransferV1:
		return transferGetMetadata(callIdx, calls)
	default:
		return nil, fmt.Errorf("%w: unknown money function %#02x", txerrors.ErrVDecode, fn)
	}
}

// ProcessInstruction dispatches the validation phase on the function byte.
func (c *Contract) ProcessInstruction(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	fn, err := calls[callIdx].Function()
	if err != nil {
		return nil, err
	}
	switch fn {
	case FuncFeeV1:
		return feeProcessInstruction(view, cid, callIdx, calls)
	case FuncTransferV1:
		return transferProcessInstruction(view, cid, callIdx, calls)
	default:
		return nil, fmt.Errorf("%w: unknown money function %#02x", txerrors.ErrVDecode, fn)
	}
}

// ProcessUpdate dispatches the mutation phase on the update's leading
// function byte.
func (c *Contract) ProcessUpdate(view *blockchain.Overlay, cid common.ContractID, update []byte) error {
	if len(update) == 0 {
		return fmt.Errorf("%w: empty money update", txerrors.ErrVDecode)
	}
	switch update[0] {
	case FuncFeeV1:
		var u FeeUpdateV1
		if err := rlp.DecodeBytes(update[1:], &u); err != nil {
			return fmt.Errorf("%w: fee update: %v", txerrors.ErrVDecode, err)
		}
		return feeProcessUpdate(view, cid, &u)
	case FuncTransferV1:
		var u TransferUpdateV1
		if err := rlp.DecodeBytes(update[1:], &u); err != nil {
			return fmt.Errorf("%w: transfer update: %v", txerrors.ErrVDecode, err)
		}
		return transferProcessUpdate(view, cid, &u)
	default:
		return fmt.Errorf("%w: unknown money update %#02x", txerrors.ErrVDecode, update[0])
	}
}

// FaucetPubkeys reads the faucet allowlist from the contract info tree.
func FaucetPubkeys(view *blockchain.Overlay, cid common.ContractID) ([]crypto.PublicKey, error) {
	raw, ok, err := view.ContractGet(cid, TreeInfo, []byte(KeyFaucetPubkeys))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, txerrors.ErrMMissingFaucetKeys
	}
	var faucet []crypto.PublicKey
	if err := rlp.DecodeBytes(raw, &faucet); err != nil {
		return nil, fmt.Errorf("%w: faucet pubkeys: %v", txerrors.ErrVDecode, err)
	}
	return faucet, nil
}
