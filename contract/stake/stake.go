// Package stake is the native consensus contract's staking entrypoint:
// it moves a burned money coin into the consensus coin set, where it
// becomes eligible for leader election. The burn itself happens in a
// preceding money call of the same transaction.
package stake

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/runtime"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/txerrors"
)

var contractID = common.DeriveContractID("consensus")

// ContractID returns the consensus contract's canonical ID.
func ContractID() common.ContractID { return contractID }

// State trees and info-tree keys.
const (
	TreeInfo      = "info"
	TreeCoins     = "coins"
	TreeCoinRoots = "coin_roots"

	KeyVersion        = "version"
	KeyCoinMerkleTree = "coin_merkle_tree"
)

// Circuit namespaces.
const (
	ZkasMintNsV1 = "ConsensusMint_V1"
)

// Function discriminants (first byte of call data).
const (
	FuncStakeV1 byte = 0x01
)

// Contract implements the consensus contract entrypoints.
type Contract struct{}

func init() {
	runtime.RegisterNative(contractID, &Contract{})
}

// Deploy initializes the consensus state. The payload is unused.
// Redeploying over existing state is a no-op.
func (c *Contract) Deploy(view *blockchain.Overlay, cid common.ContractID, payload []byte) error {
	if ok, err := view.ContractHas(cid, TreeInfo, []byte(KeyVersion)); err != nil {
		return err
	} else if ok {
		return nil
	}
	log.Info(log.ContractModule, "Deploying consensus contract")
	view.ContractPut(cid, TreeInfo, []byte(KeyVersion), []byte{1})
	return nil
}

// GetMetadata dispatches the metadata phase on the function byte.
func (c *Contract) GetMetadata(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	fn, err := calls[callIdx].Function()
	if err != nil {
		return nil, err
	}
	switch fn {
	case FuncStakeV1:
		return stakeGetMetadata(callIdx, calls)
	default:
		return nil, fmt.Errorf("%w: unknown consensus function %#02x", txerrors.ErrVDecode, fn)
	}
}

// ProcessInstruction dispatches the validation phase on the function byte.
func (c *Contract) ProcessInstruction(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error) {
	fn, err := calls[callIdx].Function()
	if err != nil {
		return nil, err
	}
	switch fn {
	case FuncStakeV1:
		return stakeProcessInstruction(view, cid, callIdx, calls)
	default:
		return nil, fmt.Errorf("%w: unknown consensus function %#02x", txerrors.ErrVDecode, fn)
	}
}

// ProcessUpdate dispatches the mutation phase on the update's leading
// function byte.
func (c *Contract) ProcessUpdate(view *blockchain.Overlay, cid common.ContractID, update []byte) error {
	if len(update) == 0 {
		return fmt.Errorf("%w: empty consensus update", txerrors.ErrVDecode)
	}
	switch update[0] {
	case FuncStakeV1:
		var u StakeUpdateV1
		if err := rlp.DecodeBytes(update[1:], &u); err != nil {
			return fmt.Errorf("%w: stake update: %v", txerrors.ErrVDecode, err)
		}
		return stakeProcessUpdate(view, cid, &u)
	default:
		return fmt.Errorf("%w: unknown consensus update %#02x", txerrors.ErrVDecode, update[0])
	}
}
