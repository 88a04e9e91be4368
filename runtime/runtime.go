// Package runtime drives the fixed three-phase contract call protocol:
// metadata, exec, apply. Every contract, native or sandboxed, is
// reached through the same Runtime surface; the engine never
// special-cases by contract identity beyond routing to the right
// implementation.
package runtime

import (
	"fmt"
	"sync"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/log"
	"github.com/ggreptile/darkfi/tx"
	"github.com/ggreptile/darkfi/txerrors"
)

// NativeContract is the capability interface a statically compiled
// contract implements. GetMetadata and ProcessInstruction are pure with
// respect to the overlay: they only read. ProcessUpdate is the sole
// mutation point and is assumed infallible for an update produced by
// ProcessInstruction against the same overlay state.
type NativeContract interface {
	// Deploy initializes the contract's state trees. Must be
	// idempotent: redeploying over existing state leaves it intact.
	Deploy(view *blockchain.Overlay, cid common.ContractID, payload []byte) error

	// GetMetadata returns the encoded CallMetadata for one call.
	GetMetadata(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error)

	// ProcessInstruction validates the call against overlay state and
	// returns the serialized state update it intends.
	ProcessInstruction(view *blockchain.Overlay, cid common.ContractID, callIdx uint32, calls []tx.ContractCall) ([]byte, error)

	// ProcessUpdate applies a previously produced state update.
	ProcessUpdate(view *blockchain.Overlay, cid common.ContractID, update []byte) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[common.ContractID]NativeContract)
)

// RegisterNative registers a native contract implementation under its
// contract ID. Called from contract package init.
func RegisterNative(cid common.ContractID, c NativeContract) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[cid] = c
}

func lookupNative(cid common.ContractID) (NativeContract, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[cid]
	return c, ok
}

// Per-phase gas charge. Pricing is a placeholder: each phase charges a
// flat base plus the payload length, unweighted by what the contract
// actually does. The accounting hooks are real; the cost function is
// not settled.
const gasPhaseBase = 100

// Runtime executes one contract call. A fresh Runtime is instantiated
// per call and accumulates the gas used across its phases.
type Runtime struct {
	contract NativeContract
	overlay  *blockchain.Overlay
	cid      common.ContractID
	gasUsed  uint64
}

// New resolves the contract for cid and wraps it for one call against
// the given overlay.
func New(overlay *blockchain.Overlay, cid common.ContractID) (*Runtime, error) {
	c, ok := lookupNative(cid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", txerrors.ErrCUnknownContract, cid.Hex())
	}
	return &Runtime{contract: c, overlay: overlay, cid: cid}, nil
}

func (r *Runtime) charge(payload []byte) {
	r.gasUsed += gasPhaseBase + uint64(len(payload))
}

// Deploy runs the contract's deploy entrypoint.
func (r *Runtime) Deploy(payload []byte) error {
	r.charge(payload)
	return r.contract.Deploy(r.overlay, r.cid, payload)
}

// Metadata runs the metadata phase for the payload-selected call.
func (r *Runtime) Metadata(payload []byte) ([]byte, error) {
	callIdx, calls, err := tx.DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	r.charge(payload)
	log.Trace(log.RuntimeModule, "metadata", "contract", r.cid.Hex(), "call", callIdx)
	return r.contract.GetMetadata(r.overlay, r.cid, callIdx, calls)
}

// Exec runs the instruction-processing phase, returning the intended
// state update.
func (r *Runtime) Exec(payload []byte) ([]byte, error) {
	callIdx, calls, err := tx.DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	r.charge(payload)
	log.Trace(log.RuntimeModule, "exec", "contract", r.cid.Hex(), "call", callIdx)
	return r.contract.ProcessInstruction(r.overlay, r.cid, callIdx, calls)
}

// Apply applies a state update to the overlay.
func (r *Runtime) Apply(update []byte) error {
	r.charge(update)
	log.Trace(log.RuntimeModule, "apply", "contract", r.cid.Hex())
	return r.contract.ProcessUpdate(r.overlay, r.cid, update)
}

// GasUsed returns the gas consumed by the phases run so far.
func (r *Runtime) GasUsed() uint64 {
	return r.gasUsed
}
