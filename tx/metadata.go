package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/txerrors"
	"github.com/ggreptile/darkfi/zk"
)

// CallMetadata is what a contract's metadata phase hands back to the
// engine: the public-input tuples its proofs need verified and the
// public keys its signatures need verified, in call order.
type CallMetadata struct {
	ZkInputs []zk.PublicInputs
	SigKeys  []crypto.PublicKey
}

// Encode serializes the metadata for transport across the runtime
// boundary.
func (m *CallMetadata) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(m)
}

// DecodeCallMetadata deserializes metadata returned by a runtime.
func DecodeCallMetadata(data []byte) (*CallMetadata, error) {
	var m CallMetadata
	if err := rlp.DecodeBytes(data, &m); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", txerrors.ErrVDecode, err)
	}
	return &m, nil
}

// EncodePayload builds the payload handed to a runtime for one call:
// the call index followed by the full serialized call list, so a
// contract can inspect sibling calls.
func EncodePayload(callIdx uint32, calls []ContractCall) ([]byte, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, callIdx)
	enc, err := rlp.EncodeToBytes(calls)
	if err != nil {
		return nil, err
	}
	return append(payload, enc...), nil
}

// DecodePayload splits a runtime payload back into call index and call
// list.
func DecodePayload(payload []byte) (uint32, []ContractCall, error) {
	if len(payload) < 4 {
		return 0, nil, fmt.Errorf("%w: payload too short", txerrors.ErrVDecode)
	}
	callIdx := binary.LittleEndian.Uint32(payload[:4])
	var calls []ContractCall
	if err := rlp.DecodeBytes(payload[4:], &calls); err != nil {
		return 0, nil, fmt.Errorf("%w: payload calls: %v", txerrors.ErrVDecode, err)
	}
	if int(callIdx) >= len(calls) {
		return 0, nil, fmt.Errorf("%w: call index %d out of range", txerrors.ErrVDecode, callIdx)
	}
	return callIdx, calls, nil
}
