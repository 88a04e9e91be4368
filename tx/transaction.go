package tx

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/txerrors"
	"github.com/ggreptile/darkfi/zk"
)

// ContractCall is one call of a transaction. Data[0] selects the
// contract function, Data[1:] carries the RLP-encoded parameters.
type ContractCall struct {
	ContractID common.ContractID
	Data       []byte
}

// Function returns the function discriminant of the call.
func (c *ContractCall) Function() (byte, error) {
	if len(c.Data) == 0 {
		return 0, fmt.Errorf("%w: empty call data", txerrors.ErrVDecode)
	}
	return c.Data[0], nil
}

// Params returns the serialized function parameters.
func (c *ContractCall) Params() []byte {
	if len(c.Data) == 0 {
		return nil
	}
	return c.Data[1:]
}

// Transaction is an ordered sequence of contract calls with the proofs
// and signatures their metadata demands. Call 0 must be the fee call.
// Proofs and Signatures run parallel to Calls. Immutable once built.
type Transaction struct {
	Calls      []ContractCall
	Proofs     [][]zk.Proof
	Signatures [][]crypto.Signature
}

// Hash returns the content hash identifying the transaction.
func (t *Transaction) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(t)
	if err != nil {
		// A constructed transaction always encodes; anything else is
		// memory corruption.
		panic(fmt.Sprintf("encode transaction: %v", err))
	}
	return common.Blake2Hash(enc)
}

// SigningHash returns the digest signatures commit to: everything in
// the transaction except the signatures themselves.
func (t *Transaction) SigningHash() (common.Hash, error) {
	var buf bytes.Buffer
	if err := rlp.Encode(&buf, t.Calls); err != nil {
		return common.Hash{}, err
	}
	if err := rlp.Encode(&buf, t.Proofs); err != nil {
		return common.Hash{}, err
	}
	return common.Blake2Hash(buf.Bytes()), nil
}

// CreateSigs signs the transaction with the per-call signing secrets,
// in the same order the call metadata will present the public keys.
func (t *Transaction) CreateSigs(secrets [][]crypto.SecretKey) error {
	digest, err := t.SigningHash()
	if err != nil {
		return err
	}
	t.Signatures = make([][]crypto.Signature, len(secrets))
	for i, callSecrets := range secrets {
		sigs := make([]crypto.Signature, len(callSecrets))
		for j, sk := range callSecrets {
			sigs[j] = sk.Sign(digest.Bytes())
		}
		t.Signatures[i] = sigs
	}
	return nil
}

// VerifySigs checks every transaction signature against the public keys
// collected from call metadata. sigTable runs parallel to Calls.
func (t *Transaction) VerifySigs(sigTable [][]crypto.PublicKey) error {
	digest, err := t.SigningHash()
	if err != nil {
		return err
	}
	for i, keys := range sigTable {
		if len(keys) != len(t.Signatures[i]) {
			return fmt.Errorf("%w: call %d wants %d signatures, has %d",
				txerrors.ErrVMissingSignatures, i, len(keys), len(t.Signatures[i]))
		}
		for j, pk := range keys {
			if !pk.Verify(digest.Bytes(), t.Signatures[i][j]) {
				return fmt.Errorf("%w: call %d signature %d", txerrors.ErrVInvalidSignature, i, j)
			}
		}
	}
	return nil
}

// VerifyZkps checks every ZK proof of the transaction against the
// verifying keys cached for the batch. zkpTable runs parallel to Calls.
func (t *Transaction) VerifyZkps(verifier *zk.Verifier,
	vks map[common.ContractID]map[string]*zk.VerifyingKey,
	zkpTable [][]zk.PublicInputs) error {

	for i, tuples := range zkpTable {
		if len(tuples) != len(t.Proofs[i]) {
			return fmt.Errorf("%w: call %d wants %d proofs, has %d",
				txerrors.ErrVInvalidZkProof, i, len(tuples), len(t.Proofs[i]))
		}
		inner, ok := vks[t.Calls[i].ContractID]
		if !ok {
			return fmt.Errorf("%w: no verifying keys for contract %s",
				txerrors.ErrVInternal, t.Calls[i].ContractID)
		}
		for j, tuple := range tuples {
			vk, ok := inner[tuple.Namespace]
			if !ok {
				return fmt.Errorf("%w: no verifying key for namespace %q",
					txerrors.ErrVInternal, tuple.Namespace)
			}
			if !verifier.Verify(t.Proofs[i][j], tuple.Inputs, vk) {
				return fmt.Errorf("%w: call %d proof %d (%s)",
					txerrors.ErrVInvalidZkProof, i, j, tuple.Namespace)
			}
		}
	}
	return nil
}

// EncodeToBytes serializes the transaction.
func (t *Transaction) EncodeToBytes() ([]byte, error) {
	return rlp.EncodeToBytes(t)
}

// DecodeTransaction deserializes a transaction.
func DecodeTransaction(data []byte) (*Transaction, error) {
	var t Transaction
	if err := rlp.DecodeBytes(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", txerrors.ErrVDecode, err)
	}
	return &t, nil
}
