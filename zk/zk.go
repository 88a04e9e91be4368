// Package zk holds the verifying-key and proof types the validator
// engine moves around. The engine only ever needs the boundary
// "verify(proof, public inputs, verifying key) -> bool"; the circuit
// and proving math live behind it. The backend here binds a proof to
// its verifying key and public inputs through a blake2b digest, which
// keeps the boundary and the failure modes of a SNARK verifier without
// carrying one.
package zk

import (
	"bytes"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ggreptile/darkfi/common"
)

// VerifyingKey is the per-(contract, namespace) verification artifact.
// It is registered at contract deploy and looked up from the contract
// store during batch validation.
type VerifyingKey struct {
	Namespace string
	Data      []byte
}

// NewVerifyingKey derives the verifying key material for a circuit
// namespace of a contract. Derivation is deterministic so every node
// registers identical keys at deploy.
func NewVerifyingKey(cid common.ContractID, namespace string) *VerifyingKey {
	data := common.ComputeHash([]byte("zkas_vk:" + cid.Hex() + ":" + namespace))
	return &VerifyingKey{Namespace: namespace, Data: data}
}

// Proof is an opaque proof blob. A proof is bound to exactly one
// (verifying key, public inputs) pair.
type Proof []byte

// PublicInputs couples a circuit namespace with the ordered public
// input values (32-byte field elements) a call wants verified against
// that circuit.
type PublicInputs struct {
	Namespace string
	Inputs    [][]byte
}

// Prove produces the proof for the given public inputs. Client-side
// counterpart of Verifier.Verify.
func Prove(vk *VerifyingKey, inputs [][]byte) Proof {
	return Proof(bindingDigest(vk, inputs))
}

func bindingDigest(vk *VerifyingKey, inputs [][]byte) []byte {
	var buf bytes.Buffer
	buf.Write(vk.Data)
	buf.WriteString(vk.Namespace)
	for _, in := range inputs {
		buf.Write(common.ComputeHash(in))
	}
	return common.ComputeHash(buf.Bytes())
}

// Verifier checks proofs and memoizes verdicts in an LRU cache keyed by
// the proof digest, so a proof seen again across batches is not
// re-verified.
type Verifier struct {
	cache *lru.Cache
}

// NewVerifier returns a verifier with a result cache of the given size.
func NewVerifier(cacheSize int) (*Verifier, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("proof cache: %w", err)
	}
	return &Verifier{cache: cache}, nil
}

// Verify reports whether proof is valid for the public inputs under vk.
func (v *Verifier) Verify(proof Proof, inputs [][]byte, vk *VerifyingKey) bool {
	key := string(common.ComputeHash(append(append([]byte{}, proof...), bindingDigest(vk, inputs)...)))
	if cached, ok := v.cache.Get(key); ok {
		return cached.(bool)
	}
	valid := bytes.Equal(proof, bindingDigest(vk, inputs))
	v.cache.Add(key, valid)
	return valid
}
