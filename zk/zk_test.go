package zk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ggreptile/darkfi/common"
)

func TestProveVerify(t *testing.T) {
	cid := common.DeriveContractID("test")
	vk := NewVerifyingKey(cid, "Mint_V1")

	verifier, err := NewVerifier(16)
	require.NoError(t, err)

	inputs := [][]byte{[]byte("coin"), []byte("value"), []byte("token")}
	proof := Prove(vk, inputs)
	require.True(t, verifier.Verify(proof, inputs, vk))
}

func TestVerifyRejectsMismatch(t *testing.T) {
	cid := common.DeriveContractID("test")
	vk := NewVerifyingKey(cid, "Mint_V1")

	verifier, err := NewVerifier(16)
	require.NoError(t, err)

	inputs := [][]byte{[]byte("coin"), []byte("value")}
	proof := Prove(vk, inputs)

	// Changed public inputs.
	require.False(t, verifier.Verify(proof, [][]byte{[]byte("coin"), []byte("other")}, vk))

	// Different namespace under the same contract.
	other := NewVerifyingKey(cid, "Burn_V1")
	require.False(t, verifier.Verify(proof, inputs, other))

	// Same namespace under a different contract.
	foreign := NewVerifyingKey(common.DeriveContractID("other"), "Mint_V1")
	require.False(t, verifier.Verify(proof, inputs, foreign))
}

func TestVerifierCacheStable(t *testing.T) {
	cid := common.DeriveContractID("test")
	vk := NewVerifyingKey(cid, "Mint_V1")

	verifier, err := NewVerifier(2)
	require.NoError(t, err)

	inputs := [][]byte{[]byte("x")}
	proof := Prove(vk, inputs)

	// Repeated verification, cached or not, gives the same verdict.
	for i := 0; i < 5; i++ {
		require.True(t, verifier.Verify(proof, inputs, vk))
	}
}

func TestVerifyingKeyDeterministic(t *testing.T) {
	cid := common.DeriveContractID("money")
	require.Equal(t, NewVerifyingKey(cid, "Mint_V1"), NewVerifyingKey(cid, "Mint_V1"))
	require.NotEqual(t, NewVerifyingKey(cid, "Mint_V1").Data, NewVerifyingKey(cid, "Burn_V1").Data)
}
