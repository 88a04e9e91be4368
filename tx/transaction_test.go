package tx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/txerrors"
	"github.com/ggreptile/darkfi/zk"
)

func testTransaction(t *testing.T) (*Transaction, crypto.PublicKey) {
	t.Helper()
	pub, sk, err := crypto.NewKeypair(nil)
	require.NoError(t, err)

	txn := &Transaction{
		Calls: []ContractCall{
			{ContractID: common.DeriveContractID("money"), Data: []byte{0x04, 0x01, 0x02}},
			{ContractID: common.DeriveContractID("money"), Data: []byte{0x01, 0x03}},
		},
		Proofs: [][]zk.Proof{nil, nil},
	}
	require.NoError(t, txn.CreateSigs([][]crypto.SecretKey{{sk}, nil}))
	return txn, pub
}

func TestTransactionHashStable(t *testing.T) {
	txn, _ := testTransaction(t)
	require.Equal(t, txn.Hash(), txn.Hash())

	enc, err := txn.EncodeToBytes()
	require.NoError(t, err)
	decoded, err := DecodeTransaction(enc)
	require.NoError(t, err)
	require.Equal(t, txn.Hash(), decoded.Hash())
}

func TestVerifySigs(t *testing.T) {
	txn, pub := testTransaction(t)
	sigTable := [][]crypto.PublicKey{{pub}, nil}
	require.NoError(t, txn.VerifySigs(sigTable))

	// Tampered signature fails.
	txn.Signatures[0][0][0] ^= 0xff
	err := txn.VerifySigs(sigTable)
	require.ErrorIs(t, err, txerrors.ErrVInvalidSignature)
}

func TestVerifySigsCountMismatch(t *testing.T) {
	txn, pub := testTransaction(t)

	// Metadata wants two keys on call 0, the transaction carries one.
	// A count mismatch is a missing signature, not a bad one.
	otherPub, _, err := crypto.NewKeypair(nil)
	require.NoError(t, err)
	err = txn.VerifySigs([][]crypto.PublicKey{{pub, otherPub}, nil})
	require.ErrorIs(t, err, txerrors.ErrVMissingSignatures)
}

func TestSigningHashExcludesSignatures(t *testing.T) {
	txn, _ := testTransaction(t)
	before, err := txn.SigningHash()
	require.NoError(t, err)

	txn.Signatures[0][0][0] ^= 0xff
	after, err := txn.SigningHash()
	require.NoError(t, err)
	require.Equal(t, before, after)

	// But the content hash covers them.
	txn2, _ := testTransaction(t)
	h := txn2.Hash()
	txn2.Signatures[0][0][0] ^= 0xff
	require.NotEqual(t, h, txn2.Hash())
}

func TestPayloadRoundtrip(t *testing.T) {
	calls := []ContractCall{
		{ContractID: common.DeriveContractID("money"), Data: []byte{0x04}},
		{ContractID: common.DeriveContractID("consensus"), Data: []byte{0x01}},
	}

	payload, err := EncodePayload(1, calls)
	require.NoError(t, err)

	callIdx, decoded, err := DecodePayload(payload)
	require.NoError(t, err)
	require.Equal(t, uint32(1), callIdx)
	require.Equal(t, calls, decoded)
}

func TestPayloadIndexOutOfRange(t *testing.T) {
	calls := []ContractCall{{ContractID: common.DeriveContractID("money"), Data: []byte{0x04}}}
	payload, err := EncodePayload(5, calls)
	require.NoError(t, err)

	_, _, err = DecodePayload(payload)
	require.ErrorIs(t, err, txerrors.ErrVDecode)
}

func TestCallMetadataRoundtrip(t *testing.T) {
	pub, _, err := crypto.NewKeypair(nil)
	require.NoError(t, err)

	meta := &CallMetadata{
		ZkInputs: []zk.PublicInputs{{Namespace: "Mint_V1", Inputs: [][]byte{[]byte("coin")}}},
		SigKeys:  []crypto.PublicKey{pub},
	}
	enc, err := meta.Encode()
	require.NoError(t, err)

	decoded, err := DecodeCallMetadata(enc)
	require.NoError(t, err)
	require.Equal(t, meta.ZkInputs, decoded.ZkInputs)
	require.Equal(t, meta.SigKeys, decoded.SigKeys)
}
