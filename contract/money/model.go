package money

import (
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/zk"
)

// Input is one anonymous input: a fresh commitment pair to the spent
// coin's value and token, the coin's nullifier, the claimed inclusion
// root, and the key that must sign the transaction for this spend.
type Input struct {
	ValueCommit     crypto.Commitment
	TokenCommit     crypto.Commitment
	Nullifier       crypto.Nullifier
	MerkleRoot      common.Hash
	UserDataEnc     [32]byte
	SignaturePublic crypto.PublicKey
}

// Output is one anonymous output: the minted coin with its commitment
// pair and an opaque encrypted note for the recipient.
type Output struct {
	ValueCommit crypto.Commitment
	TokenCommit crypto.Commitment
	Coin        crypto.Coin
	Note        []byte
}

// FeeParamsV1 are the parameters of Money::FeeV1.
type FeeParamsV1 struct {
	Inputs        []Input
	Outputs       []Output
	FeeValue      uint64
	FeeValueBlind crypto.Blind
	TokenBlind    crypto.Blind
}

// FeeUpdateV1 is the state delta of an accepted fee call.
type FeeUpdateV1 struct {
	Nullifiers []crypto.Nullifier
	Coins      []crypto.Coin
	FeeValue   uint64
}

// TransferParamsV1 are the parameters of Money::TransferV1.
type TransferParamsV1 struct {
	Inputs     []Input
	Outputs    []Output
	TokenBlind crypto.Blind
}

// TransferUpdateV1 is the state delta of an accepted transfer call.
type TransferUpdateV1 struct {
	Nullifiers []crypto.Nullifier
	Coins      []crypto.Coin
}

// BurnPublicInputs orders the public inputs the burn circuit constrains
// for one input.
func BurnPublicInputs(in *Input) zk.PublicInputs {
	return zk.PublicInputs{
		Namespace: ZkasBurnNsV1,
		Inputs: [][]byte{
			in.Nullifier.Bytes(),
			in.ValueCommit.Bytes(),
			in.TokenCommit.Bytes(),
			in.MerkleRoot.Bytes(),
			in.UserDataEnc[:],
			in.SignaturePublic.Bytes(),
		},
	}
}

// MintPublicInputs orders the public inputs the mint circuit constrains
// for one output.
func MintPublicInputs(out *Output) zk.PublicInputs {
	return zk.PublicInputs{
		Namespace: ZkasMintNsV1,
		Inputs: [][]byte{
			out.Coin.Bytes(),
			out.ValueCommit.Bytes(),
			out.TokenCommit.Bytes(),
		},
	}
}
