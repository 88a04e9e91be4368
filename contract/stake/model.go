package stake

import (
	"github.com/ggreptile/darkfi/common"
	"github.com/ggreptile/darkfi/contract/money"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/zk"
)

// StakeInput references the money coin being staked. The token blind is
// revealed so the contract can check the commitments open to the native
// token, and the nullifier must already be spent on the money side by
// an earlier call of the same transaction.
type StakeInput struct {
	TokenBlind      crypto.Blind
	ValueCommit     crypto.Commitment
	TokenCommit     crypto.Commitment
	Nullifier       crypto.Nullifier
	MerkleRoot      common.Hash
	SignaturePublic crypto.PublicKey
}

// StakeParamsV1 are the parameters of Consensus::StakeV1. The output is
// the staked coin minted into the consensus set.
type StakeParamsV1 struct {
	Input  StakeInput
	Output money.Output
}

// StakeUpdateV1 is the state delta of an accepted stake call.
type StakeUpdateV1 struct {
	Coin crypto.Coin
}

// MintPublicInputs orders the public inputs the consensus mint circuit
// constrains for the staked output.
func MintPublicInputs(out *money.Output) zk.PublicInputs {
	return zk.PublicInputs{
		Namespace: ZkasMintNsV1,
		Inputs: [][]byte{
			out.Coin.Bytes(),
			out.ValueCommit.Bytes(),
			out.TokenCommit.Bytes(),
		},
	}
}
