package stake

import (
	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/contract/money"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/zk"
)

// StakeCallBuilder assembles a Consensus::StakeV1 call for a coin that
// a preceding money call of the same transaction burns.
type StakeCallBuilder struct {
	Chain       *blockchain.Blockchain
	Coin        money.OwnCoin
	StakeSerial [32]byte
}

func (b *StakeCallBuilder) Build() (*money.CallDebris, error) {
	root, err := b.Chain.MerkleRoot(money.ContractID(), money.TreeInfo, []byte(money.KeyCoinMerkleTree))
	if err != nil {
		return nil, err
	}
	vkMint, err := b.Chain.GetZkas(contractID, ZkasMintNsV1)
	if err != nil {
		return nil, err
	}

	tokenBlind := crypto.NewBlind()
	tokenCommit := crypto.PedersenCommitBase(crypto.NativeTokenID.Element(), tokenBlind)

	// One blind for both sides: staking preserves the committed value.
	valueBlind := crypto.NewBlind()
	valueCommit := crypto.PedersenCommitUint64(b.Coin.Value, valueBlind)

	pub := b.Coin.SignSecret.PublicKey()
	params := &StakeParamsV1{
		Input: StakeInput{
			TokenBlind:      tokenBlind,
			ValueCommit:     valueCommit,
			TokenCommit:     tokenCommit,
			Nullifier:       b.Coin.Nullifier(),
			MerkleRoot:      root,
			SignaturePublic: pub,
		},
		Output: money.Output{
			ValueCommit: valueCommit,
			TokenCommit: tokenCommit,
			Coin:        crypto.NewCoin(pub, b.Coin.Value, crypto.NativeTokenID, b.StakeSerial),
		},
	}

	return &money.CallDebris{
		Params:           params,
		Proofs:           []zk.Proof{zk.Prove(vkMint, MintPublicInputs(&params.Output).Inputs)},
		SignatureSecrets: []crypto.SecretKey{b.Coin.SignSecret},
	}, nil
}
