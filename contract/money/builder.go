package money

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggreptile/darkfi/blockchain"
	"github.com/ggreptile/darkfi/crypto"
	"github.com/ggreptile/darkfi/zk"
)

// OwnCoin is a coin the wallet can spend: the note values plus the
// secrets needed to derive its nullifier and sign the spend.
type OwnCoin struct {
	Value      uint64
	Serial     [32]byte
	Secret     [32]byte
	SignSecret crypto.SecretKey
}

// Coin derives the coin commitment.
func (oc *OwnCoin) Coin() crypto.Coin {
	return crypto.NewCoin(oc.SignSecret.PublicKey(), oc.Value, crypto.NativeTokenID, oc.Serial)
}

// Nullifier derives the coin's nullifier.
func (oc *OwnCoin) Nullifier() crypto.Nullifier {
	return crypto.NewNullifier(oc.Secret, oc.Serial)
}

// CallDebris is what a builder leaves behind: the call parameters, the
// proofs in metadata order (burns then mints) and the secrets that must
// sign the transaction.
type CallDebris struct {
	Params           interface{}
	Proofs           []zk.Proof
	SignatureSecrets []crypto.SecretKey
}

// Encode serializes the call data: function discriminant byte followed
// by the RLP params.
func (d *CallDebris) Encode(fn byte) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(d.Params)
	if err != nil {
		return nil, err
	}
	return append([]byte{fn}, enc...), nil
}

// FeeCallBuilder assembles a Money::FeeV1 call spending own coins,
// with any surplus over the fee returned as a change output.
type FeeCallBuilder struct {
	Chain        *blockchain.Blockchain
	Coins        []OwnCoin
	FeeValue     uint64
	ChangePub    crypto.PublicKey
	ChangeSerial [32]byte
}

func (b *FeeCallBuilder) Build() (*CallDebris, error) {
	root, err := b.Chain.MerkleRoot(contractID, TreeInfo, []byte(KeyCoinMerkleTree))
	if err != nil {
		return nil, err
	}
	vkBurn, err := b.Chain.GetZkas(contractID, ZkasBurnNsV1)
	if err != nil {
		return nil, err
	}
	vkMint, err := b.Chain.GetZkas(contractID, ZkasMintNsV1)
	if err != nil {
		return nil, err
	}

	tokenBlind := crypto.NewBlind()
	tokenCommit := crypto.PedersenCommitBase(crypto.NativeTokenID.Element(), tokenBlind)

	params := &FeeParamsV1{FeeValue: b.FeeValue, TokenBlind: tokenBlind}
	debris := &CallDebris{}

	var inputsValue uint64
	var inBlinds, outBlinds []crypto.Blind
	for i := range b.Coins {
		if inputsValue >= b.FeeValue {
			break
		}
		coin := &b.Coins[i]
		inputsValue += coin.Value

		blind := crypto.NewBlind()
		inBlinds = append(inBlinds, blind)

		input := Input{
			ValueCommit:     crypto.PedersenCommitUint64(coin.Value, blind),
			TokenCommit:     tokenCommit,
			Nullifier:       coin.Nullifier(),
			MerkleRoot:      root,
			SignaturePublic: coin.SignSecret.PublicKey(),
		}
		params.Inputs = append(params.Inputs, input)
		debris.SignatureSecrets = append(debris.SignatureSecrets, coin.SignSecret)
	}
	if inputsValue < b.FeeValue {
		return nil, fmt.Errorf("not enough coins to cover fee %d", b.FeeValue)
	}

	if change := inputsValue - b.FeeValue; change > 0 {
		blind := crypto.NewBlind()
		outBlinds = append(outBlinds, blind)
		output := Output{
			ValueCommit: crypto.PedersenCommitUint64(change, blind),
			TokenCommit: tokenCommit,
			Coin:        crypto.NewCoin(b.ChangePub, change, crypto.NativeTokenID, b.ChangeSerial),
		}
		params.Outputs = append(params.Outputs, output)
	}

	// The fee blind is the remainder so the call balances to identity.
	params.FeeValueBlind = crypto.SubBlind(crypto.SumBlinds(inBlinds...), crypto.SumBlinds(outBlinds...))

	for i := range params.Inputs {
		debris.Proofs = append(debris.Proofs, zk.Prove(vkBurn, BurnPublicInputs(&params.Inputs[i]).Inputs))
	}
	for i := range params.Outputs {
		debris.Proofs = append(debris.Proofs, zk.Prove(vkMint, MintPublicInputs(&params.Outputs[i]).Inputs))
	}

	debris.Params = params
	return debris, nil
}

// FaucetFeeCallBuilder assembles a zero-cost Money::FeeV1 call signed
// by an allowlisted faucet key: a single conjured input covering the
// fee exactly, no outputs.
type FaucetFeeCallBuilder struct {
	Chain        *blockchain.Blockchain
	FaucetSecret crypto.SecretKey
	FeeValue     uint64
}

func (b *FaucetFeeCallBuilder) Build() (*CallDebris, error) {
	root, err := b.Chain.MerkleRoot(contractID, TreeInfo, []byte(KeyCoinMerkleTree))
	if err != nil {
		return nil, err
	}
	vkBurn, err := b.Chain.GetZkas(contractID, ZkasBurnNsV1)
	if err != nil {
		return nil, err
	}

	tokenBlind := crypto.NewBlind()
	blind := crypto.NewBlind()

	input := Input{
		ValueCommit:     crypto.PedersenCommitUint64(b.FeeValue, blind),
		TokenCommit:     crypto.PedersenCommitBase(crypto.NativeTokenID.Element(), tokenBlind),
		Nullifier:       crypto.NewNullifier(crypto.NewSerial(), crypto.NewSerial()),
		MerkleRoot:      root,
		SignaturePublic: b.FaucetSecret.PublicKey(),
	}

	params := &FeeParamsV1{
		Inputs:        []Input{input},
		FeeValue:      b.FeeValue,
		FeeValueBlind: blind,
		TokenBlind:    tokenBlind,
	}

	return &CallDebris{
		Params:           params,
		Proofs:           []zk.Proof{zk.Prove(vkBurn, BurnPublicInputs(&params.Inputs[0]).Inputs)},
		SignatureSecrets: []crypto.SecretKey{b.FaucetSecret},
	}, nil
}

// TransferRecipient is one requested transfer output.
type TransferRecipient struct {
	Value  uint64
	Pub    crypto.PublicKey
	Serial [32]byte
}

// TransferCallBuilder assembles a Money::TransferV1 call. With a
// FaucetSecret set it conjures a single faucet input covering the
// outputs; otherwise it spends own coins, whose total must match the
// outputs exactly.
type TransferCallBuilder struct {
	Chain        *blockchain.Blockchain
	Coins        []OwnCoin
	Outputs      []TransferRecipient
	FaucetSecret crypto.SecretKey
}

func (b *TransferCallBuilder) Build() (*CallDebris, error) {
	root, err := b.Chain.MerkleRoot(contractID, TreeInfo, []byte(KeyCoinMerkleTree))
	if err != nil {
		return nil, err
	}
	vkBurn, err := b.Chain.GetZkas(contractID, ZkasBurnNsV1)
	if err != nil {
		return nil, err
	}
	vkMint, err := b.Chain.GetZkas(contractID, ZkasMintNsV1)
	if err != nil {
		return nil, err
	}

	var outputsValue uint64
	for _, out := range b.Outputs {
		outputsValue += out.Value
	}

	tokenBlind := crypto.NewBlind()
	tokenCommit := crypto.PedersenCommitBase(crypto.NativeTokenID.Element(), tokenBlind)

	params := &TransferParamsV1{TokenBlind: tokenBlind}
	debris := &CallDebris{}

	var inBlinds []crypto.Blind
	if b.FaucetSecret != nil {
		blind := crypto.NewBlind()
		inBlinds = append(inBlinds, blind)
		params.Inputs = append(params.Inputs, Input{
			ValueCommit:     crypto.PedersenCommitUint64(outputsValue, blind),
			TokenCommit:     tokenCommit,
			Nullifier:       crypto.NewNullifier(crypto.NewSerial(), crypto.NewSerial()),
			MerkleRoot:      root,
			SignaturePublic: b.FaucetSecret.PublicKey(),
		})
		debris.SignatureSecrets = append(debris.SignatureSecrets, b.FaucetSecret)
	} else {
		var inputsValue uint64
		for i := range b.Coins {
			coin := &b.Coins[i]
			inputsValue += coin.Value

			blind := crypto.NewBlind()
			inBlinds = append(inBlinds, blind)
			params.Inputs = append(params.Inputs, Input{
				ValueCommit:     crypto.PedersenCommitUint64(coin.Value, blind),
				TokenCommit:     tokenCommit,
				Nullifier:       coin.Nullifier(),
				MerkleRoot:      root,
				SignaturePublic: coin.SignSecret.PublicKey(),
			})
			debris.SignatureSecrets = append(debris.SignatureSecrets, coin.SignSecret)
		}
		if inputsValue != outputsValue {
			return nil, fmt.Errorf("transfer inputs %d do not match outputs %d", inputsValue, outputsValue)
		}
	}

	// All output blinds are random except the last, which is the
	// remainder balancing the call to identity.
	inSum := crypto.SumBlinds(inBlinds...)
	var outBlinds []crypto.Blind
	for i, out := range b.Outputs {
		var blind crypto.Blind
		if i == len(b.Outputs)-1 {
			blind = crypto.SubBlind(inSum, crypto.SumBlinds(outBlinds...))
		} else {
			blind = crypto.NewBlind()
		}
		outBlinds = append(outBlinds, blind)
		params.Outputs = append(params.Outputs, Output{
			ValueCommit: crypto.PedersenCommitUint64(out.Value, blind),
			TokenCommit: tokenCommit,
			Coin:        crypto.NewCoin(out.Pub, out.Value, crypto.NativeTokenID, out.Serial),
		})
	}

	for i := range params.Inputs {
		debris.Proofs = append(debris.Proofs, zk.Prove(vkBurn, BurnPublicInputs(&params.Inputs[i]).Inputs))
	}
	for i := range params.Outputs {
		debris.Proofs = append(debris.Proofs, zk.Prove(vkMint, MintPublicInputs(&params.Outputs[i]).Inputs))
	}

	debris.Params = params
	return debris, nil
}
