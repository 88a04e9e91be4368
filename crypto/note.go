package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/ggreptile/darkfi/common"
)

// TokenID identifies a token type inside commitments. It is reduced
// into the scalar field before being committed to.
type TokenID [32]byte

// NativeTokenID is the token of the native currency contract. Only this
// token pays fees and only this token can be staked.
var NativeTokenID = deriveTokenID("DRK")

func deriveTokenID(ticker string) TokenID {
	var t TokenID
	copy(t[:], common.ComputeHash([]byte("token_id:"+ticker)))
	return t
}

// Element reduces the token ID into the scalar field.
func (t TokenID) Element() fr.Element {
	var e fr.Element
	e.SetBytes(t[:])
	return e
}

// Coin is a commitment to a newly created value unit. Set membership of
// a coin prevents double-mint.
type Coin [32]byte

// Nullifier is the one-time token derived from a spent coin. Set
// membership of a nullifier prevents double-spend.
type Nullifier [32]byte

func (c Coin) Bytes() []byte      { return c[:] }
func (n Nullifier) Bytes() []byte { return n[:] }

func (c Coin) Hex() string      { return common.Bytes2Hex(c[:]) }
func (n Nullifier) Hex() string { return common.Bytes2Hex(n[:]) }

// NewCoin derives the coin for a note. The derivation is a poseidon
// hash over the recipient key, value, token and serial, matching what
// the mint circuit constrains.
func NewCoin(pub PublicKey, value uint64, token TokenID, serial [32]byte) Coin {
	digest := poseidonHash(
		feBytes(pub[:]),
		new(big.Int).SetUint64(value),
		feBytes(token[:]),
		feBytes(serial[:]),
	)
	var c Coin
	copy(c[:], digest)
	return c
}

// NewNullifier derives the nullifier for a coin from the spender secret
// and the note serial, matching what the burn circuit constrains.
func NewNullifier(secret [32]byte, serial [32]byte) Nullifier {
	digest := poseidonHash(feBytes(secret[:]), feBytes(serial[:]))
	var n Nullifier
	copy(n[:], digest)
	return n
}

// NewSerial draws a random note serial.
func NewSerial() [32]byte {
	var s [32]byte
	if _, err := rand.Read(s[:]); err != nil {
		panic(fmt.Sprintf("serial: %v", err))
	}
	return s
}

// feBytes reduces arbitrary bytes into the poseidon field.
func feBytes(b []byte) *big.Int {
	var e fr.Element
	e.SetBytes(b)
	var out big.Int
	e.BigInt(&out)
	return &out
}

func poseidonHash(inputs ...*big.Int) []byte {
	digest, err := poseidon.Hash(inputs)
	if err != nil {
		panic(fmt.Sprintf("poseidon hash: %v", err))
	}
	out := make([]byte, 32)
	digest.FillBytes(out)
	return out
}
