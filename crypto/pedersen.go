package crypto

import (
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/rlp"
)

// Pedersen generators. Derived by hash-to-curve so nobody knows the
// discrete log relation between them.
var (
	genValue bn254.G1Affine
	genBlind bn254.G1Affine
)

func init() {
	var err error
	genValue, err = bn254.HashToG1([]byte("pedersen:value"), []byte("darkfi:generators"))
	if err != nil {
		panic(fmt.Sprintf("pedersen value generator: %v", err))
	}
	genBlind, err = bn254.HashToG1([]byte("pedersen:blind"), []byte("darkfi:generators"))
	if err != nil {
		panic(fmt.Sprintf("pedersen blind generator: %v", err))
	}
}

// Commitment is a homomorphic Pedersen commitment: value*G + blind*H on
// bn254 G1. Commitments to the same value under different blinds are
// unlinkable; sums and differences of commitments commit to the sums
// and differences of their values.
type Commitment struct {
	point bn254.G1Affine
}

// PedersenCommitUint64 commits to a 64-bit value under the given blind.
func PedersenCommitUint64(value uint64, blind Blind) Commitment {
	var v fr.Element
	v.SetUint64(value)
	return PedersenCommitBase(v, blind)
}

// PedersenCommitBase commits to an arbitrary field element under the
// given blind.
func PedersenCommitBase(value fr.Element, blind Blind) Commitment {
	var vBig, bBig big.Int
	value.BigInt(&vBig)
	be := blind.element()
	be.BigInt(&bBig)

	var vPart, bPart bn254.G1Affine
	vPart.ScalarMultiplication(&genValue, &vBig)
	bPart.ScalarMultiplication(&genBlind, &bBig)

	var acc bn254.G1Jac
	acc.FromAffine(&vPart)
	acc.AddMixed(&bPart)

	var c Commitment
	c.point.FromJacobian(&acc)
	return c
}

// Add returns the homomorphic sum of two commitments.
func (c Commitment) Add(o Commitment) Commitment {
	var acc bn254.G1Jac
	acc.FromAffine(&c.point)
	acc.AddMixed(&o.point)

	var out Commitment
	out.point.FromJacobian(&acc)
	return out
}

// Sub returns the homomorphic difference of two commitments.
func (c Commitment) Sub(o Commitment) Commitment {
	var neg bn254.G1Affine
	neg.Neg(&o.point)

	var acc bn254.G1Jac
	acc.FromAffine(&c.point)
	acc.AddMixed(&neg)

	var out Commitment
	out.point.FromJacobian(&acc)
	return out
}

// IsIdentity reports whether the commitment is the additive identity,
// i.e. commits to zero value under zero blind.
func (c Commitment) IsIdentity() bool {
	return c.point.IsInfinity()
}

// Equal reports point equality.
func (c Commitment) Equal(o Commitment) bool {
	return c.point.Equal(&o.point)
}

// Bytes returns the 32-byte compressed encoding.
func (c Commitment) Bytes() []byte {
	b := c.point.Bytes()
	return b[:]
}

// CommitmentFromBytes decodes a compressed commitment.
func CommitmentFromBytes(b []byte) (Commitment, error) {
	var c Commitment
	if _, err := c.point.SetBytes(b); err != nil {
		return Commitment{}, fmt.Errorf("decode commitment: %w", err)
	}
	return c, nil
}

// EncodeRLP implements rlp.Encoder.
func (c *Commitment) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, c.Bytes())
}

// DecodeRLP implements rlp.Decoder.
func (c *Commitment) DecodeRLP(s *rlp.Stream) error {
	raw, err := s.Bytes()
	if err != nil {
		return err
	}
	dec, err := CommitmentFromBytes(raw)
	if err != nil {
		return err
	}
	*c = dec
	return nil
}

// Blind is a commitment blinding factor, a big-endian bn254 scalar.
type Blind [32]byte

// NewBlind samples a random blinding factor.
func NewBlind() Blind {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		panic(fmt.Sprintf("sample blind: %v", err))
	}
	return Blind(e.Bytes())
}

// ZeroBlind is the zero blinding factor.
var ZeroBlind Blind

func (b Blind) element() fr.Element {
	var e fr.Element
	e.SetBytes(b[:])
	return e
}

// AddBlind returns a + b in the scalar field.
func AddBlind(a, b Blind) Blind {
	var ea, eb fr.Element
	ea = a.element()
	eb = b.element()
	ea.Add(&ea, &eb)
	return Blind(ea.Bytes())
}

// SubBlind returns a - b in the scalar field.
func SubBlind(a, b Blind) Blind {
	var ea, eb fr.Element
	ea = a.element()
	eb = b.element()
	ea.Sub(&ea, &eb)
	return Blind(ea.Bytes())
}

// SumBlinds folds AddBlind over the given blinds.
func SumBlinds(blinds ...Blind) Blind {
	var acc Blind
	for _, b := range blinds {
		acc = AddBlind(acc, b)
	}
	return acc
}
