package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitmentHomomorphism(t *testing.T) {
	ba := NewBlind()
	bb := NewBlind()

	ca := PedersenCommitUint64(100, ba)
	cb := PedersenCommitUint64(250, bb)

	sum := PedersenCommitUint64(350, AddBlind(ba, bb))
	require.True(t, ca.Add(cb).Equal(sum))

	// commit(a) + commit(b) - commit(a+b) opens to zero.
	require.True(t, ca.Add(cb).Sub(sum).IsIdentity())
}

func TestCommitmentHiding(t *testing.T) {
	c1 := PedersenCommitUint64(100, NewBlind())
	c2 := PedersenCommitUint64(100, NewBlind())
	require.False(t, c1.Equal(c2))
}

func TestCommitmentBinding(t *testing.T) {
	b := NewBlind()
	require.False(t, PedersenCommitUint64(100, b).Equal(PedersenCommitUint64(101, b)))
}

func TestCommitmentBytesRoundtrip(t *testing.T) {
	c := PedersenCommitUint64(42, NewBlind())
	decoded, err := CommitmentFromBytes(c.Bytes())
	require.NoError(t, err)
	require.True(t, c.Equal(decoded))
}

func TestBlindArithmetic(t *testing.T) {
	a := NewBlind()
	b := NewBlind()

	// (a + b) - b == a
	require.Equal(t, a, SubBlind(AddBlind(a, b), b))

	// Sum of nothing is the zero blind.
	require.Equal(t, ZeroBlind, SumBlinds())

	// A commitment to zero value under the zero blind is the identity.
	require.True(t, PedersenCommitUint64(0, ZeroBlind).IsIdentity())
}

func TestFeeBalanceLaw(t *testing.T) {
	// inputs - outputs - fee commits to zero when values and blinds
	// both balance, mirroring what the fee call enforces.
	inBlind := NewBlind()
	changeBlind := NewBlind()
	feeBlind := SubBlind(inBlind, changeBlind)

	input := PedersenCommitUint64(20000, inBlind)
	change := PedersenCommitUint64(10000, changeBlind)
	fee := PedersenCommitUint64(10000, feeBlind)

	require.True(t, input.Sub(change).Sub(fee).IsIdentity())

	badFee := PedersenCommitUint64(9999, feeBlind)
	require.False(t, input.Sub(change).Sub(badFee).IsIdentity())
}
