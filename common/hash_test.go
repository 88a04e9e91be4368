package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashHexRoundtrip(t *testing.T) {
	h := Blake2Hash([]byte("payload"))
	require.Equal(t, h, HexToHash(h.Hex()))
	require.Len(t, h.Bytes(), 32)
}

func TestComputeHashDeterministic(t *testing.T) {
	require.Equal(t, ComputeHash([]byte("a")), ComputeHash([]byte("a")))
	require.NotEqual(t, ComputeHash([]byte("a")), ComputeHash([]byte("b")))
}

func TestUintCodecs(t *testing.T) {
	require.Equal(t, uint64(0), BytesToUint64(Uint64ToBytes(0)))
	require.Equal(t, uint64(1<<63+7), BytesToUint64(Uint64ToBytes(1<<63+7)))
	require.Equal(t, uint32(42), BytesToUint32(Uint32ToBytes(42)))
}

func TestContractIDDerivation(t *testing.T) {
	money := DeriveContractID("money")
	require.Equal(t, money, DeriveContractID("money"))
	require.NotEqual(t, money, DeriveContractID("consensus"))
	require.Equal(t, money, BytesToContractID(money.Bytes()))
}
