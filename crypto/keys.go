package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/ggreptile/darkfi/common"
)

const (
	PublicKeySize = ed25519.PublicKeySize
	SignatureSize = ed25519.SignatureSize
)

// PublicKey is an ed25519 public key used to verify transaction
// signatures collected from call metadata.
type PublicKey [PublicKeySize]byte

// SecretKey is an ed25519 private key.
type SecretKey ed25519.PrivateKey

// Signature is an ed25519 signature over the transaction's call data.
type Signature [SignatureSize]byte

// NewKeypair derives a keypair from a 32-byte seed. A nil seed samples
// a fresh random one.
func NewKeypair(seed []byte) (PublicKey, SecretKey, error) {
	if seed == nil {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return PublicKey{}, nil, err
		}
	}
	if len(seed) != ed25519.SeedSize {
		return PublicKey{}, nil, fmt.Errorf("seed length must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var pub PublicKey
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return pub, SecretKey(priv), nil
}

// PublicKey returns the public half of the secret key.
func (sk SecretKey) PublicKey() PublicKey {
	var pub PublicKey
	copy(pub[:], ed25519.PrivateKey(sk).Public().(ed25519.PublicKey))
	return pub
}

// Sign signs the message.
func (sk SecretKey) Sign(msg []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(ed25519.PrivateKey(sk), msg))
	return sig
}

// Verify reports whether sig is a valid signature of msg under pk.
func (pk PublicKey) Verify(msg []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pk[:]), msg, sig[:])
}

func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

func (pk PublicKey) Hex() string {
	return common.Bytes2Hex(pk[:])
}

func (pk PublicKey) String() string {
	return pk.Hex()
}

func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.Hex())
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	b := common.Hex2Bytes(hexStr)
	if len(b) != PublicKeySize {
		return fmt.Errorf("invalid public key length %d", len(b))
	}
	copy(pk[:], b)
	return nil
}

// HexToPublicKey parses a hex-encoded public key.
func HexToPublicKey(hexStr string) (PublicKey, error) {
	var pk PublicKey
	b := common.Hex2Bytes(hexStr)
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("invalid public key length %d", len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

func (s Signature) Bytes() []byte {
	return s[:]
}
