package envelope

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/curve25519"

	dErrors "attestry/pkg/domain-errors"
)

// KeySize is the byte length of X25519 public and private keys.
const KeySize = 32

// PrivateKey is an X25519 scalar, clamped per RFC 7748.
type PrivateKey [KeySize]byte

// PublicKey is an X25519 curve point.
type PublicKey [KeySize]byte

func (k PrivateKey) Slice() []byte { return k[:] }
func (k PublicKey) Slice() []byte  { return k[:] }

// Public derives the public key for k.
func (k PrivateKey) Public() (PublicKey, error) {
	var pub PublicKey
	raw, err := curve25519.X25519(k[:], curve25519.Basepoint)
	if err != nil {
		return pub, dErrors.Wrap(err, dErrors.CodeInvalidInput, "derive public key")
	}
	copy(pub[:], raw)
	return pub, nil
}

// GenerateKeyPair returns a fresh X25519 key pair with the private scalar
// clamped per RFC 7748.
func GenerateKeyPair() (PrivateKey, PublicKey, error) {
	var priv PrivateKey
	if _, err := rand.Read(priv[:]); err != nil {
		return PrivateKey{}, PublicKey{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate private key")
	}
	clamp(&priv)
	pub, err := priv.Public()
	if err != nil {
		return PrivateKey{}, PublicKey{}, err
	}
	return priv, pub, nil
}

// PrivateKeyFromBytes copies a 32-byte scalar into a PrivateKey.
//
// Errors: CodeInvalidInput when b is not exactly 32 bytes.
func PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	var k PrivateKey
	if len(b) != KeySize {
		return k, dErrors.New(dErrors.CodeInvalidInput, "private key must be 32 bytes")
	}
	copy(k[:], b)
	return k, nil
}

// PublicKeyFromBytes copies a 32-byte curve point into a PublicKey.
//
// Errors: CodeInvalidInput when b is not exactly 32 bytes.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != KeySize {
		return k, dErrors.New(dErrors.CodeInvalidInput, "public key must be 32 bytes")
	}
	copy(k[:], b)
	return k, nil
}

// ParsePublicKey decodes a hex-encoded public key from external input.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, dErrors.New(dErrors.CodeInvalidInput, "public key is not valid hex")
	}
	return PublicKeyFromBytes(raw)
}

// ParsePrivateKey decodes a hex-encoded private key from external input.
func ParsePrivateKey(s string) (PrivateKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PrivateKey{}, dErrors.New(dErrors.CodeInvalidInput, "private key is not valid hex")
	}
	return PrivateKeyFromBytes(raw)
}

func clamp(k *PrivateKey) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
