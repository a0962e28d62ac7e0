// Package domain holds value types shared across attestry service boundaries.
package domain

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/mr-tron/base58"

	dErrors "attestry/pkg/domain-errors"
)

// principalVersion prefixes every encoded principal. Changing it would make
// all existing principals unparseable, so it is fixed for the address format.
const principalVersion = 0x17

const (
	principalHashSize     = 20
	principalChecksumSize = 4
	principalDecodedSize  = 1 + principalHashSize + principalChecksumSize
)

// Principal is the base58check account address of an actor: one version
// byte, a 20-byte hash of the actor's public key, and a 4-byte checksum.
// Invariant: a non-zero Principal always round-trips through ParsePrincipal.
//
// Usage: construct via PrincipalFromPublicKey when keys are in hand, or via
// ParsePrincipal at trust boundaries; direct casting bypasses validation.
type Principal string

// PrincipalFromPublicKey derives the address of a 32-byte public key.
//
// Errors: returns CodeInvalidInput when the key is not 32 bytes.
func PrincipalFromPublicKey(pub []byte) (Principal, error) {
	if len(pub) != 32 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "public key must be 32 bytes")
	}
	digest := sha256.Sum256(pub)

	payload := make([]byte, 0, principalDecodedSize)
	payload = append(payload, principalVersion)
	payload = append(payload, digest[:principalHashSize]...)
	payload = append(payload, checksum(payload)...)
	return Principal(base58.Encode(payload)), nil
}

// ParsePrincipal constructs a Principal from external input.
//
// Usage: call from handlers/adapters when parsing requests.
//
// Errors: returns CodeInvalidInput when the value is empty, not base58, the
// wrong length, the wrong version, or fails its checksum.
func ParsePrincipal(s string) (Principal, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal is not valid base58")
	}
	if len(raw) != principalDecodedSize {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal has wrong length")
	}
	if raw[0] != principalVersion {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal has wrong version byte")
	}
	body, sum := raw[:1+principalHashSize], raw[1+principalHashSize:]
	if subtle.ConstantTimeCompare(sum, checksum(body)) != 1 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal checksum mismatch")
	}
	return Principal(s), nil
}

// IsZero reports whether p is the empty principal.
func (p Principal) IsZero() bool {
	return p == ""
}

// String returns the base58check representation.
func (p Principal) String() string {
	return string(p)
}

// checksum is the first four bytes of a double SHA-256 over data.
func checksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:principalChecksumSize]
}
