// Package envelope seals byte payloads to a recipient's public key and opens
// them with the matching private key.
//
// Sealing is hybrid on purpose: an ephemeral key agreement derives a fresh
// symmetric AEAD key per call, so payload size is not bounded by an
// asymmetric block limit and ciphertexts are non-deterministic. Callers must
// never compare ciphertexts for equality; equal plaintexts seal to different
// bytes every time.
//
// Envelopes carry a leading version byte so stored ciphertexts stay readable
// as the scheme evolves. New envelopes use VersionHPKE.
package envelope

import (
	dErrors "attestry/pkg/domain-errors"
)

// Version selects the envelope layout and cipher suite.
type Version byte

const (
	// VersionSealedBox is the original layout: ephemeral X25519 agreement
	// feeding HKDF-SHA256, sealed with XChaCha20-Poly1305.
	VersionSealedBox Version = 0x01
	// VersionHPKE is RFC 9180 base mode with X25519-HKDF-SHA256,
	// HKDF-SHA256 and ChaCha20-Poly1305.
	VersionHPKE Version = 0x02
)

// DefaultVersion is used by Seal for new envelopes.
const DefaultVersion = VersionHPKE

// Seal encrypts plaintext to recipient under DefaultVersion.
func Seal(plaintext []byte, recipient PublicKey) ([]byte, error) {
	return SealVersion(DefaultVersion, plaintext, recipient)
}

// SealVersion encrypts plaintext to recipient under an explicit version.
//
// Errors: CodeInvalidInput for an unknown version or unusable recipient key,
// CodeInternal when entropy or the underlying cipher fails.
func SealVersion(v Version, plaintext []byte, recipient PublicKey) ([]byte, error) {
	switch v {
	case VersionSealedBox:
		return sealSealedBox(plaintext, recipient)
	case VersionHPKE:
		return sealHPKE(plaintext, recipient)
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown envelope version")
	}
}

// Open decrypts an envelope with the recipient's private key, dispatching on
// the leading version byte.
//
// Errors: CodeDecryption when the envelope is empty, truncated, carries an
// unknown version, or fails authentication under key.
func Open(env []byte, key PrivateKey) ([]byte, error) {
	if len(env) < 1 {
		return nil, dErrors.New(dErrors.CodeDecryption, "envelope is empty")
	}
	switch Version(env[0]) {
	case VersionSealedBox:
		return openSealedBox(env[1:], key)
	case VersionHPKE:
		return openHPKE(env[1:], key)
	default:
		return nil, dErrors.New(dErrors.CodeDecryption, "unknown envelope version")
	}
}
