package envelope

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	dErrors "attestry/pkg/domain-errors"
)

// sealedBoxInfo domain-separates the HKDF expansion from any other use of
// the same key agreement.
var sealedBoxInfo = []byte("attestry/envelope/sealedbox")

// Layout after the version byte: ephemeral public key (32), XChaCha20
// nonce (24), AEAD ciphertext with trailing tag.
const sealedBoxOverhead = KeySize + chacha20poly1305.NonceSizeX

func sealSealedBox(plaintext []byte, recipient PublicKey) ([]byte, error) {
	ephPriv, ephPub, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	aead, err := sealedBoxAEAD(ephPriv, recipient, ephPub)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "recipient key is unusable")
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate nonce")
	}

	out := make([]byte, 0, 1+sealedBoxOverhead+len(plaintext)+aead.Overhead())
	out = append(out, byte(VersionSealedBox))
	out = append(out, ephPub[:]...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, []byte{byte(VersionSealedBox)}), nil
}

func openSealedBox(body []byte, key PrivateKey) ([]byte, error) {
	if len(body) < sealedBoxOverhead {
		return nil, dErrors.New(dErrors.CodeDecryption, "envelope is truncated")
	}
	ephPub, err := PublicKeyFromBytes(body[:KeySize])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecryption, "envelope is malformed")
	}
	nonce := body[KeySize:sealedBoxOverhead]
	ciphertext := body[sealedBoxOverhead:]

	recipient, err := key.Public()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecryption, "private key is unusable")
	}
	aead, err := recipientAEAD(key, ephPub, recipient)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecryption, "key agreement failed")
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte{byte(VersionSealedBox)})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecryption, "envelope authentication failed")
	}
	return plaintext, nil
}

// sealedBoxAEAD derives the sender-side AEAD from an ephemeral agreement
// with the recipient's public key.
func sealedBoxAEAD(ephPriv PrivateKey, recipient PublicKey, ephPub PublicKey) (cipher.AEAD, error) {
	shared, err := curve25519.X25519(ephPriv[:], recipient[:])
	if err != nil {
		return nil, err
	}
	return deriveAEAD(shared, ephPub, recipient)
}

// recipientAEAD derives the receiver-side AEAD from the recipient's private
// key and the envelope's ephemeral public key.
func recipientAEAD(key PrivateKey, ephPub PublicKey, recipient PublicKey) (cipher.AEAD, error) {
	shared, err := curve25519.X25519(key[:], ephPub[:])
	if err != nil {
		return nil, err
	}
	return deriveAEAD(shared, ephPub, recipient)
}

// deriveAEAD expands the shared secret into an XChaCha20-Poly1305 key. Both
// public keys enter the HKDF info so the key binds the exact exchange.
func deriveAEAD(shared []byte, ephPub, recipient PublicKey) (cipher.AEAD, error) {
	info := make([]byte, 0, len(sealedBoxInfo)+2*KeySize)
	info = append(info, sealedBoxInfo...)
	info = append(info, ephPub[:]...)
	info = append(info, recipient[:]...)

	kdf := hkdf.New(sha256.New, shared, nil, info)
	aeadKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, aeadKey); err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(aeadKey)
}
