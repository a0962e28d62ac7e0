package envelope

import (
	"crypto/rand"

	"github.com/cloudflare/circl/hpke"

	dErrors "attestry/pkg/domain-errors"
)

// hpkeInfo domain-separates this application's HPKE contexts.
var hpkeInfo = []byte("attestry/envelope/hpke")

func hpkeSuite() (hpke.Suite, hpke.KEM) {
	kem := hpke.KEM_X25519_HKDF_SHA256
	return hpke.NewSuite(kem, hpke.KDF_HKDF_SHA256, hpke.AEAD_ChaCha20Poly1305), kem
}

func sealHPKE(plaintext []byte, recipient PublicKey) ([]byte, error) {
	suite, kem := hpkeSuite()
	pk, err := kem.Scheme().UnmarshalBinaryPublicKey(recipient.Slice())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "recipient key is unusable")
	}

	sender, err := suite.NewSender(pk, hpkeInfo)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create hpke sender")
	}
	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hpke setup")
	}
	ciphertext, err := sealer.Seal(plaintext, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hpke seal")
	}

	out := make([]byte, 0, 1+len(enc)+len(ciphertext))
	out = append(out, byte(VersionHPKE))
	out = append(out, enc...)
	out = append(out, ciphertext...)
	return out, nil
}

func openHPKE(body []byte, key PrivateKey) ([]byte, error) {
	suite, kem := hpkeSuite()
	encSize := kem.Scheme().CiphertextSize()
	if len(body) < encSize {
		return nil, dErrors.New(dErrors.CodeDecryption, "envelope is truncated")
	}

	sk, err := kem.Scheme().UnmarshalBinaryPrivateKey(key.Slice())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecryption, "private key is unusable")
	}
	receiver, err := suite.NewReceiver(sk, hpkeInfo)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecryption, "create hpke receiver")
	}
	opener, err := receiver.Setup(body[:encSize])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecryption, "hpke setup")
	}

	plaintext, err := opener.Open(body[encSize:], nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecryption, "envelope authentication failed")
	}
	return plaintext, nil
}
