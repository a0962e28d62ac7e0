package envelope

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attestry/pkg/domain-errors"
)

var versions = []struct {
	name string
	v    Version
}{
	{"sealedbox", VersionSealedBox},
	{"hpke", VersionHPKE},
}

func TestSealOpenRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	payloads := map[string][]byte{
		"empty":    {},
		"short":    []byte("passport scan"),
		"large":    randomBytes(t, 1<<20),
		"all-zero": make([]byte, 4096),
	}

	for _, ver := range versions {
		t.Run(ver.name, func(t *testing.T) {
			for name, plaintext := range payloads {
				sealed, err := SealVersion(ver.v, plaintext, pub)
				require.NoError(t, err, name)
				require.NotEmpty(t, sealed, name)
				assert.Equal(t, byte(ver.v), sealed[0], name)

				opened, err := Open(sealed, priv)
				require.NoError(t, err, name)
				assert.True(t, bytes.Equal(plaintext, opened), name)
			}
		})
	}
}

func TestSealIsNonDeterministic(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	plaintext := []byte("same bytes in, different bytes out")

	for _, ver := range versions {
		t.Run(ver.name, func(t *testing.T) {
			first, err := SealVersion(ver.v, plaintext, pub)
			require.NoError(t, err)
			second, err := SealVersion(ver.v, plaintext, pub)
			require.NoError(t, err)
			assert.NotEqual(t, first, second)
		})
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	wrongPriv, _, err := GenerateKeyPair()
	require.NoError(t, err)

	for _, ver := range versions {
		t.Run(ver.name, func(t *testing.T) {
			sealed, err := SealVersion(ver.v, []byte("secret"), pub)
			require.NoError(t, err)

			_, err = Open(sealed, wrongPriv)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeDecryption))
		})
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	for _, ver := range versions {
		t.Run(ver.name, func(t *testing.T) {
			sealed, err := SealVersion(ver.v, []byte("audited content"), pub)
			require.NoError(t, err)

			tampered := append([]byte(nil), sealed...)
			tampered[len(tampered)-1] ^= 0x01

			_, err = Open(tampered, priv)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeDecryption))
		})
	}
}

func TestOpenRejectsMalformedEnvelopes(t *testing.T) {
	priv, _, err := GenerateKeyPair()
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":               {},
		"unknown version":     {0x7f, 1, 2, 3},
		"truncated sealedbox": {byte(VersionSealedBox), 1, 2, 3},
		"truncated hpke":      {byte(VersionHPKE), 1, 2, 3},
	}
	for name, env := range cases {
		_, err := Open(env, priv)
		require.Error(t, err, name)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDecryption), name)
	}
}

func TestVersionsAreNotInterchangeable(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	sealed, err := SealVersion(VersionSealedBox, []byte("pinned"), pub)
	require.NoError(t, err)

	// Relabeling the envelope as the other suite must not open cleanly.
	sealed[0] = byte(VersionHPKE)
	_, err = Open(sealed, priv)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDecryption))
}

func TestDefaultVersionIsHPKE(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	sealed, err := Seal([]byte("x"), pub)
	require.NoError(t, err)
	assert.Equal(t, byte(VersionHPKE), sealed[0])
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}
