package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The zero salt keeps the scenario reproducible; production salts come from
// NewSalt.
func TestWrapUnwrapPrivateKey_RoundTrip(t *testing.T) {
	pair := testKeyPair(t)
	password := []byte("correct horse battery staple")
	salt := make([]byte, SaltSize)

	ciphertext, iv, err := WrapPrivateKey(pair.Private, password, salt)
	require.NoError(t, err)
	assert.Len(t, iv, VaultIVSize)

	recovered, err := UnwrapPrivateKey(ciphertext, password, salt, iv)
	require.NoError(t, err)

	wantExported, err := ExportPrivateKey(pair.Private)
	require.NoError(t, err)
	gotExported, err := ExportPrivateKey(recovered)
	require.NoError(t, err)
	assert.Equal(t, wantExported, gotExported, "recovered key's exported form must string-equal the original")
}

func TestUnwrapPrivateKey_WrongPassword(t *testing.T) {
	pair := testKeyPair(t)
	salt := NewSalt()

	ciphertext, iv, err := WrapPrivateKey(pair.Private, []byte("password-one"), salt)
	require.NoError(t, err)

	_, err = UnwrapPrivateKey(ciphertext, []byte("password-two"), salt, iv)
	assert.ErrorIs(t, err, ErrIncorrectPassword,
		"wrong password must surface as the incorrect-password condition, never a valid-looking key")
}

func TestUnwrapPrivateKey_TamperedCiphertext(t *testing.T) {
	pair := testKeyPair(t)
	password := []byte("pw")
	salt := NewSalt()

	ciphertext, iv, err := WrapPrivateKey(pair.Private, password, salt)
	require.NoError(t, err)

	ciphertext[0] ^= 0xff
	_, err = UnwrapPrivateKey(ciphertext, password, salt, iv)
	assert.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestWrapPrivateKey_FreshIVPerCall(t *testing.T) {
	pair := testKeyPair(t)
	password := []byte("pw")
	salt := NewSalt()

	_, iv1, err := WrapPrivateKey(pair.Private, password, salt)
	require.NoError(t, err)
	_, iv2, err := WrapPrivateKey(pair.Private, password, salt)
	require.NoError(t, err)

	assert.NotEqual(t, iv1, iv2)
}

func TestUnwrapPrivateKey_BadIVLength(t *testing.T) {
	pair := testKeyPair(t)
	password := []byte("pw")
	salt := NewSalt()

	ciphertext, _, err := WrapPrivateKey(pair.Private, password, salt)
	require.NoError(t, err)

	_, err = UnwrapPrivateKey(ciphertext, password, salt, []byte("short"))
	assert.ErrorContains(t, err, "vault iv")
}
