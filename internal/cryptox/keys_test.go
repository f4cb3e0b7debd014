package cryptox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPairOnce sync.Once
	testPair     *KeyPair
)

// testKeyPair generates one RSA key pair per test binary run.
func testKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	testPairOnce.Do(func() {
		pair, err := GenerateKeyPair()
		if err != nil {
			t.Fatalf("generating test key pair: %v", err)
		}
		testPair = pair
	})
	return testPair
}

func TestGenerateKeyPair(t *testing.T) {
	pair := testKeyPair(t)
	assert.True(t, pair.Private.Public().Equal(pair.Public))
}

func TestPublicKeyEncrypt_PrivateKeyDecrypt(t *testing.T) {
	pair := testKeyPair(t)

	plaintext := []byte("small secret")
	ciphertext, err := pair.Public.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	recovered, err := pair.Private.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestZeroKeysRejectOperations(t *testing.T) {
	_, err := PublicKey{}.Encrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrNotPublicKey)

	_, err = PrivateKey{}.Decrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrNotPrivateKey)

	_, err = ExportPublicKey(PublicKey{})
	assert.ErrorIs(t, err, ErrNotPublicKey)

	_, err = ExportPrivateKey(PrivateKey{})
	assert.ErrorIs(t, err, ErrNotPrivateKey)
}

func TestNewSymmetricKey(t *testing.T) {
	k1 := NewSymmetricKey()
	k2 := NewSymmetricKey()
	assert.Len(t, []byte(k1), FileKeySize)
	assert.NotEqual(t, k1, k2)

	k1.Wipe()
	assert.Equal(t, make([]byte, FileKeySize), []byte(k1))
}
