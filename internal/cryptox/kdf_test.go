package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveWrappingKey_Deterministic(t *testing.T) {
	password := []byte("correct horse battery staple")
	salt := make([]byte, SaltSize)

	key1 := DeriveWrappingKey(password, salt)
	key2 := DeriveWrappingKey(password, salt)

	assert.Equal(t, key1, key2, "same inputs must yield bit-identical keys")
	assert.Len(t, key1, WrappingKeySize)
}

func TestDeriveWrappingKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveWrappingKey(password, []byte("salt-1-salt-1-s1"))
	key2 := DeriveWrappingKey(password, []byte("salt-2-salt-2-s2"))
	assert.NotEqual(t, key1, key2, "different salts must yield different keys")

	key3 := DeriveWrappingKey([]byte("other-password"), []byte("salt-1-salt-1-s1"))
	assert.NotEqual(t, key1, key3, "different passwords must yield different keys")
}

func TestNewSalt(t *testing.T) {
	s1 := NewSalt()
	s2 := NewSalt()
	assert.Len(t, s1, SaltSize)
	assert.NotEqual(t, s1, s2)
}
