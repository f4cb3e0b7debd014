package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/portalsend/internal/common"
)

const (
	// KDFIterations is the PBKDF2 iteration count. Stored data depends on
	// this value; changing it invalidates every wrapped private key.
	KDFIterations = 100_000

	// WrappingKeySize is the derived key length (AES-256).
	WrappingKeySize = 32

	// SaltSize is the KDF salt length, generated once per identity.
	SaltSize = 16
)

// DeriveWrappingKey derives the AES key that protects a private key in the
// vault from the user's master password and a per-identity random salt.
// PBKDF2-SHA256. Deterministic: the same password and salt always produce
// the same key, which is what lets a later unwrap reconstruct it.
//
// The KDF itself does no input validation; callers reject empty passwords
// before getting here.
func DeriveWrappingKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, KDFIterations, WrappingKeySize, sha256.New)
}

// NewSalt returns a fresh random KDF salt.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}
