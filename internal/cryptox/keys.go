package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/common"
)

const (
	// FileKeySize is the per-file symmetric key length (AES-256).
	FileKeySize = 32

	rsaKeyBits = 2048
)

var (
	ErrNotSymmetricKey = errors.New("not a symmetric key")
	ErrNotPublicKey    = errors.New("not a public key")
	ErrNotPrivateKey   = errors.New("not a private key")
)

// SymmetricKey is an AES key. The distinct type keeps a symmetric key from
// being passed where an asymmetric key is expected and vice versa.
type SymmetricKey []byte

// NewSymmetricKey returns a fresh random 256-bit key.
func NewSymmetricKey() SymmetricKey {
	return SymmetricKey(common.GenerateRandByteArray(FileKeySize))
}

// Wipe zeroes the key material.
func (k SymmetricKey) Wipe() {
	common.WipeByteArray(k)
}

// PublicKey is the encrypt-only half of an identity's RSA-OAEP key pair.
type PublicKey struct {
	key *rsa.PublicKey
}

// PrivateKey is the decrypt half of an identity's RSA-OAEP key pair. It must
// never leave the client except wrapped by the vault.
type PrivateKey struct {
	key *rsa.PrivateKey
}

// KeyPair bundles both halves of one identity's keys.
type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// GenerateKeyPair creates a new RSA-OAEP key pair (2048-bit modulus, public
// exponent 65537, SHA-256). Key generation runs on the client device; doing
// it anywhere else voids the zero-knowledge property.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}
	return &KeyPair{
		Public:  PublicKey{key: &key.PublicKey},
		Private: PrivateKey{key: key},
	}, nil
}

// Public returns the public half corresponding to this private key.
func (p PrivateKey) Public() PublicKey {
	return PublicKey{key: &p.key.PublicKey}
}

// Encrypt RSA-OAEP-encrypts a small plaintext (a serialized symmetric key)
// under this public key.
func (p PublicKey) Encrypt(plaintext []byte) ([]byte, error) {
	if p.key == nil {
		return nil, ErrNotPublicKey
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, p.key, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("rsa encrypt: %w", err)
	}
	return ciphertext, nil
}

// Decrypt reverses PublicKey.Encrypt.
func (p PrivateKey) Decrypt(ciphertext []byte) ([]byte, error) {
	if p.key == nil {
		return nil, ErrNotPrivateKey
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, p.key, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("rsa decrypt: %w", err)
	}
	return plaintext, nil
}

// Equal reports whether two public keys have the same modulus and exponent.
func (p PublicKey) Equal(other PublicKey) bool {
	if p.key == nil || other.key == nil {
		return p.key == other.key
	}
	return p.key.Equal(other.key)
}

// Equal reports whether two private keys are the same key.
func (p PrivateKey) Equal(other PrivateKey) bool {
	if p.key == nil || other.key == nil {
		return p.key == other.key
	}
	return p.key.Equal(other.key)
}
