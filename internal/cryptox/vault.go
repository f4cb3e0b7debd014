package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/common"
)

// VaultIVSize is the AES-GCM nonce length used by the private-key vault.
const VaultIVSize = 12

// ErrIncorrectPassword is returned when unwrapping fails authentication.
// A wrong master password is the only expected cause; the UI prompts the
// user to try again.
var ErrIncorrectPassword = errors.New("incorrect password")

// WrapPrivateKey serializes the private key to its interchange form, derives
// a wrapping key from (password, salt), and AES-GCM-encrypts the serialized
// text under a fresh random 12-byte IV. The returned ciphertext and IV, plus
// the salt, form the persisted WrappedPrivateKey record.
func WrapPrivateKey(key PrivateKey, password, salt []byte) (ciphertext, iv []byte, err error) {
	serialized, err := ExportPrivateKey(key)
	if err != nil {
		return nil, nil, err
	}

	wrappingKey := DeriveWrappingKey(password, salt)
	defer common.WipeByteArray(wrappingKey)

	block, err := aes.NewCipher(wrappingKey)
	if err != nil {
		return nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	iv = common.GenerateRandByteArray(VaultIVSize)
	ciphertext = aesgcm.Seal(nil, iv, []byte(serialized), nil)

	return ciphertext, iv, nil
}

// UnwrapPrivateKey reverses WrapPrivateKey. An authentication failure is
// reported as ErrIncorrectPassword; any other error means the stored record
// is malformed.
func UnwrapPrivateKey(ciphertext, password, salt, iv []byte) (PrivateKey, error) {
	wrappingKey := DeriveWrappingKey(password, salt)
	defer common.WipeByteArray(wrappingKey)

	block, err := aes.NewCipher(wrappingKey)
	if err != nil {
		return PrivateKey{}, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return PrivateKey{}, err
	}
	if len(iv) != aesgcm.NonceSize() {
		return PrivateKey{}, fmt.Errorf("vault iv must be %d bytes", aesgcm.NonceSize())
	}

	serialized, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		// GCM does not distinguish a bad key from tampered ciphertext;
		// in this protocol the former is the expected case.
		return PrivateKey{}, ErrIncorrectPassword
	}
	defer common.WipeByteArray(serialized)

	return ImportPrivateKey(string(serialized))
}
