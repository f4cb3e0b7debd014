package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/common"
)

// FileIVSize is the AES-CBC IV length. One IV is generated per file and
// shared by the content and filename ciphertexts.
const FileIVSize = 16

var errInvalidCiphertext = errors.New("invalid ciphertext")

// NewFileIV returns a fresh random 16-byte IV.
func NewFileIV() []byte {
	return common.GenerateRandByteArray(FileIVSize)
}

// EncryptBytes AES-CBC-encrypts arbitrary file bytes with a per-file key and
// caller-supplied IV, padding with PKCS#7. CBC without authentication is
// deliberate for bulk content: storage integrity is assumed in this threat
// model, and the security-critical small blob (the private key) goes through
// the authenticated vault instead.
func EncryptBytes(plaintext []byte, key SymmetricKey, iv []byte) ([]byte, error) {
	block, err := newFileBlock(key, iv)
	if err != nil {
		return nil, err
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// DecryptBytes reverses EncryptBytes.
func DecryptBytes(ciphertext []byte, key SymmetricKey, iv []byte) ([]byte, error) {
	block, err := newFileBlock(key, iv)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errInvalidCiphertext
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	return unpadPKCS7(padded, aes.BlockSize)
}

// EncryptName encrypts a file's display name with the same key and IV as its
// content.
func EncryptName(name string, key SymmetricKey, iv []byte) ([]byte, error) {
	return EncryptBytes([]byte(name), key, iv)
}

// DecryptName reverses EncryptName.
func DecryptName(ciphertext []byte, key SymmetricKey, iv []byte) (string, error) {
	name, err := DecryptBytes(ciphertext, key, iv)
	if err != nil {
		return "", err
	}
	return string(name), nil
}

func newFileBlock(key SymmetricKey, iv []byte) (cipher.Block, error) {
	if len(key) != FileKeySize {
		return nil, ErrNotSymmetricKey
	}
	if len(iv) != FileIVSize {
		return nil, fmt.Errorf("file iv must be %d bytes", FileIVSize)
	}
	return aes.NewCipher(key)
}

func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errInvalidCiphertext
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errInvalidCiphertext
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errInvalidCiphertext
		}
	}
	return data[:len(data)-n], nil
}
