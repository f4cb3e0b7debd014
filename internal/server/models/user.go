// Package models defines server-side data models persisted in the database.
//
// All key material, IVs, salts and ciphertext fields are stored exactly as
// the client submitted them: base64 strings. The server never decodes them.
package models

import "time"

// User is an authenticated identity. Accounts themselves are provisioned by
// the external auth system; this table only carries the client-generated key
// material attached to the account.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time

	KeyRecord
}

// KeyRecord is the four-field key material of one identity. Either all four
// fields are present or the identity has no keys; partial rows are a server
// defect and are reported as such.
type KeyRecord struct {
	PublicKey               string
	EncryptedPrivateKey     string
	EncryptedPrivateKeyIV   string
	EncryptedPrivateKeySalt string
}

// Complete reports whether all four key-material fields are present.
func (k KeyRecord) Complete() bool {
	return k.PublicKey != "" &&
		k.EncryptedPrivateKey != "" &&
		k.EncryptedPrivateKeyIV != "" &&
		k.EncryptedPrivateKeySalt != ""
}

// Empty reports whether no key-material field is present.
func (k KeyRecord) Empty() bool {
	return k.PublicKey == "" &&
		k.EncryptedPrivateKey == "" &&
		k.EncryptedPrivateKeyIV == "" &&
		k.EncryptedPrivateKeySalt == ""
}

// PublicKeyLookup is one row of a directory lookup. PublicKey is empty when
// the address has no usable key material.
type PublicKeyLookup struct {
	Address   string
	PublicKey string
}
