package envelope

import "context"

// KeyMaterial is one identity's persisted key record. PublicKey holds the
// interchange form of the RSA public key; the other three fields hold the
// base64-encoded wrapped private key, its IV and the KDF salt.
//
// The four fields live and die together: a record with some but not all of
// them set is treated as "no key pair" everywhere (see Complete).
type KeyMaterial struct {
	PublicKey               string `json:"public_key"`
	EncryptedPrivateKey     string `json:"encrypted_private_key"`
	EncryptedPrivateKeyIV   string `json:"encrypted_private_key_iv"`
	EncryptedPrivateKeySalt string `json:"encrypted_private_key_salt"`
}

// Complete reports whether all four fields are populated. Partial records
// must never be treated as usable key material.
func (m *KeyMaterial) Complete() bool {
	return m != nil &&
		m.PublicKey != "" &&
		m.EncryptedPrivateKey != "" &&
		m.EncryptedPrivateKeyIV != "" &&
		m.EncryptedPrivateKeySalt != ""
}

// RecipientKey is one row of a directory lookup. PublicKey is empty when the
// recipient exists but has not set up keys, or does not exist at all; the
// two cases are indistinguishable on purpose.
type RecipientKey struct {
	Email     string `json:"email"`
	PublicKey string `json:"public_key"`
}

// Directory resolves recipient identifiers to public keys.
type Directory interface {
	LookupPublicKeys(ctx context.Context, emails []string) ([]RecipientKey, error)
}

// WrappedKey is one recipient's RSA-wrapped copy of a file key, base64.
type WrappedKey struct {
	Email              string `json:"email"`
	EncryptedSharedKey string `json:"encrypted_shared_key"`
}

// FanoutRequest is the atomic unit submitted to persistence at send time:
// the sender's own wrapped copy, every recipient's wrapped copy, and the
// file's encrypted name and IV (both base64).
type FanoutRequest struct {
	EncryptedKeyForSelf string       `json:"encrypted_key_for_self"`
	RecipientKeys       []WrappedKey `json:"encrypted_keys_for_recipients"`
	EncryptedName       string       `json:"encrypted_filename"`
	FileIV              string       `json:"file_iv"`
}

// FanoutTicket is what persistence hands back: where to upload the
// ciphertext and the slug under which the file will be reachable once the
// upload is confirmed.
type FanoutTicket struct {
	Slug           string `json:"file_slug"`
	UploadURL      string `json:"signed_url"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

// Transfer is the recipient-side view of one file: this recipient's wrapped
// key, the shared IV and the encrypted name, all base64.
type Transfer struct {
	Slug              string `json:"slug"`
	EncryptedKeyForMe string `json:"shared_key_encrypted_for_me"`
	FileIV            string `json:"iv"`
	EncryptedName     string `json:"encrypted_filename"`
}

// TransferStore is the fan-out persistence collaborator.
type TransferStore interface {
	// CreateFanout atomically records the shared key set, per-recipient
	// keys, accesses and the (pending) file row, and returns an upload
	// ticket. Nothing becomes visible to recipients until MarkUploaded.
	CreateFanout(ctx context.Context, req *FanoutRequest) (*FanoutTicket, error)

	// MarkUploaded finalizes a pending file after the ciphertext landed
	// in storage.
	MarkUploaded(ctx context.Context, slug string) error

	// GetTransfer returns the caller's view of one file. A file can hold
	// wrapped key copies for several of the caller's addresses (their
	// email and drops they own); address names which copy to return. An
	// empty address means the caller's primary address.
	GetTransfer(ctx context.Context, slug, address string) (*Transfer, error)

	// PresignDownload returns a time-limited URL for the ciphertext,
	// with the same address rule as GetTransfer.
	PresignDownload(ctx context.Context, slug, address string) (string, error)
}

// BlobStore moves ciphertext to and from object storage via presigned URLs.
type BlobStore interface {
	Upload(ctx context.Context, url string, blob []byte) error
	Download(ctx context.Context, url string) ([]byte, error)
}
