package models

import "time"

// Upload states of a stored file. A file is born pending inside the fan-out
// transaction and becomes visible to recipients only once the sender confirms
// the ciphertext actually reached object storage.
const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
)

// SharedKeySet ties one file's wrapped key copies together. It is a pure
// join point: the set carries no key material of its own.
type SharedKeySet struct {
	ID        string
	CreatedAt time.Time
}

// File is the server-side record of one sent file. The ciphertext itself
// lives in object storage under StorageKey; the row carries only the
// encrypted metadata needed to open it.
type File struct {
	ID             string
	Slug           string
	SenderID       string
	SharedKeySetID string
	StorageKey     string

	// EncryptedName and FileIV travel as opaque base64; the name is
	// encrypted with the same key and IV as the content.
	EncryptedName string
	FileIV        string

	UploadStatus string
	CreatedAt    time.Time
}

// SharedKey is one RSA-wrapped copy of a file's symmetric key, owned by
// exactly one SharedKeySet. Which identity can read it is recorded by the
// FileAccess pointing at it.
type SharedKey struct {
	ID                 string
	SharedKeySetID     string
	EncryptedSharedKey string
}

// Permissions an identity can hold over a file. Every file has exactly one
// OWNER access, held by the original sender; everyone else is a VIEWER.
const (
	PermissionOwner  = "OWNER"
	PermissionViewer = "VIEWER"
)

// FileAccess grants one identity one permission over one file through one
// wrapped key copy. Recipient is a directory address: a user email or a
// drop address.
type FileAccess struct {
	ID             string
	FileID         string
	SharedKeyID    string
	Recipient      string
	Permission     string
	OriginalSender bool
}

// TransferView is everything one recipient needs to open a file, joined
// from files, file_accesses and shared_keys.
type TransferView struct {
	Slug               string
	SenderID           string
	StorageKey         string
	EncryptedSharedKey string
	FileIV             string
	EncryptedName      string
	UploadStatus       string
}

// Directions of a file listing.
const (
	ListSent     = "sent"
	ListReceived = "received"
	ListAll      = "all"
)

// FileListItem is one row of a cursor-paginated listing. Name decryption
// happens on the client; the server returns the encrypted form.
type FileListItem struct {
	ID                 string
	Slug               string
	Direction          string
	EncryptedName      string
	FileIV             string
	EncryptedSharedKey string
	CreatedAt          time.Time
}
