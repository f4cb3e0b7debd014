package transfers

import (
	"context"
	"time"

	"github.com/dmitrijs2005/portalsend/internal/server/models"
)

// ListFilter narrows and pages a file listing. A zero BeforeCreatedAt means
// "from the newest"; otherwise rows strictly older than the
// (BeforeCreatedAt, BeforeID) pair are returned.
type ListFilter struct {
	Direction       string
	BeforeCreatedAt time.Time
	BeforeID        string
	Limit           int
}

// Repository provides access to shared key sets, files, wrapped key copies
// and the accesses linking identities to them. The four Create methods are
// meant to run inside one transaction; a fan-out is written atomically or
// not at all.
type Repository interface {
	CreateSharedKeySet(ctx context.Context) (*models.SharedKeySet, error)
	CreateFile(ctx context.Context, file *models.File) (*models.File, error)
	CreateSharedKey(ctx context.Context, key *models.SharedKey) error
	CreateFileAccess(ctx context.Context, access *models.FileAccess) error
	// MarkUploaded flips a pending file to uploaded. Only the sender may
	// finalize; anything else reports not found.
	MarkUploaded(ctx context.Context, slug, senderID string) error
	// GetForRecipient returns the transfer as seen through one recipient
	// address: the wrapped key copy its access points at. Pending files
	// are invisible.
	GetForRecipient(ctx context.Context, slug, address string) (*models.TransferView, error)
	// List returns at most one row per file even when several of the
	// given addresses hold an access, preferring the first address.
	List(ctx context.Context, callerID string, addresses []string, filter ListFilter) ([]models.FileListItem, error)
	// SweepAbandoned deletes pending files created before the deadline
	// together with their key sets, keys and accesses, and returns how
	// many were removed.
	SweepAbandoned(ctx context.Context, olderThan time.Time) (int64, error)
}
