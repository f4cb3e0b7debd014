package filedrops

import (
	"context"

	"github.com/dmitrijs2005/portalsend/internal/server/models"
)

// Repository provides access to filedrop inboxes.
type Repository interface {
	Create(ctx context.Context, drop *models.Filedrop) (*models.Filedrop, error)
	GetBySlug(ctx context.Context, slug string) (*models.Filedrop, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Filedrop, error)
	// LookupPublicKeys resolves drop slugs to their public keys; unknown
	// slugs come back with an empty PublicKey.
	LookupPublicKeys(ctx context.Context, slugs []string) ([]models.PublicKeyLookup, error)
}
