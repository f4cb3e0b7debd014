package users

import (
	"context"

	"github.com/dmitrijs2005/portalsend/internal/server/models"
)

// Repository provides access to user identities and their key material.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Create provisions a bare account row with no key material.
	Create(ctx context.Context, email string) (*models.User, error)
	// SetKeys replaces all four key-material fields in one update.
	SetKeys(ctx context.Context, id string, keys models.KeyRecord) error
	// LookupPublicKeys returns one row per requested email; emails without
	// an account or without key material come back with an empty PublicKey.
	LookupPublicKeys(ctx context.Context, emails []string) ([]models.PublicKeyLookup, error)
}
