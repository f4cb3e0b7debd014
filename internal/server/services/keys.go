// Package services implements the server-side application logic: key material
// management and transfer fan-out over the repositories, plus object-storage
// presigning. The server never sees a password, a private key or a plaintext
// file; everything it stores arrived encrypted.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/logging"
	"github.com/dmitrijs2005/portalsend/internal/server/models"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/repomanager"
)

const dropSlugBytes = 8

type KeyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewKeyService(db *sql.DB, rm repomanager.RepositoryManager, log logging.Logger) *KeyService {
	return &KeyService{
		db:          db,
		repomanager: rm,
		log:         log.With("module", "key_service"),
	}
}

// GetKeys returns the caller's key material. An identity with no keys reports
// ErrorKeysNotSetUp; a partial record is a stored defect and is surfaced as
// ErrorIncompleteKeyRecord rather than handed to the client.
func (s *KeyService) GetKeys(ctx context.Context, userID string) (*models.KeyRecord, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.KeyRecord.Complete() {
		keys := user.KeyRecord
		return &keys, nil
	}
	if user.KeyRecord.Empty() {
		return nil, common.ErrorKeysNotSetUp
	}

	s.log.Warn(ctx, "partial key record in storage", "user_id", userID)
	return nil, common.ErrorIncompleteKeyRecord
}

// SetupKeys stores freshly generated key material for an identity that has
// none yet. Re-running setup over existing keys is rejected; use ResetKeys.
func (s *KeyService) SetupKeys(ctx context.Context, userID string, keys models.KeyRecord) error {
	if !keys.Complete() {
		return fmt.Errorf("%w: all four key material fields are required", common.ErrorValidation)
	}

	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.KeyRecord.Empty() {
		return fmt.Errorf("%w: keys already set up", common.ErrorValidation)
	}

	if err := userRepo.SetKeys(ctx, userID, keys); err != nil {
		return err
	}

	s.log.Info(ctx, "key material stored", "user_id", userID)
	return nil
}

// ResetKeys replaces all four key-material fields in one update. Files shared
// with the identity before the reset can never be opened again: their shared
// keys are wrapped for a public key whose private half is gone.
func (s *KeyService) ResetKeys(ctx context.Context, userID string, keys models.KeyRecord) error {
	if !keys.Complete() {
		return fmt.Errorf("%w: all four key material fields are required", common.ErrorValidation)
	}

	if err := s.repomanager.Users(s.db).SetKeys(ctx, userID, keys); err != nil {
		return err
	}

	s.log.Warn(ctx, "key material replaced, previously shared files are unrecoverable for this identity",
		"user_id", userID)
	return nil
}

// LookupPublicKeys resolves a mixed list of directory addresses (user emails
// and drop: slugs) to public keys, preserving input order. Addresses without
// usable key material come back with an empty PublicKey; the caller decides
// whether that aborts the operation.
func (s *KeyService) LookupPublicKeys(ctx context.Context, addresses []string) ([]models.PublicKeyLookup, error) {
	var emails, slugs []string
	for _, addr := range addresses {
		if slug, ok := strings.CutPrefix(addr, common.DropAddressPrefix); ok {
			slugs = append(slugs, slug)
		} else {
			emails = append(emails, addr)
		}
	}

	byAddress := make(map[string]string, len(addresses))

	userRows, err := s.repomanager.Users(s.db).LookupPublicKeys(ctx, emails)
	if err != nil {
		return nil, err
	}
	for _, row := range userRows {
		byAddress[row.Address] = row.PublicKey
	}

	dropRows, err := s.repomanager.Filedrops(s.db).LookupPublicKeys(ctx, slugs)
	if err != nil {
		return nil, err
	}
	for _, row := range dropRows {
		byAddress[row.Address] = row.PublicKey
	}

	result := make([]models.PublicKeyLookup, len(addresses))
	for i, addr := range addresses {
		result[i] = models.PublicKeyLookup{Address: addr, PublicKey: byAddress[addr]}
	}

	return result, nil
}

// CreateFiledrop opens a new slug-addressed inbox owned by the caller. The
// drop's key pair is generated client-side like a user's; the server only
// stores the wrapped material and hands out the slug.
func (s *KeyService) CreateFiledrop(ctx context.Context, ownerID, displayName string, keys models.KeyRecord) (*models.Filedrop, error) {
	if !keys.Complete() {
		return nil, fmt.Errorf("%w: all four key material fields are required", common.ErrorValidation)
	}

	slug, err := common.MakeRandHexString(dropSlugBytes)
	if err != nil {
		return nil, fmt.Errorf("generating drop slug: %w", err)
	}

	drop := &models.Filedrop{
		Slug:        slug,
		OwnerID:     ownerID,
		DisplayName: displayName,
		KeyRecord:   keys,
	}

	drop, err = s.repomanager.Filedrops(s.db).Create(ctx, drop)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "filedrop created", "slug", drop.Slug, "owner_id", ownerID)
	return drop, nil
}

// GetFiledrop returns a drop by slug. Anyone knowing the slug may fetch it;
// the wrapped private key is useless without the owner's master password.
func (s *KeyService) GetFiledrop(ctx context.Context, slug string) (*models.Filedrop, error) {
	return s.repomanager.Filedrops(s.db).GetBySlug(ctx, slug)
}

// ListFiledrops returns the caller's drops.
func (s *KeyService) ListFiledrops(ctx context.Context, ownerID string) ([]*models.Filedrop, error) {
	return s.repomanager.Filedrops(s.db).ListByOwner(ctx, ownerID)
}
