package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/client/api"
	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/cryptox"
	"github.com/dmitrijs2005/portalsend/internal/envelope"
	"github.com/dmitrijs2005/portalsend/internal/logging"
)

// KeysAPI is the slice of the server API the key service needs.
type KeysAPI interface {
	GetKeys(ctx context.Context) (*envelope.KeyMaterial, error)
	SetupKeys(ctx context.Context, keys *envelope.KeyMaterial) error
	ResetKeys(ctx context.Context, keys *envelope.KeyMaterial) error
	CreateFiledrop(ctx context.Context, displayName string, keys *envelope.KeyMaterial) (*api.Filedrop, error)
	GetFiledrop(ctx context.Context, slug string) (*api.Filedrop, error)
	ListFiledrops(ctx context.Context) ([]api.Filedrop, error)
}

// KeyService runs initial key setup and key resets. All key generation
// happens here on the client; the server only ever stores the public key and
// the password-wrapped private key.
type KeyService struct {
	api KeysAPI
	log logging.Logger
}

func NewKeyService(apiClient KeysAPI, log logging.Logger) *KeyService {
	return &KeyService{api: apiClient, log: log.With("module", "key_service")}
}

// generateKeyMaterial produces a fresh keypair wrapped under password, in the
// interchange form the server stores.
func generateKeyMaterial(password []byte) (*envelope.KeyMaterial, error) {

	pair, err := cryptox.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}

	publicKey, err := cryptox.ExportPublicKey(pair.Public)
	if err != nil {
		return nil, fmt.Errorf("serializing public key: %w", err)
	}

	salt := cryptox.NewSalt()
	wrapped, iv, err := cryptox.WrapPrivateKey(pair.Private, password, salt)
	if err != nil {
		return nil, fmt.Errorf("wrapping private key: %w", err)
	}

	return &envelope.KeyMaterial{
		PublicKey:               publicKey,
		EncryptedPrivateKey:     base64.StdEncoding.EncodeToString(wrapped),
		EncryptedPrivateKeyIV:   base64.StdEncoding.EncodeToString(iv),
		EncryptedPrivateKeySalt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// Setup generates and registers key material for a caller that has none yet.
func (s *KeyService) Setup(ctx context.Context, password []byte) error {

	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", common.ErrorValidation)
	}

	_, err := s.api.GetKeys(ctx)
	if err == nil {
		return fmt.Errorf("%w: keys already set up", common.ErrorValidation)
	}
	if !errors.Is(err, common.ErrorKeysNotSetUp) {
		return err
	}

	keys, err := generateKeyMaterial(password)
	if err != nil {
		return err
	}

	if err := s.api.SetupKeys(ctx, keys); err != nil {
		return fmt.Errorf("registering keys: %w", err)
	}

	s.log.Info(ctx, "key material registered")
	return nil
}

// Reset replaces the caller's key material with a fresh keypair. Files
// shared under the old keypair become permanently unreadable for this
// identity; callers must confirm before invoking this.
func (s *KeyService) Reset(ctx context.Context, password []byte) error {

	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", common.ErrorValidation)
	}

	keys, err := generateKeyMaterial(password)
	if err != nil {
		return err
	}

	if err := s.api.ResetKeys(ctx, keys); err != nil {
		return fmt.Errorf("replacing keys: %w", err)
	}

	s.log.Warn(ctx, "key material replaced, previously received files are unrecoverable")
	return nil
}

// CreateDrop registers a filedrop with its own keypair wrapped under
// password. The drop's address is "drop:" plus the returned slug.
func (s *KeyService) CreateDrop(ctx context.Context, displayName string, password []byte) (*api.Filedrop, error) {

	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", common.ErrorValidation)
	}

	keys, err := generateKeyMaterial(password)
	if err != nil {
		return nil, err
	}

	drop, err := s.api.CreateFiledrop(ctx, displayName, keys)
	if err != nil {
		return nil, fmt.Errorf("creating filedrop: %w", err)
	}

	s.log.Info(ctx, "filedrop created", "slug", drop.Slug)
	return drop, nil
}

func (s *KeyService) ListDrops(ctx context.Context) ([]api.Filedrop, error) {
	return s.api.ListFiledrops(ctx)
}
