package filedrops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/dbx"
	"github.com/dmitrijs2005/portalsend/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const dropColumns = `id, slug, owner_id, display_name, public_key,
	 encrypted_private_key, encrypted_private_key_iv, encrypted_private_key_salt, created_at`

func (r *PostgresRepository) Create(ctx context.Context, drop *models.Filedrop) (*models.Filedrop, error) {
	query :=
		`INSERT INTO filedrops (slug, owner_id, display_name, public_key,
		     encrypted_private_key, encrypted_private_key_iv, encrypted_private_key_salt)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		drop.Slug, drop.OwnerID, drop.DisplayName, drop.PublicKey,
		drop.EncryptedPrivateKey, drop.EncryptedPrivateKeyIV, drop.EncryptedPrivateKeySalt).
		Scan(&drop.ID, &drop.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return drop, nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Filedrop, error) {
	query := `SELECT ` + dropColumns + ` FROM filedrops WHERE slug = $1`

	drop := &models.Filedrop{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&drop.ID, &drop.Slug, &drop.OwnerID, &drop.DisplayName, &drop.PublicKey,
		&drop.EncryptedPrivateKey, &drop.EncryptedPrivateKeyIV, &drop.EncryptedPrivateKeySalt,
		&drop.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return drop, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Filedrop, error) {
	query := `SELECT ` + dropColumns + ` FROM filedrops WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var drops []*models.Filedrop
	for rows.Next() {
		drop := &models.Filedrop{}
		err := rows.Scan(
			&drop.ID, &drop.Slug, &drop.OwnerID, &drop.DisplayName, &drop.PublicKey,
			&drop.EncryptedPrivateKey, &drop.EncryptedPrivateKeyIV, &drop.EncryptedPrivateKeySalt,
			&drop.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		drops = append(drops, drop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return drops, nil
}

func (r *PostgresRepository) LookupPublicKeys(ctx context.Context, slugs []string) ([]models.PublicKeyLookup, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(slugs))
	args := make([]any, len(slugs))
	for i, slug := range slugs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = slug
	}

	query := `SELECT slug, public_key FROM filedrops WHERE slug IN (` +
		strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	bySlug := make(map[string]string, len(slugs))
	for rows.Next() {
		var slug, publicKey string
		if err := rows.Scan(&slug, &publicKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		bySlug[slug] = publicKey
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]models.PublicKeyLookup, len(slugs))
	for i, slug := range slugs {
		result[i] = models.PublicKeyLookup{Address: common.DropAddressPrefix + slug, PublicKey: bySlug[slug]}
	}

	return result, nil
}
