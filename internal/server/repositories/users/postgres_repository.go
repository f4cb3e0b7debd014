package users

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

const userColumns = `id, email, public_key, encrypted_private_key,
	 encrypted_private_key_iv, encrypted_private_key_salt, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email,
		&user.PublicKey, &user.EncryptedPrivateKey,
		&user.EncryptedPrivateKeyIV, &user.EncryptedPrivateKeySalt,
		&user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) Create(ctx context.Context, email string) (*models.User, error) {
	query :=
		`INSERT INTO users (email)
		 VALUES ($1)
		 RETURNING id, created_at
		 `

	user := &models.User{Email: email}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) SetKeys(ctx context.Context, id string, keys models.KeyRecord) error {
	query :=
		`UPDATE users
		 SET public_key = $2,
		     encrypted_private_key = $3,
		     encrypted_private_key_iv = $4,
		     encrypted_private_key_salt = $5
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id,
		keys.PublicKey, keys.EncryptedPrivateKey,
		keys.EncryptedPrivateKeyIV, keys.EncryptedPrivateKeySalt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) LookupPublicKeys(ctx context.Context, emails []string) ([]models.PublicKeyLookup, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(emails))
	args := make([]any, len(emails))
	for i, email := range emails {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = email
	}

	query := `SELECT email, public_key FROM users WHERE email IN (` +
		strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	byEmail := make(map[string]string, len(emails))
	for rows.Next() {
		var email, publicKey string
		if err := rows.Scan(&email, &publicKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		byEmail[email] = publicKey
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// One result row per requested email, present or not.
	result := make([]models.PublicKeyLookup, len(emails))
	for i, email := range emails {
		result[i] = models.PublicKeyLookup{Address: email, PublicKey: byEmail[email]}
	}

	return result, nil
}
