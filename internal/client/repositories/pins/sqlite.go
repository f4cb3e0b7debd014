package pins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, address string) (string, error) {
	query := `select public_key from pins where address=?`
	row := r.db.QueryRowContext(ctx, query, address)

	var publicKey string
	if err := row.Scan(&publicKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return publicKey, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, address, publicKey string) error {
	query := `insert into pins (address, public_key) values (?, ?)
		on conflict(address) do update set public_key = excluded.public_key`
	if _, err := r.db.ExecContext(ctx, query, address, publicKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, address string) error {
	query := `delete from pins where address=?`
	if _, err := r.db.ExecContext(ctx, query, address); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
