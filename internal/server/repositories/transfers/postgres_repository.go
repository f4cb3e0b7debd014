package transfers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

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

func (r *PostgresRepository) CreateSharedKeySet(ctx context.Context) (*models.SharedKeySet, error) {
	query :=
		`INSERT INTO shared_key_sets DEFAULT VALUES
		 RETURNING id, created_at
		 `

	set := &models.SharedKeySet{}
	err := r.db.QueryRowContext(ctx, query).Scan(&set.ID, &set.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return set, nil
}

func (r *PostgresRepository) CreateFile(ctx context.Context, file *models.File) (*models.File, error) {
	query :=
		`INSERT INTO files (slug, sender_id, shared_key_set_id, storage_key, encrypted_name, file_iv, upload_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.Slug, file.SenderID, file.SharedKeySetID, file.StorageKey,
		file.EncryptedName, file.FileIV, file.UploadStatus).
		Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) CreateSharedKey(ctx context.Context, key *models.SharedKey) error {
	query :=
		`INSERT INTO shared_keys (shared_key_set_id, encrypted_shared_key)
		 VALUES ($1, $2)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		key.SharedKeySetID, key.EncryptedSharedKey).Scan(&key.ID)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) CreateFileAccess(ctx context.Context, access *models.FileAccess) error {
	query :=
		`INSERT INTO file_accesses (file_id, shared_key_id, recipient, permission, original_sender)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		access.FileID, access.SharedKeyID, access.Recipient,
		access.Permission, access.OriginalSender).Scan(&access.ID)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) MarkUploaded(ctx context.Context, slug, senderID string) error {
	query :=
		`UPDATE files
		 SET upload_status = $3
		 WHERE slug = $1 AND sender_id = $2 AND upload_status = $4
		 `

	res, err := r.db.ExecContext(ctx, query, slug, senderID,
		models.UploadStatusUploaded, models.UploadStatusPending)
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

func (r *PostgresRepository) GetForRecipient(ctx context.Context, slug, address string) (*models.TransferView, error) {
	if address == "" {
		return nil, common.ErrorNotFound
	}

	query :=
		`SELECT f.slug, f.sender_id, f.storage_key, sk.encrypted_shared_key,
		        f.file_iv, f.encrypted_name, f.upload_status
		 FROM files f
		 JOIN file_accesses fa ON fa.file_id = f.id
		 JOIN shared_keys sk ON sk.id = fa.shared_key_id
		 WHERE f.slug = $1 AND f.upload_status = $2 AND fa.recipient = $3
		 `

	view := &models.TransferView{}
	err := r.db.QueryRowContext(ctx, query, slug, models.UploadStatusUploaded, address).Scan(
		&view.Slug, &view.SenderID, &view.StorageKey, &view.EncryptedSharedKey,
		&view.FileIV, &view.EncryptedName, &view.UploadStatus)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return view, nil
}

func (r *PostgresRepository) List(ctx context.Context, callerID string, addresses []string, filter ListFilter) ([]models.FileListItem, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	args := []any{models.UploadStatusUploaded, callerID}
	placeholders := make([]string, len(addresses))
	for i, addr := range addresses {
		args = append(args, addr)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	var conds []string
	switch filter.Direction {
	case models.ListSent:
		conds = append(conds, `f.sender_id = $2`)
	case models.ListReceived:
		conds = append(conds, `f.sender_id <> $2`)
	}

	if !filter.BeforeCreatedAt.IsZero() {
		args = append(args, filter.BeforeCreatedAt, filter.BeforeID)
		conds = append(conds, fmt.Sprintf(`(f.created_at, f.id) < ($%d, $%d)`, len(args)-1, len(args)))
	}

	extra := ""
	if len(conds) > 0 {
		extra = ` AND ` + strings.Join(conds, ` AND `)
	}

	args = append(args, filter.Limit)

	// A file addressed to several of the caller's addresses holds several
	// accesses; DISTINCT ON keeps one row per file, preferring the copy
	// wrapped for the first (primary) address.
	query :=
		`SELECT id, slug, sender_id, encrypted_name, file_iv, encrypted_shared_key, created_at
		 FROM (
		     SELECT DISTINCT ON (f.id) f.id, f.slug, f.sender_id, f.encrypted_name,
		            f.file_iv, sk.encrypted_shared_key, f.created_at
		     FROM files f
		     JOIN file_accesses fa ON fa.file_id = f.id
		     JOIN shared_keys sk ON sk.id = fa.shared_key_id
		     WHERE f.upload_status = $1
		       AND fa.recipient IN (` + strings.Join(placeholders, ", ") + `)` + extra + `
		     ORDER BY f.id, fa.recipient <> $3
		 ) t
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT $` + fmt.Sprintf("%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []models.FileListItem
	for rows.Next() {
		var item models.FileListItem
		var senderID string
		err := rows.Scan(&item.ID, &item.Slug, &senderID, &item.EncryptedName,
			&item.FileIV, &item.EncryptedSharedKey, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if senderID == callerID {
			item.Direction = models.ListSent
		} else {
			item.Direction = models.ListReceived
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) SweepAbandoned(ctx context.Context, olderThan time.Time) (int64, error) {
	// Deleting the set cascades to the file, its keys and its accesses.
	query :=
		`DELETE FROM shared_key_sets
		 WHERE id IN (
		     SELECT shared_key_set_id FROM files
		     WHERE upload_status = $1 AND created_at < $2
		 )`

	res, err := r.db.ExecContext(ctx, query, models.UploadStatusPending, olderThan)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return affected, nil
}
