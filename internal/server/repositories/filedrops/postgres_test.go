package filedrops

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/portalsend/internal/common"
	"github.com/dmitrijs2005/portalsend/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+filedrops\s*\(slug,.*\)\s*VALUES\s*\(\$1,.*\)\s*RETURNING\s+id,\s*created_at\s*$`

	rows := sqlmock.NewRows([]string{"id", "created_at"}).
		AddRow("d-1", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mock.ExpectQuery(q).
		WithArgs("inbox-1", "u-1", "Homework", "pub", "priv", "iv", "salt").
		WillReturnRows(rows)

	drop := &models.Filedrop{
		Slug:        "inbox-1",
		OwnerID:     "u-1",
		DisplayName: "Homework",
		KeyRecord: models.KeyRecord{
			PublicKey:               "pub",
			EncryptedPrivateKey:     "priv",
			EncryptedPrivateKeyIV:   "iv",
			EncryptedPrivateKeySalt: "salt",
		},
	}
	got, err := repo.Create(context.Background(), drop)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "d-1" {
		t.Fatalf("unexpected drop: %+v", got)
	}
}

func TestGetBySlug_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+filedrops\s+WHERE\s+slug`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySlug(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestLookupPublicKeys_PrefixesDropAddresses(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"slug", "public_key"}).
		AddRow("inbox-1", "pub-1")
	mock.ExpectQuery(`SELECT\s+slug,\s*public_key\s+FROM\s+filedrops`).
		WithArgs("inbox-1", "ghost").
		WillReturnRows(rows)

	got, err := repo.LookupPublicKeys(context.Background(), []string{"inbox-1", "ghost"})
	if err != nil {
		t.Fatalf("LookupPublicKeys error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].Address != "drop:inbox-1" || got[0].PublicKey != "pub-1" {
		t.Fatalf("unexpected row: %+v", got[0])
	}
	if got[1].Address != "drop:ghost" || got[1].PublicKey != "" {
		t.Fatalf("unknown slug must come back empty: %+v", got[1])
	}
}
