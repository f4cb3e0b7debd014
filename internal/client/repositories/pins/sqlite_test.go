package pins

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/portalsend/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE pins (
  address TEXT PRIMARY KEY,
  public_key TEXT NOT NULL,
  first_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
	require.NoError(t, err)

	return db
}

func TestPutAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "a@example.com", "pk1"))

	got, err := r.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "pk1", got)
}

func TestGet_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPut_Replaces(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "a@example.com", "pk1"))
	require.NoError(t, r.Put(ctx, "a@example.com", "pk2"))

	got, err := r.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "pk2", got)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "a@example.com", "pk1"))
	require.NoError(t, r.Delete(ctx, "a@example.com"))

	_, err := r.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// deleting a missing pin is not an error
	assert.NoError(t, r.Delete(ctx, "a@example.com"))
}
