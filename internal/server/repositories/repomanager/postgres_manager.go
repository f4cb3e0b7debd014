package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/portalsend/internal/dbx"
	"github.com/dmitrijs2005/portalsend/internal/server/migrations"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/filedrops"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/transfers"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Filedrops(db dbx.DBTX) filedrops.Repository {
	return filedrops.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Transfers(db dbx.DBTX) transfers.Repository {
	return transfers.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
