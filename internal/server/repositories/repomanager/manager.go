// Package repomanager vends repository implementations bound to a concrete
// database handle, so services can use the same repository inside and
// outside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/portalsend/internal/dbx"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/filedrops"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/transfers"
	"github.com/dmitrijs2005/portalsend/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Filedrops(db dbx.DBTX) filedrops.Repository
	Transfers(db dbx.DBTX) transfers.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
