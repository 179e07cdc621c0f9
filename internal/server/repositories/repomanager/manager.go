// Package repomanager vends repositories bound to a dbx.DBTX and owns
// schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/glowup/internal/dbx"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/glowup/internal/server/repositories/users"
)

// RepositoryManager hands out repositories over either the pool or a
// transaction, so one unit of work can span several repositories.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
