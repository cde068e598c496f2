// Package repomanager vends the server repositories for one storage
// backend and runs work in transactions.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/threeline/internal/dbx"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/entries"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a DBTX, which is either the
// connection returned by Conn or the transaction handed to InTx callbacks.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() dbx.DBTX
	InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Users(db dbx.DBTX) users.Repository
	Entries(db dbx.DBTX) entries.Repository
	Close() error
}
