package repomanager

import (
	"context"
	"database/sql"

	"github.com/ThanhLuuv/user-management-backend/internal/dbx"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/accounts"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/profiles"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/revokedtokens"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/roles"
)

// RepositoryManager binds repositories to a handle, so the same code runs
// against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Roles(db dbx.DBTX) roles.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}
