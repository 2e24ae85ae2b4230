package denylist

import (
	"context"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/revokedtokens"
)

// Postgres stores revoked ids in the revoked_tokens table. The primary key
// makes Revoke an atomic insert-if-absent across instances.
type Postgres struct {
	repo revokedtokens.Repository
}

func NewPostgres(repo revokedtokens.Repository) *Postgres {
	return &Postgres{repo: repo}
}

func (p *Postgres) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	return p.repo.Create(ctx, jti, expiresAt)
}

func (p *Postgres) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return p.repo.Exists(ctx, jti)
}

func (p *Postgres) Prune(ctx context.Context, now time.Time) (int64, error) {
	return p.repo.DeleteExpired(ctx, now)
}
