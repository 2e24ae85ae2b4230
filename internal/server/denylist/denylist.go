// Package denylist provides the revocation stores behind token logout and
// refresh, and a sweeper that drops entries once the token would have
// expired anyway.
package denylist

import (
	"context"
	"time"
)

// Store records revoked token ids. It satisfies auth.Denylist.
type Store interface {
	// Revoke records jti until expiresAt. It reports false when jti was
	// already revoked.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Prune drops entries that expired before now and returns how many went.
	Prune(ctx context.Context, now time.Time) (int64, error)
}
