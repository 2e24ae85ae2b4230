// Package revokedtokens declares the store of invalidated access token ids.
package revokedtokens

import (
	"context"
	"time"
)

// Repository records revoked token ids until their natural expiry.
type Repository interface {
	// Create records jti as revoked. It reports false when jti was already
	// present, which lets callers detect a lost race.
	Create(ctx context.Context, jti string, expiresAt time.Time) (bool, error)

	// Exists reports whether jti has been revoked.
	Exists(ctx context.Context, jti string) (bool, error)

	// DeleteExpired drops rows whose token expired before the given instant
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
