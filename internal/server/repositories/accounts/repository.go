// Package accounts declares the account store contract and its PostgreSQL
// implementation.
package accounts

import (
	"context"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
)

// Repository persists accounts together with their role. Lookups that find
// nothing return common.ErrorNotFound; writes that collide with another
// account's email return common.ErrDuplicateEmail.
type Repository interface {
	// Create inserts acc and fills in its ID and timestamps.
	Create(ctx context.Context, acc *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// EmailTaken reports whether another account than excludeID uses email.
	// An empty excludeID checks all accounts.
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context) ([]*models.Account, error)
	// Update writes email, password hash, role and active flag.
	Update(ctx context.Context, acc *models.Account) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// Delete removes the account; its profile goes with it.
	Delete(ctx context.Context, id string) error
}
