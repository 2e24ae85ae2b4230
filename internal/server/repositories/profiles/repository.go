// Package profiles declares the profile store contract and its PostgreSQL
// implementation.
package profiles

import (
	"context"

	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
)

// Repository persists the optional profile of an account. Writes that
// collide with another profile's phone return common.ErrDuplicatePhone.
type Repository interface {
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	// GetByAccountID returns common.ErrorNotFound when the account has no profile.
	GetByAccountID(ctx context.Context, accountID string) (*models.Profile, error)
	// PhoneTaken reports whether a profile of an account other than
	// excludeAccountID uses phone.
	PhoneTaken(ctx context.Context, phone, excludeAccountID string) (bool, error)
	Update(ctx context.Context, p *models.Profile) error
	List(ctx context.Context) ([]*models.Profile, error)
}
