// Package roles stores the fixed set of account roles.
package roles

import (
	"context"

	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
)

type Repository interface {
	// Ensure creates the role if missing and returns the stored row.
	Ensure(ctx context.Context, name models.RoleName, description string) (*models.Role, error)
	// GetByName returns common.ErrRoleNotConfigured when the role row is absent.
	GetByName(ctx context.Context, name models.RoleName) (*models.Role, error)
}
