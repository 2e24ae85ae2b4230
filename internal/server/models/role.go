package models

import (
	"fmt"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
)

// RoleName is the closed set of roles an account can hold.
type RoleName string

const (
	RoleAdmin RoleName = "admin"
	RoleUser  RoleName = "user"
)

// Roles lists every role with the description it is seeded with.
var Roles = []Role{
	{Name: RoleAdmin, Description: "Administrator role"},
	{Name: RoleUser, Description: "Regular user role"},
}

// ParseRoleName maps a stored role name onto the enum. Unknown names are a
// configuration error.
func ParseRoleName(s string) (RoleName, error) {
	switch RoleName(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrRoleNotConfigured, s)
	}
}

func (r RoleName) Valid() bool {
	_, err := ParseRoleName(string(r))
	return err == nil
}

type Role struct {
	ID          int64    `json:"id"`
	Name        RoleName `json:"name"`
	Description string   `json:"description"`
}
