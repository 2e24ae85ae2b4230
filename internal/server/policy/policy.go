// Package policy decides whether an actor may perform an action on an
// account. Decisions are pure functions of the actor's id and role and the
// target id.
package policy

import (
	"fmt"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
)

type Action int

const (
	View Action = iota
	Update
	Delete
	Create
	ViewAny
)

func (a Action) String() string {
	switch a {
	case View:
		return "view"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case Create:
		return "create"
	case ViewAny:
		return "view_any"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Allowed reports whether actor may perform action on the account with
// targetID. targetID is ignored for Create and ViewAny. A nil actor, an
// unknown role or an unknown action is denied.
func Allowed(actor *models.Account, action Action, targetID string) bool {
	if actor == nil {
		return false
	}

	var admin bool
	switch actor.Role.Name {
	case models.RoleAdmin:
		admin = true
	case models.RoleUser:
		admin = false
	default:
		return false
	}

	self := targetID != "" && actor.ID == targetID

	switch action {
	case View, Update:
		return self || admin
	case Delete:
		return admin && !self
	case Create, ViewAny:
		return admin
	default:
		return false
	}
}

// Authorize is Allowed expressed as an error.
func Authorize(actor *models.Account, action Action, targetID string) error {
	if !Allowed(actor, action, targetID) {
		return fmt.Errorf("%w: %s", common.ErrPermissionDenied, action)
	}
	return nil
}
