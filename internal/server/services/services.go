// Package services contains the account and profile use cases: registration,
// login and token lifecycle in AuthService, administrative and self-service
// account management in UserService, and avatar upload URLs in AvatarService.
//
// Every method that acts on behalf of a caller takes the caller's account id
// explicitly; the actor is reloaded from the store so authorization always
// sees the current role.
package services

import (
	"context"
	"errors"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/dbx"
	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/ThanhLuuv/user-management-backend/internal/server/auth"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PasswordHasher is satisfied by *auth.Hasher.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) bool
	VerifyDummy(ctx context.Context, plaintext string) bool
}

// TokenIssuer is satisfied by *auth.TokenManager.
type TokenIssuer interface {
	Issue(accountID string) (*auth.IssuedToken, error)
	Verify(ctx context.Context, token string) (*auth.Claims, error)
	Refresh(ctx context.Context, token string) (*auth.IssuedToken, *auth.Claims, error)
	Invalidate(ctx context.Context, token string) error
}

// UserView is an account with its profile, which may be nil.
type UserView struct {
	Account *models.Account `json:"account"`
	Profile *models.Profile `json:"profile"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Account *models.Account
	Profile *models.Profile
	Token   *auth.IssuedToken
}

// Errors callers are expected to handle; anything else is reported as
// common.ErrorInternal after being logged.
var domainErrors = []error{
	common.ErrorNotFound,
	common.ErrPermissionDenied,
	common.ErrValidationFailed,
	common.ErrDuplicateEmail,
	common.ErrDuplicatePhone,
	common.ErrCurrentPasswordMismatch,
	common.ErrInvalidCredentials,
	common.ErrInvalidToken,
	common.ErrTokenExpired,
	common.ErrTokenRevoked,
	common.ErrTokenOperationFailed,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// failure passes domain errors through and turns everything else into
// ErrorInternal, logging the cause with the operation context.
func failure(ctx context.Context, logger logging.Logger, op, actorID string, err error, args ...any) error {
	if isDomainError(err) && !errors.Is(err, common.ErrorInternal) {
		return err
	}
	logger.Error(ctx, "operation failed", append([]any{"op", op, "actor_id", actorID, "error", err}, args...)...)
	return common.ErrorInternal
}

// validID reports whether id can name an account. Ids are UUIDs, and
// anything else cannot match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func loadAccount(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, id string) (*models.Account, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return rm.Accounts(db).GetByID(ctx, id)
}

// loadActor resolves the caller. A caller whose account no longer exists
// holds a token for nobody.
func loadActor(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, actorID string) (*models.Account, error) {
	actor, err := loadAccount(ctx, rm, db, actorID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrInvalidToken
	}
	return actor, err
}

func loadProfile(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, accountID string) (*models.Profile, error) {
	p, err := rm.Profiles(db).GetByAccountID(ctx, accountID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return p, err
}
