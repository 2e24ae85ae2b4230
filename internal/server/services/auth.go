package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/dbx"
	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/ThanhLuuv/user-management-backend/internal/server/auth"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/repomanager"
)

// RegisterInput is a self-registration request. Profile carries the
// optional profile fields; its Name is ignored in favour of Name.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Profile  models.ProfilePatch
}

// Principal is the authenticated caller behind a bearer token.
type Principal struct {
	Account *models.Account
	Claims  *auth.Claims
	Token   string
}

// AuthService handles registration, login and the bearer token lifecycle.
type AuthService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	hasher            PasswordHasher
	tokens            TokenIssuer
	minPasswordLength int
	logger            logging.Logger
	now               func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer,
	minPasswordLength int, logger logging.Logger) *AuthService {
	return &AuthService{
		db:                db,
		repomanager:       m,
		hasher:            hasher,
		tokens:            tokens,
		minPasswordLength: minPasswordLength,
		logger:            logger.With("module", "auth-service"),
		now:               time.Now,
	}
}

// Register creates an account with the user role and its profile in one
// transaction and signs the first token. Nothing is persisted on failure.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)

	ve := &common.ValidationError{}
	checkEmail(ve, "email", email)
	if err := validationResult(ve); err != nil {
		return nil, err
	}

	// a taken email is reported ahead of the remaining field rules
	taken, err := s.repomanager.Accounts(s.db).EmailTaken(ctx, email, "")
	if err != nil {
		return nil, failure(ctx, s.logger, "register", "", err, "email", email)
	}
	if taken {
		return nil, common.ErrDuplicateEmail
	}

	checkPassword(ve, "password", in.Password, s.minPasswordLength)
	checkName(ve, in.Name)
	checkProfilePatch(ve, in.Profile, "", s.now())
	if err := validationResult(ve); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, failure(ctx, s.logger, "register", "", fmt.Errorf("hash: %w", err), "email", email)
	}

	var result *AuthResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)
		profiles := s.repomanager.Profiles(tx)

		taken, err := accounts.EmailTaken(ctx, email, "")
		if err != nil {
			return err
		}
		if taken {
			return common.ErrDuplicateEmail
		}
		if phone, ok := in.Profile.Phone.Get(); ok {
			taken, err := profiles.PhoneTaken(ctx, phone, "")
			if err != nil {
				return err
			}
			if taken {
				return common.ErrDuplicatePhone
			}
		}

		role, err := s.repomanager.Roles(tx).Ensure(ctx, models.RoleUser, roleDescription(models.RoleUser))
		if err != nil {
			return err
		}

		acc, err := accounts.Create(ctx, &models.Account{
			Email:        email,
			PasswordHash: digest,
			Role:         *role,
			IsActive:     true,
		})
		if err != nil {
			return err
		}

		profile, err := profiles.Create(ctx, newProfile(acc.ID, in.Name, in.Profile))
		if err != nil {
			return err
		}

		token, err := s.tokens.Issue(acc.ID)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		result = &AuthResult{Account: acc, Profile: profile, Token: token}
		return nil
	})
	if err != nil {
		return nil, failure(ctx, s.logger, "register", "", err, "email", email)
	}

	s.logger.Info(ctx, "account registered", "account_id", result.Account.ID)
	return result, nil
}

// Login checks credentials and signs a token. Unknown emails, wrong
// passwords and inactive accounts all fail with the same
// ErrInvalidCredentials, and unknown emails still pay for a hash check.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	acc, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(ctx, password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, failure(ctx, s.logger, "login", "", err, "email", email)
	}

	if !s.hasher.Verify(ctx, password, acc.PasswordHash) || !acc.IsActive {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		return nil, failure(ctx, s.logger, "login", acc.ID, fmt.Errorf("issue token: %w", err))
	}

	now := s.now().UTC()
	if err := s.repomanager.Accounts(s.db).TouchLastLogin(ctx, acc.ID, now); err != nil {
		return nil, failure(ctx, s.logger, "login", acc.ID, err)
	}
	acc.LastLoginAt = &now

	return &AuthResult{Account: acc, Token: token}, nil
}

// Logout revokes the presented token until it expires.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Invalidate(ctx, token); err != nil {
		s.logger.Warn(ctx, "logout failed", "error", err)
		return fmt.Errorf("%w: %v", common.ErrTokenOperationFailed, err)
	}
	return nil
}

// Refresh exchanges a valid token for a new one and revokes the old one.
func (s *AuthService) Refresh(ctx context.Context, token string) (*auth.IssuedToken, error) {
	issued, claims, err := s.tokens.Refresh(ctx, token)
	if err != nil {
		return nil, failure(ctx, s.logger, "refresh", "", err)
	}
	s.logger.Debug(ctx, "token refreshed", "account_id", claims.AccountID())
	return issued, nil
}

// Authenticate verifies a bearer token and loads the account it names.
// Deleted or deactivated accounts invalidate their tokens.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, failure(ctx, s.logger, "authenticate", "", err)
	}

	acc, err := loadActor(ctx, s.repomanager, s.db, claims.AccountID())
	if err != nil {
		return nil, failure(ctx, s.logger, "authenticate", claims.AccountID(), err)
	}
	if !acc.IsActive {
		return nil, common.ErrInvalidToken
	}

	return &Principal{Account: acc, Claims: claims, Token: token}, nil
}

// Me returns the caller's account and profile.
func (s *AuthService) Me(ctx context.Context, actorID string) (*UserView, error) {
	acc, err := loadAccount(ctx, s.repomanager, s.db, actorID)
	if err != nil {
		return nil, failure(ctx, s.logger, "me", actorID, err)
	}
	profile, err := loadProfile(ctx, s.repomanager, s.db, acc.ID)
	if err != nil {
		return nil, failure(ctx, s.logger, "me", actorID, err)
	}
	return &UserView{Account: acc, Profile: profile}, nil
}

// ChangePassword replaces the caller's password after checking the current
// one. Resubmitting the current password is rejected.
func (s *AuthService) ChangePassword(ctx context.Context, actorID, currentPassword, newPassword string) error {
	ve := &common.ValidationError{}
	if currentPassword == "" {
		ve.Add("current_password", "is required")
	}
	checkPassword(ve, "new_password", newPassword, s.minPasswordLength)
	if err := validationResult(ve); err != nil {
		return err
	}

	acc, err := loadAccount(ctx, s.repomanager, s.db, actorID)
	if err != nil {
		return failure(ctx, s.logger, "change_password", actorID, err)
	}

	if !s.hasher.Verify(ctx, currentPassword, acc.PasswordHash) {
		return common.ErrCurrentPasswordMismatch
	}
	if currentPassword == newPassword {
		return common.ErrPasswordUnchanged
	}

	digest, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return failure(ctx, s.logger, "change_password", actorID, fmt.Errorf("hash: %w", err))
	}
	if err := s.repomanager.Accounts(s.db).UpdatePassword(ctx, acc.ID, digest); err != nil {
		return failure(ctx, s.logger, "change_password", actorID, err)
	}

	s.logger.Info(ctx, "password changed", "account_id", acc.ID)
	return nil
}

// RequestPasswordReset accepts any well-formed email and reports success
// whether or not an account exists. No message is sent yet.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	ve := &common.ValidationError{}
	checkEmail(ve, "email", email)
	if err := validationResult(ve); err != nil {
		return err
	}

	s.logger.Info(ctx, "password reset requested")
	return nil
}

// VerifyEmail is accepted and always succeeds. Verification links are not
// issued yet.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	s.logger.Debug(ctx, "email verification requested")
	return nil
}

// ResendEmailVerification is accepted and always succeeds.
func (s *AuthService) ResendEmailVerification(ctx context.Context, actorID string) error {
	s.logger.Debug(ctx, "email verification resend requested", "account_id", actorID)
	return nil
}

func roleDescription(name models.RoleName) string {
	for _, r := range models.Roles {
		if r.Name == name {
			return r.Description
		}
	}
	return ""
}

func newProfile(accountID, name string, patch models.ProfilePatch) *models.Profile {
	p := &models.Profile{AccountID: accountID}
	patch.ApplyTo(p)
	p.Name = name
	return p
}
