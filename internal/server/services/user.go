package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/dbx"
	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/policy"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/repomanager"
)

// CreateUserInput is an administrative account creation. Role defaults to
// the user role.
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     models.RoleName
	Profile  models.ProfilePatch
}

// UpdateUserInput is a partial update of an account and its profile.
type UpdateUserInput struct {
	Account models.AccountPatch
	Profile models.ProfilePatch
}

// UserService manages accounts on behalf of an actor. Each operation asks
// the policy engine first and fails with ErrPermissionDenied before reading
// the target.
type UserService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	hasher            PasswordHasher
	minPasswordLength int
	logger            logging.Logger
	now               func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, minPasswordLength int,
	logger logging.Logger) *UserService {
	return &UserService{
		db:                db,
		repomanager:       m,
		hasher:            hasher,
		minPasswordLength: minPasswordLength,
		logger:            logger.With("module", "user-service"),
		now:               time.Now,
	}
}

func (s *UserService) authorize(ctx context.Context, actorID string, action policy.Action, targetID string) (*models.Account, error) {
	actor, err := loadActor(ctx, s.repomanager, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, action, targetID); err != nil {
		s.logger.Warn(ctx, "permission denied", "actor_id", actorID, "action", action.String(), "target_id", targetID)
		return nil, err
	}
	return actor, nil
}

// List returns every account with its profile, oldest first.
func (s *UserService) List(ctx context.Context, actorID string) ([]*UserView, error) {
	if _, err := s.authorize(ctx, actorID, policy.ViewAny, ""); err != nil {
		return nil, failure(ctx, s.logger, "list_users", actorID, err)
	}

	accounts, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		return nil, failure(ctx, s.logger, "list_users", actorID, err)
	}
	profiles, err := s.repomanager.Profiles(s.db).List(ctx)
	if err != nil {
		return nil, failure(ctx, s.logger, "list_users", actorID, err)
	}

	byAccount := make(map[string]*models.Profile, len(profiles))
	for _, p := range profiles {
		byAccount[p.AccountID] = p
	}

	out := make([]*UserView, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, &UserView{Account: acc, Profile: byAccount[acc.ID]})
	}
	return out, nil
}

// Get returns one account with its profile.
func (s *UserService) Get(ctx context.Context, actorID, targetID string) (*UserView, error) {
	if _, err := s.authorize(ctx, actorID, policy.View, targetID); err != nil {
		return nil, failure(ctx, s.logger, "get_user", actorID, err)
	}

	view, err := s.load(ctx, s.db, targetID)
	if err != nil {
		return nil, failure(ctx, s.logger, "get_user", actorID, err, "target_id", targetID)
	}
	return view, nil
}

func (s *UserService) load(ctx context.Context, db dbx.DBTX, id string) (*UserView, error) {
	acc, err := loadAccount(ctx, s.repomanager, db, id)
	if err != nil {
		return nil, err
	}
	profile, err := loadProfile(ctx, s.repomanager, db, acc.ID)
	if err != nil {
		return nil, err
	}
	return &UserView{Account: acc, Profile: profile}, nil
}

// Create adds an account on behalf of an admin.
func (s *UserService) Create(ctx context.Context, actorID string, in CreateUserInput) (*UserView, error) {
	if _, err := s.authorize(ctx, actorID, policy.Create, ""); err != nil {
		return nil, failure(ctx, s.logger, "create_user", actorID, err)
	}
	return s.create(ctx, "create_user", actorID, in)
}

// Seed creates an account without an acting caller. It backs the admin
// command that provisions the first administrator and must not be reachable
// from the API.
func (s *UserService) Seed(ctx context.Context, in CreateUserInput) (*UserView, error) {
	return s.create(ctx, "seed_user", "", in)
}

func (s *UserService) create(ctx context.Context, op, actorID string, in CreateUserInput) (*UserView, error) {
	email := normalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	ve := &common.ValidationError{}
	checkEmail(ve, "email", email)
	checkPassword(ve, "password", in.Password, s.minPasswordLength)
	checkName(ve, in.Name)
	if !role.Valid() {
		ve.Add("role", "must be one of admin, user")
	}
	checkProfilePatch(ve, in.Profile, "", s.now())
	if err := validationResult(ve); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, failure(ctx, s.logger, op, actorID, fmt.Errorf("hash: %w", err))
	}

	var view *UserView
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkUnique(ctx, tx, email, in.Profile.Phone, ""); err != nil {
			return err
		}

		r, err := s.repomanager.Roles(tx).Ensure(ctx, role, roleDescription(role))
		if err != nil {
			return err
		}

		acc, err := s.repomanager.Accounts(tx).Create(ctx, &models.Account{
			Email:        email,
			PasswordHash: digest,
			Role:         *r,
			IsActive:     true,
		})
		if err != nil {
			return err
		}

		profile, err := s.repomanager.Profiles(tx).Create(ctx, newProfile(acc.ID, in.Name, in.Profile))
		if err != nil {
			return err
		}

		view = &UserView{Account: acc, Profile: profile}
		return nil
	})
	if err != nil {
		return nil, failure(ctx, s.logger, op, actorID, err, "email", email)
	}

	s.logger.Info(ctx, "account created", "actor_id", actorID, "account_id", view.Account.ID)
	return view, nil
}

// checkUnique fails when email or phone belong to an account other than
// excludeID. An empty email skips the email check.
func (s *UserService) checkUnique(ctx context.Context, tx dbx.DBTX, email string, phone models.Optional[string], excludeID string) error {
	if email != "" {
		taken, err := s.repomanager.Accounts(tx).EmailTaken(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrDuplicateEmail
		}
	}
	if p, ok := phone.Get(); ok {
		taken, err := s.repomanager.Profiles(tx).PhoneTaken(ctx, p, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrDuplicatePhone
		}
	}
	return nil
}

// validateUpdate checks the patch fields. Whether a name is required
// depends on the stored profile and is checked inside the transaction.
func (s *UserService) validateUpdate(targetID string, in UpdateUserInput) error {
	ve := &common.ValidationError{}

	if in.Account.Email.IsNull() {
		ve.Add("email", "cannot be null")
	} else if email, ok := in.Account.Email.Get(); ok {
		checkEmail(ve, "email", normalizeEmail(email))
	}
	if in.Account.Password.IsNull() {
		ve.Add("password", "cannot be null")
	} else if pw, ok := in.Account.Password.Get(); ok {
		checkPassword(ve, "password", pw, s.minPasswordLength)
	}
	if in.Account.Role.IsNull() {
		ve.Add("role", "cannot be null")
	} else if role, ok := in.Account.Role.Get(); ok && !role.Valid() {
		ve.Add("role", "must be one of admin, user")
	}
	if in.Account.IsActive.IsNull() {
		ve.Add("is_active", "cannot be null")
	}

	if in.Profile.Name.IsNull() {
		ve.Add("name", "cannot be null")
	} else if name, ok := in.Profile.Name.Get(); ok {
		checkName(ve, name)
	}
	checkProfilePatch(ve, in.Profile, targetID, s.now())

	return validationResult(ve)
}

// Update applies a partial update to the target account and upserts its
// profile. Only admins may change the role or the active flag, and only for
// another account may they set the password directly. Callers change their
// own password through AuthService.ChangePassword.
func (s *UserService) Update(ctx context.Context, actorID, targetID string, in UpdateUserInput) (*UserView, error) {
	actor, err := s.authorize(ctx, actorID, policy.Update, targetID)
	if err != nil {
		return nil, failure(ctx, s.logger, "update_user", actorID, err)
	}
	if (in.Account.Role.IsSet() || in.Account.IsActive.IsSet()) && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may change role or status", common.ErrPermissionDenied)
	}
	if in.Account.Password.IsSet() && (!actor.IsAdmin() || actor.ID == targetID) {
		return nil, fmt.Errorf("%w: use change-password to change your own password", common.ErrPermissionDenied)
	}

	if err := s.validateUpdate(targetID, in); err != nil {
		return nil, err
	}

	var digest string
	if pw, ok := in.Account.Password.Get(); ok {
		digest, err = s.hasher.Hash(ctx, pw)
		if err != nil {
			return nil, failure(ctx, s.logger, "update_user", actorID, fmt.Errorf("hash: %w", err))
		}
	}

	var view *UserView
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := s.load(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if current.Profile == nil && !in.Profile.Empty() && !in.Profile.Name.IsSet() {
			return common.NewValidationError("name", "is required")
		}

		acc := current.Account
		email := ""
		if v, ok := in.Account.Email.Get(); ok {
			email = normalizeEmail(v)
		}
		if err := s.checkUnique(ctx, tx, email, in.Profile.Phone, acc.ID); err != nil {
			return err
		}

		if !in.Account.Empty() {
			if email != "" {
				acc.Email = email
			}
			if digest != "" {
				acc.PasswordHash = digest
			}
			if name, ok := in.Account.Role.Get(); ok && name != acc.Role.Name {
				role, err := s.repomanager.Roles(tx).GetByName(ctx, name)
				if err != nil {
					return err
				}
				acc.Role = *role
			}
			if active, ok := in.Account.IsActive.Get(); ok {
				acc.IsActive = active
			}
			if err := s.repomanager.Accounts(tx).Update(ctx, acc); err != nil {
				return err
			}
		}

		profile := current.Profile
		if !in.Profile.Empty() {
			if profile == nil {
				name, _ := in.Profile.Name.Get()
				profile, err = s.repomanager.Profiles(tx).Create(ctx, newProfile(acc.ID, name, in.Profile))
				if err != nil {
					return err
				}
			} else {
				in.Profile.ApplyTo(profile)
				if err := s.repomanager.Profiles(tx).Update(ctx, profile); err != nil {
					return err
				}
			}
		}

		view = &UserView{Account: acc, Profile: profile}
		return nil
	})
	if err != nil {
		return nil, failure(ctx, s.logger, "update_user", actorID, err, "target_id", targetID)
	}

	s.logger.Info(ctx, "account updated", "actor_id", actorID, "account_id", targetID)
	return view, nil
}

// Delete removes the target account; its profile goes with it. Admins
// cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) error {
	if _, err := s.authorize(ctx, actorID, policy.Delete, targetID); err != nil {
		return failure(ctx, s.logger, "delete_user", actorID, err)
	}
	if !validID(targetID) {
		return common.ErrorNotFound
	}

	if err := s.repomanager.Accounts(s.db).Delete(ctx, targetID); err != nil {
		return failure(ctx, s.logger, "delete_user", actorID, err, "target_id", targetID)
	}

	s.logger.Info(ctx, "account deleted", "actor_id", actorID, "account_id", targetID)
	return nil
}
