package httpapi

import (
	"context"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/auth"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
	adminID    = "11111111-1111-1111-1111-111111111111"
	userID     = "22222222-2222-2222-2222-222222222222"
)

func issued(token string) *auth.IssuedToken {
	return &auth.IssuedToken{Token: token, Type: common.TokenType, ExpiresIn: 3600, ExpiresAt: time.Now().Add(time.Hour)}
}

func account(id, email string, role models.RoleName) *models.Account {
	return &models.Account{ID: id, Email: email, Role: models.Role{Name: role}, IsActive: true}
}

// fakeAuth resolves adminToken and userToken; every other token fails with
// authErr, or ErrInvalidToken when authErr is nil.
type fakeAuth struct {
	authErr error
	err     error

	registered services.RegisterInput
	loginArgs  [2]string
	loggedOut  []string
	changed    [3]string
	resetFor   string
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*services.Principal, error) {
	switch token {
	case adminToken:
		return &services.Principal{Account: account(adminID, "admin@x.com", models.RoleAdmin), Token: token}, nil
	case userToken:
		return &services.Principal{Account: account(userID, "user@x.com", models.RoleUser), Token: token}, nil
	}
	if f.authErr != nil {
		return nil, f.authErr
	}
	return nil, common.ErrInvalidToken
}

func (f *fakeAuth) Register(_ context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	f.registered = in
	if f.err != nil {
		return nil, f.err
	}
	acc := account(userID, in.Email, models.RoleUser)
	return &services.AuthResult{
		Account: acc,
		Profile: &models.Profile{ID: "p1", AccountID: acc.ID, Name: in.Name},
		Token:   issued("new-token"),
	}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*services.AuthResult, error) {
	f.loginArgs = [2]string{email, password}
	if f.err != nil {
		return nil, f.err
	}
	return &services.AuthResult{Account: account(userID, email, models.RoleUser), Token: issued("login-token")}, nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return f.err
}

func (f *fakeAuth) Refresh(_ context.Context, token string) (*auth.IssuedToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	return issued("refreshed-" + token), nil
}

func (f *fakeAuth) Me(_ context.Context, actorID string) (*services.UserView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.UserView{Account: account(actorID, "user@x.com", models.RoleUser)}, nil
}

func (f *fakeAuth) ChangePassword(_ context.Context, actorID, current, next string) error {
	f.changed = [3]string{actorID, current, next}
	return f.err
}

func (f *fakeAuth) RequestPasswordReset(_ context.Context, email string) error {
	f.resetFor = email
	return f.err
}

func (f *fakeAuth) VerifyEmail(context.Context, string) error { return f.err }

func (f *fakeAuth) ResendEmailVerification(context.Context, string) error { return f.err }

type updateCall struct {
	actorID, targetID string
	in                services.UpdateUserInput
}

type fakeUsers struct {
	err     error
	created services.CreateUserInput
	updates []updateCall
	deleted []string
	gets    [][2]string
}

func (f *fakeUsers) List(_ context.Context, actorID string) ([]*services.UserView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*services.UserView{
		{Account: account(adminID, "admin@x.com", models.RoleAdmin)},
		{Account: account(userID, "user@x.com", models.RoleUser)},
	}, nil
}

func (f *fakeUsers) Get(_ context.Context, actorID, targetID string) (*services.UserView, error) {
	f.gets = append(f.gets, [2]string{actorID, targetID})
	if f.err != nil {
		return nil, f.err
	}
	return &services.UserView{Account: account(targetID, "t@x.com", models.RoleUser)}, nil
}

func (f *fakeUsers) Create(_ context.Context, actorID string, in services.CreateUserInput) (*services.UserView, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &services.UserView{Account: account("33333333-3333-3333-3333-333333333333", in.Email, in.Role)}, nil
}

func (f *fakeUsers) Update(_ context.Context, actorID, targetID string, in services.UpdateUserInput) (*services.UserView, error) {
	f.updates = append(f.updates, updateCall{actorID: actorID, targetID: targetID, in: in})
	if f.err != nil {
		return nil, f.err
	}
	return &services.UserView{Account: account(targetID, "t@x.com", models.RoleUser)}, nil
}

func (f *fakeUsers) Delete(_ context.Context, actorID, targetID string) error {
	f.deleted = append(f.deleted, targetID)
	return f.err
}

type fakeAvatars struct {
	err error
}

func (f *fakeAvatars) PresignUpload(_ context.Context, actorID string) (*services.AvatarUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.AvatarUpload{Key: "avatars/" + actorID + "/k", URL: "http://s3/put", ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (f *fakeAvatars) PresignDownload(_ context.Context, actorID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "http://s3/get", nil
}
