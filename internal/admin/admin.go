// Package admin implements the maintenance commands run next to the server:
// provisioning the first administrator, generating signing secrets and
// pruning expired revoked tokens.
package admin

import (
	"bufio"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
)

// SecretBytes is the entropy of generated signing secrets.
const SecretBytes = 32

var ErrPasswordMismatch = errors.New("passwords do not match")

// Seeder is satisfied by *services.UserService.
type Seeder interface {
	Seed(ctx context.Context, in services.CreateUserInput) (*services.UserView, error)
}

// Pruner is satisfied by the denylist stores.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}

type App struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{reader: bufio.NewReader(in), out: out}
}

// SeedAdmin creates an administrator. Missing email or name are prompted
// for; the password is always read from the terminal twice. An existing
// account with that email is reported and left untouched.
func (a *App) SeedAdmin(ctx context.Context, s Seeder, email, name string) error {
	var err error
	if email == "" {
		if email, err = GetSimpleText(a.reader, "Enter admin email", a.out); err != nil {
			return err
		}
	}
	if name == "" {
		if name, err = GetSimpleText(a.reader, "Enter admin name", a.out); err != nil {
			return err
		}
	}

	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword(a.out, "Repeat password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if subtle.ConstantTimeCompare(password, confirm) != 1 {
		return ErrPasswordMismatch
	}

	view, err := s.Seed(ctx, services.CreateUserInput{
		Email:    email,
		Password: string(password),
		Name:     name,
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, common.ErrDuplicateEmail) {
		fmt.Fprintf(a.out, "An account with email %s already exists\n", email)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created admin %s (id %s)\n", view.Account.Email, view.Account.ID)
	return nil
}

// GenSecret prints a random hex secret suitable for JWT_SECRET.
func (a *App) GenSecret() error {
	s, err := common.MakeRandHexString(SecretBytes)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, s)
	return err
}

// PruneTokens drops denylist entries whose token has already expired.
func (a *App) PruneTokens(ctx context.Context, p Pruner) error {
	n, err := p.Prune(ctx, time.Now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Pruned %d expired revoked tokens\n", n)
	return err
}
