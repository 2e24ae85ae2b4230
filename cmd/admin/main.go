// Command admin runs maintenance tasks against the account database.
//
//	admin seed [-email admin@example.com] [-name Admin]
//	admin gen-secret
//	admin prune-tokens
//	admin set-avatar -email user@example.com -file avatar.png
//
// Database and hashing settings come from the same layers as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThanhLuuv/user-management-backend/internal/admin"
	"github.com/ThanhLuuv/user-management-backend/internal/flagx"
	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/ThanhLuuv/user-management-backend/internal/server"
	"github.com/ThanhLuuv/user-management-backend/internal/server/config"
	"github.com/ThanhLuuv/user-management-backend/internal/server/denylist"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <seed|gen-secret|prune-tokens|set-avatar> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := admin.NewApp(os.Stdin, os.Stdout)

	var err error
	switch os.Args[1] {
	case "gen-secret":
		err = app.GenSecret()
	case "seed":
		err = seed(ctx, app)
	case "prune-tokens":
		err = pruneTokens(ctx, app)
	case "set-avatar":
		err = setAvatar(ctx, app)
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func seed(ctx context.Context, app *admin.App) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	name := fs.String("name", "", "admin display name")
	if err := fs.Parse(flagx.FilterArgs(os.Args[2:], []string{"-email", "-name"})); err != nil {
		return err
	}

	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return err
	}
	st, err := server.OpenStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer st.DB.Close()

	users := services.NewUserService(st.DB, st.Repositories, server.NewHasher(cfg), cfg.MinPasswordLength, logging.Nop{})
	return app.SeedAdmin(ctx, users, *email, *name)
}

func pruneTokens(ctx context.Context, app *admin.App) error {
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return err
	}
	st, err := server.OpenStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer st.DB.Close()

	return app.PruneTokens(ctx, denylist.NewPostgres(st.Repositories.RevokedTokens(st.DB)))
}

func setAvatar(ctx context.Context, app *admin.App) error {
	fs := flag.NewFlagSet("set-avatar", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	file := fs.String("file", "", "image file")
	if err := fs.Parse(flagx.FilterArgs(os.Args[2:], []string{"-email", "-file"})); err != nil {
		return err
	}
	if *email == "" || *file == "" {
		return errors.New("-email and -file are required")
	}

	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return err
	}
	if !cfg.AvatarsEnabled() {
		return errors.New("object storage is not configured (S3_BUCKET)")
	}
	st, err := server.OpenStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer st.DB.Close()

	logger := logging.Nop{}
	find := func(ctx context.Context, email string) (*models.Account, error) {
		return st.Repositories.Accounts(st.DB).GetByEmail(ctx, email)
	}
	avatars := services.NewAvatarService(st.DB, st.Repositories, cfg, logger)
	users := services.NewUserService(st.DB, st.Repositories, server.NewHasher(cfg), cfg.MinPasswordLength, logger)
	return app.SetAvatar(ctx, find, avatars, users, *email, *file)
}
