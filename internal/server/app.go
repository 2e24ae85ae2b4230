// Package server wires configuration, storage, the token denylist, the
// services and the HTTP API into a runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/ThanhLuuv/user-management-backend/internal/server/auth"
	"github.com/ThanhLuuv/user-management-backend/internal/server/config"
	"github.com/ThanhLuuv/user-management-backend/internal/server/denylist"
	"github.com/ThanhLuuv/user-management-backend/internal/server/httpapi"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/repomanager"
	"github.com/ThanhLuuv/user-management-backend/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"
)

const pingTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	denylist denylist.Store
	closers  []io.Closer
	server   *httpapi.Server
}

// Storage is an open, migrated database with its repositories.
type Storage struct {
	DB           *sql.DB
	Repositories repomanager.RepositoryManager
}

// OpenStorage connects to PostgreSQL, applies pending migrations and makes
// sure every role row exists.
func OpenStorage(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	if err := EnsureRoles(ctx, rm, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{DB: db, Repositories: rm}, nil
}

// EnsureRoles creates the fixed role rows if they are missing.
func EnsureRoles(ctx context.Context, rm repomanager.RepositoryManager, db *sql.DB) error {
	for _, r := range models.Roles {
		if _, err := rm.Roles(db).Ensure(ctx, r.Name, r.Description); err != nil {
			return fmt.Errorf("ensure role %s: %w", r.Name, err)
		}
	}
	return nil
}

// NewHasher builds the password hasher the config asks for.
func NewHasher(cfg *config.Config) *auth.Hasher {
	return auth.NewHasher(cfg.PasswordAlgorithm, cfg.BcryptCost, cfg.HashConcurrency)
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	st, err := OpenStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: cfg, logger: logger, db: st.DB}

	store, err := app.newDenylist(ctx, st)
	if err != nil {
		_ = st.DB.Close()
		return nil, fmt.Errorf("denylist init error: %w", err)
	}
	app.denylist = store

	hasher := NewHasher(cfg)
	tokens := auth.NewTokenManager([]byte(cfg.SecretKey), cfg.TokenIssuer, cfg.AccessTokenValidityDuration, store)

	deps := httpapi.Deps{
		Auth:    services.NewAuthService(st.DB, st.Repositories, hasher, tokens, cfg.MinPasswordLength, logger),
		Users:   services.NewUserService(st.DB, st.Repositories, hasher, cfg.MinPasswordLength, logger),
		Health:  st.DB.PingContext,
		Metrics: httpapi.NewMetrics(),
		Logger:  logger,
	}
	if cfg.AvatarsEnabled() {
		deps.Avatars = services.NewAvatarService(st.DB, st.Repositories, cfg, logger)
	}

	app.server = httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(deps), logger)
	return app, nil
}

func (app *App) newDenylist(ctx context.Context, st *Storage) (denylist.Store, error) {
	switch app.config.DenylistBackend {
	case config.DenylistMemory:
		return denylist.NewMemory(), nil
	case config.DenylistRedis:
		r, err := denylist.NewRedis(ctx, app.config.RedisAddr, app.config.RedisPassword, app.config.RedisDB)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, r)
		return r, nil
	default:
		return denylist.NewPostgres(st.Repositories.RevokedTokens(st.DB)), nil
	}
}

// Run serves the API and sweeps the denylist until ctx is cancelled or a
// termination signal arrives. A failure in either stops both.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "denylist", app.config.DenylistBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(gctx)
	})
	g.Go(func() error {
		return denylist.NewSweeper(app.denylist, app.config.DenylistSweepInterval, app.logger).Run(gctx)
	})

	err := g.Wait()
	app.close(context.WithoutCancel(ctx))
	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Warn(ctx, "close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
}
