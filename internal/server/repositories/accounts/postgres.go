package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/dbx"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
)

const selectAccount = `SELECT a.id, a.email, a.password_hash, a.is_active, a.last_login_at, a.email_verified_at,
		a.created_at, a.updated_at, r.id, r.name, r.description
	FROM accounts a
	JOIN roles r ON r.id = a.role_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		acc       models.Account
		lastLogin sql.NullTime
		verified  sql.NullTime
		roleName  string
	)
	err := row.Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.IsActive, &lastLogin, &verified,
		&acc.CreatedAt, &acc.UpdatedAt, &acc.Role.ID, &roleName, &acc.Role.Description)
	if err != nil {
		return nil, err
	}

	name, err := models.ParseRoleName(roleName)
	if err != nil {
		return nil, err
	}
	acc.Role.Name = name
	acc.LastLoginAt = dbx.TimePtr(lastLogin)
	acc.EmailVerifiedAt = dbx.TimePtr(verified)

	return &acc, nil
}

func mapWriteError(err error) error {
	if _, ok := dbx.UniqueViolation(err); ok {
		return common.ErrDuplicateEmail
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, password_hash, role_id, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, acc.Email, acc.PasswordHash, acc.Role.ID, acc.IsActive).
		Scan(&acc.ID, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return acc, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if errors.Is(err, common.ErrRoleNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE a.id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE lower(a.email) = lower($1)`, email)
}

func (r *PostgresRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	query :=
		`SELECT EXISTS (
			SELECT 1 FROM accounts
			WHERE lower(email) = lower($1) AND ($2 = '' OR id::text <> $2)
		 )`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, selectAccount+` ORDER BY a.created_at, a.id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			if errors.Is(err, common.ErrRoleNotConfigured) {
				return nil, err
			}
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, acc *models.Account) error {
	query :=
		`UPDATE accounts
		 SET email = $2, password_hash = $3, role_id = $4, is_active = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, acc.ID, acc.Email, acc.PasswordHash, acc.Role.ID, acc.IsActive).
		Scan(&acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET last_login_at = $2 WHERE id = $1`, id, at)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
}
