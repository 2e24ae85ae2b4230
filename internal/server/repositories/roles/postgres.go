package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/dbx"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanRole(row *sql.Row) (*models.Role, error) {
	var (
		role models.Role
		name string
	)
	if err := row.Scan(&role.ID, &name, &role.Description); err != nil {
		return nil, err
	}
	n, err := models.ParseRoleName(name)
	if err != nil {
		return nil, err
	}
	role.Name = n
	return &role, nil
}

func (r *PostgresRepository) Ensure(ctx context.Context, name models.RoleName, description string) (*models.Role, error) {
	// the no-op update makes RETURNING yield the existing row on conflict
	query :=
		`INSERT INTO roles (name, description)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name, description`

	role, err := scanRole(r.db.QueryRowContext(ctx, query, string(name), description))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return role, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	query := `SELECT id, name, description FROM roles WHERE name = $1`

	role, err := scanRole(r.db.QueryRowContext(ctx, query, string(name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", common.ErrRoleNotConfigured, name)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return role, nil
}
