package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/dbx"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
)

const selectProfile = `SELECT id, account_id, name, phone, address, city, district, ward, date_of_birth, gender,
		avatar, note, created_at, updated_at
	FROM profiles`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p                                             models.Profile
		phone, address, city, district, ward, gender sql.NullString
		avatar, note                                  sql.NullString
		dob                                           sql.NullTime
	)
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &phone, &address, &city, &district, &ward, &dob, &gender,
		&avatar, &note, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Phone = dbx.StringPtr(phone)
	p.Address = dbx.StringPtr(address)
	p.City = dbx.StringPtr(city)
	p.District = dbx.StringPtr(district)
	p.Ward = dbx.StringPtr(ward)
	p.Avatar = dbx.StringPtr(avatar)
	p.Note = dbx.StringPtr(note)
	if dob.Valid {
		p.DateOfBirth = &models.Date{Time: dob.Time}
	}
	if gender.Valid {
		g := models.Gender(gender.String)
		p.Gender = &g
	}

	return &p, nil
}

// columns shared by insert and update, in placeholder order after the key
func writeArgs(p *models.Profile) []any {
	var dob sql.NullTime
	if p.DateOfBirth != nil {
		dob = sql.NullTime{Time: p.DateOfBirth.Time, Valid: true}
	}
	var gender sql.NullString
	if p.Gender != nil {
		gender = sql.NullString{String: string(*p.Gender), Valid: true}
	}
	return []any{
		p.Name, dbx.NullString(p.Phone), dbx.NullString(p.Address), dbx.NullString(p.City),
		dbx.NullString(p.District), dbx.NullString(p.Ward), dob, gender,
		dbx.NullString(p.Avatar), dbx.NullString(p.Note),
	}
}

func mapWriteError(err error) error {
	if _, ok := dbx.UniqueViolation(err); ok {
		return common.ErrDuplicatePhone
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query :=
		`INSERT INTO profiles (account_id, name, phone, address, city, district, ward, date_of_birth, gender, avatar, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`

	args := append([]any{p.AccountID}, writeArgs(p)...)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapWriteError(err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, selectProfile+` WHERE account_id = $1`, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) PhoneTaken(ctx context.Context, phone, excludeAccountID string) (bool, error) {
	query :=
		`SELECT EXISTS (
			SELECT 1 FROM profiles
			WHERE phone = $1 AND ($2 = '' OR account_id::text <> $2)
		 )`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, phone, excludeAccountID).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Profile) error {
	query :=
		`UPDATE profiles
		 SET name = $2, phone = $3, address = $4, city = $5, district = $6, ward = $7,
		     date_of_birth = $8, gender = $9, avatar = $10, note = $11, updated_at = now()
		 WHERE account_id = $1
		 RETURNING updated_at`

	args := append([]any{p.AccountID}, writeArgs(p)...)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, selectProfile+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
