package profiles

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileCols = []string{"id", "account_id", "name", "phone", "address", "city", "district", "ward",
	"date_of_birth", "gender", "avatar", "note", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	dob := models.NewDate(1995, time.March, 8)
	g := models.GenderFemale
	p := &models.Profile{AccountID: "a-1", Name: "Lan", Phone: strPtr("0901"), DateOfBirth: &dob, Gender: &g}

	now := time.Now()
	q := `(?s)^INSERT\s+INTO\s+profiles\s*\(account_id,\s*name,\s*phone,.*note\)\s*VALUES\s*\(\$1,.*\$11\)\s*RETURNING\s+id,\s*created_at,\s*updated_at$`
	mock.ExpectQuery(q).
		WithArgs("a-1", "Lan",
			sql.NullString{String: "0901", Valid: true}, sql.NullString{}, sql.NullString{}, sql.NullString{}, sql.NullString{},
			sql.NullTime{Time: dob.Time, Valid: true}, sql.NullString{String: "female", Valid: true},
			sql.NullString{}, sql.NullString{}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("p-1", now, now))

	got, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicatePhone(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+profiles`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "profiles_phone_key"})

	_, err := repo.Create(context.Background(), &models.Profile{AccountID: "a-1", Name: "x", Phone: strPtr("0901")})
	assert.True(t, errors.Is(err, common.ErrDuplicatePhone), "got %v", err)
}

func TestGetByAccountID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	dob := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*account_id,\s*name,.*FROM\s+profiles\s+WHERE\s+account_id\s*=\s*\$1$`).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("p-1", "a-1", "Minh", "0902", "1 Tran Phu", "Hue", nil, nil, dob, "male", nil, "vip", now, now))

	p, err := repo.GetByAccountID(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Minh", p.Name)
	assert.Equal(t, "0902", *p.Phone)
	assert.Nil(t, p.District)
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, dob, p.DateOfBirth.Time)
	require.NotNil(t, p.Gender)
	assert.Equal(t, models.GenderMale, *p.Gender)
	assert.Equal(t, "1 Tran Phu, Hue", p.FullAddress())
}

func TestGetByAccountID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id.*FROM\s+profiles`).WithArgs("a-9").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByAccountID(context.Background(), "a-9")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestPhoneTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+profiles\s+WHERE\s+phone\s*=\s*\$1\s+AND\s+\(\$2\s*=\s*''\s+OR\s+account_id::text\s*<>\s*\$2\)\s*\)$`
	mock.ExpectQuery(q).WithArgs("0901", "a-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q).WithArgs("0901", "").WillReturnError(errors.New("db err"))

	taken, err := repo.PhoneTaken(context.Background(), "0901", "a-1")
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = repo.PhoneTaken(context.Background(), "0901", "")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+profiles\s+SET\s+name\s*=\s*\$2,.*updated_at\s*=\s*now\(\)\s+WHERE\s+account_id\s*=\s*\$1\s+RETURNING\s+updated_at$`
	now := time.Now()
	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WillReturnError(&pgconn.PgError{Code: "23505"})

	p := &models.Profile{AccountID: "a-1", Name: "New"}
	require.NoError(t, repo.Update(context.Background(), p))
	assert.Equal(t, now, p.UpdatedAt)

	assert.True(t, errors.Is(repo.Update(context.Background(), p), common.ErrorNotFound))
	assert.True(t, errors.Is(repo.Update(context.Background(), p), common.ErrDuplicatePhone))
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id.*FROM\s+profiles\s+ORDER\s+BY\s+created_at,\s*id$`).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("p-1", "a-1", "A", nil, nil, nil, nil, nil, nil, nil, nil, nil, now, now).
			AddRow("p-2", "a-2", "B", "0903", nil, nil, nil, nil, nil, "other", nil, nil, now, now))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Phone)
	assert.Equal(t, models.GenderOther, *got[1].Gender)
}
