package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ThanhLuuv/user-management-backend/internal/common"
	"github.com/ThanhLuuv/user-management-backend/internal/dbx"
	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/ThanhLuuv/user-management-backend/internal/server/auth"
	"github.com/ThanhLuuv/user-management-backend/internal/server/denylist"
	"github.com/ThanhLuuv/user-management-backend/internal/server/models"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/accounts"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/profiles"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/revokedtokens"
	"github.com/ThanhLuuv/user-management-backend/internal/server/repositories/roles"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memStore backs the fake repositories. It does not model transactions;
// tests check rollback through sqlmock expectations instead.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	order    []string
	profiles map[string]*models.Profile
	roles    map[models.RoleName]*models.Role
	failOn   map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]*models.Account),
		profiles: make(map[string]*models.Profile),
		roles:    make(map[models.RoleName]*models.Role),
		failOn:   make(map[string]error),
	}
}

func (s *memStore) fail(op string) error { return s.failOn[op] }

func cloneAccount(a *models.Account) *models.Account { c := *a; return &c }
func cloneProfile(p *models.Profile) *models.Profile { c := *p; return &c }

type fakeAccounts struct{ s *memStore }

func (f *fakeAccounts) Create(_ context.Context, acc *models.Account) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.Create"); err != nil {
		return nil, err
	}
	for _, a := range f.s.accounts {
		if strings.EqualFold(a.Email, acc.Email) {
			return nil, common.ErrDuplicateEmail
		}
	}
	acc.ID = uuid.NewString()
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = acc.CreatedAt
	f.s.accounts[acc.ID] = cloneAccount(acc)
	f.s.order = append(f.s.order, acc.ID)
	return acc, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.GetByID"); err != nil {
		return nil, err
	}
	a, ok := f.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAccount(a), nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.GetByEmail"); err != nil {
		return nil, err
	}
	for _, a := range f.s.accounts {
		if strings.EqualFold(a.Email, email) {
			return cloneAccount(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.EmailTaken"); err != nil {
		return false, err
	}
	for id, a := range f.s.accounts {
		if id != excludeID && strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccounts) List(context.Context) ([]*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.List"); err != nil {
		return nil, err
	}
	var out []*models.Account
	for _, id := range f.s.order {
		if a, ok := f.s.accounts[id]; ok {
			out = append(out, cloneAccount(a))
		}
	}
	return out, nil
}

func (f *fakeAccounts) Update(_ context.Context, acc *models.Account) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.Update"); err != nil {
		return err
	}
	if _, ok := f.s.accounts[acc.ID]; !ok {
		return common.ErrorNotFound
	}
	acc.UpdatedAt = time.Now()
	f.s.accounts[acc.ID] = cloneAccount(acc)
	return nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.UpdatePassword"); err != nil {
		return err
	}
	a, ok := f.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (f *fakeAccounts) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.TouchLastLogin"); err != nil {
		return err
	}
	a, ok := f.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.LastLoginAt = &at
	return nil
}

func (f *fakeAccounts) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("accounts.Delete"); err != nil {
		return err
	}
	if _, ok := f.s.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.accounts, id)
	delete(f.s.profiles, id)
	return nil
}

type fakeProfiles struct{ s *memStore }

func (f *fakeProfiles) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("profiles.Create"); err != nil {
		return nil, err
	}
	if p.Phone != nil {
		for _, other := range f.s.profiles {
			if other.Phone != nil && *other.Phone == *p.Phone {
				return nil, common.ErrDuplicatePhone
			}
		}
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.s.profiles[p.AccountID] = cloneProfile(p)
	return p, nil
}

func (f *fakeProfiles) GetByAccountID(_ context.Context, accountID string) (*models.Profile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.profiles[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneProfile(p), nil
}

func (f *fakeProfiles) PhoneTaken(_ context.Context, phone, excludeAccountID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, p := range f.s.profiles {
		if id != excludeAccountID && p.Phone != nil && *p.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProfiles) Update(_ context.Context, p *models.Profile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("profiles.Update"); err != nil {
		return err
	}
	if _, ok := f.s.profiles[p.AccountID]; !ok {
		return common.ErrorNotFound
	}
	p.UpdatedAt = time.Now()
	f.s.profiles[p.AccountID] = cloneProfile(p)
	return nil
}

func (f *fakeProfiles) List(context.Context) ([]*models.Profile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]*models.Profile, 0, len(f.s.profiles))
	for _, p := range f.s.profiles {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

type fakeRoles struct{ s *memStore }

func (f *fakeRoles) Ensure(_ context.Context, name models.RoleName, description string) (*models.Role, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("roles.Ensure"); err != nil {
		return nil, err
	}
	if r, ok := f.s.roles[name]; ok {
		c := *r
		return &c, nil
	}
	r := &models.Role{ID: int64(len(f.s.roles) + 1), Name: name, Description: description}
	f.s.roles[name] = r
	c := *r
	return &c, nil
}

func (f *fakeRoles) GetByName(_ context.Context, name models.RoleName) (*models.Role, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.roles[name]
	if !ok {
		return nil, common.ErrRoleNotConfigured
	}
	c := *r
	return &c, nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository           { return &fakeAccounts{m.s} }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository           { return &fakeProfiles{m.s} }
func (m *fakeRepoManager) Roles(dbx.DBTX) roles.Repository                 { return &fakeRoles{m.s} }
func (m *fakeRepoManager) RevokedTokens(dbx.DBTX) revokedtokens.Repository { return nil }

type fixture struct {
	db     *sql.DB
	mock   sqlmock.Sqlmock
	store  *memStore
	rm     *fakeRepoManager
	hasher *auth.Hasher
	tokens *auth.TokenManager
	auth   *AuthService
	users  *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	hasher := auth.NewHasher(auth.AlgorithmBcrypt, bcrypt.MinCost, 4)
	tokens := auth.NewTokenManager([]byte("test-secret"), "test", time.Hour, denylist.NewMemory())

	return &fixture{
		db:     db,
		mock:   mock,
		store:  store,
		rm:     rm,
		hasher: hasher,
		tokens: tokens,
		auth:   NewAuthService(db, rm, hasher, tokens, 8, logging.Nop{}),
		users:  NewUserService(db, rm, hasher, 8, logging.Nop{}),
	}
}

// seed stores an account and, when name is non-empty, its profile without
// going through the services.
func (f *fixture) seed(t *testing.T, email, password string, role models.RoleName, name string) *models.Account {
	t.Helper()
	ctx := context.Background()

	digest, err := f.hasher.Hash(ctx, password)
	require.NoError(t, err)
	r, err := f.rm.Roles(nil).Ensure(ctx, role, roleDescription(role))
	require.NoError(t, err)

	acc, err := f.rm.Accounts(nil).Create(ctx, &models.Account{
		Email: email, PasswordHash: digest, Role: *r, IsActive: true,
	})
	require.NoError(t, err)

	if name != "" {
		_, err := f.rm.Profiles(nil).Create(ctx, &models.Profile{AccountID: acc.ID, Name: name})
		require.NoError(t, err)
	}
	return acc
}

func (f *fixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func (f *fixture) accountCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.accounts)
}

func strp(s string) *string { return &s }
