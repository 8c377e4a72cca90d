package users_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers implements users.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*users.User, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*users.User, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*users.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*users.User), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *users.User) (*users.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *users.User) (*users.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *users.User, at time.Time) error {
	args := m.Called(ctx, user, at)
	return args.Error(0)
}

func (m *MockUsers) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, clearNeedsChange bool) error {
	args := m.Called(ctx, tx, id, hash, clearNeedsChange)
	return args.Error(0)
}

func (m *MockUsers) AddRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error {
	args := m.Called(ctx, tx, userID, roleID)
	return args.Error(0)
}

func (m *MockUsers) RemoveRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error {
	args := m.Called(ctx, tx, userID, roleID)
	return args.Error(0)
}

func (m *MockUsers) DeleteTx(ctx context.Context, tx bun.IDB, user *users.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUsers) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockRoles implements users.Roles
type MockRoles struct {
	mock.Mock
}

func (m *MockRoles) GetByID(ctx context.Context, id uuid.UUID) (*users.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Role), args.Error(1)
}

func (m *MockRoles) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*users.Role, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Role), args.Error(1)
}

func (m *MockRoles) GetByName(ctx context.Context, name users.RoleName) (*users.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Role), args.Error(1)
}

func (m *MockRoles) GetByNameTx(ctx context.Context, tx bun.IDB, name users.RoleName) (*users.Role, error) {
	args := m.Called(ctx, tx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Role), args.Error(1)
}

func (m *MockRoles) List(ctx context.Context) ([]*users.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*users.Role), args.Error(1)
}

func (m *MockRoles) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*users.Role, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*users.Role), args.Error(1)
}

func (m *MockRoles) Create(ctx context.Context, record *users.Role) (*users.Role, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Role), args.Error(1)
}

func (m *MockRoles) CreateTx(ctx context.Context, tx bun.IDB, record *users.Role) (*users.Role, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Role), args.Error(1)
}

func (m *MockRoles) DeleteTx(ctx context.Context, tx bun.IDB, role *users.Role) error {
	args := m.Called(ctx, tx, role)
	return args.Error(0)
}

func (m *MockRoles) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockVerifications implements users.Verifications
type MockVerifications struct {
	mock.Mock
}

func (m *MockVerifications) GetByEmailAndCode(ctx context.Context, email, code string) (*users.Verification, error) {
	args := m.Called(ctx, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Verification), args.Error(1)
}

func (m *MockVerifications) GetByEmailAndCodeTx(ctx context.Context, tx bun.IDB, email, code string) (*users.Verification, error) {
	args := m.Called(ctx, tx, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Verification), args.Error(1)
}

func (m *MockVerifications) ListByEmail(ctx context.Context, email string) ([]*users.Verification, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*users.Verification), args.Error(1)
}

func (m *MockVerifications) CreateTx(ctx context.Context, tx bun.IDB, record *users.Verification) (*users.Verification, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Verification), args.Error(1)
}

func (m *MockVerifications) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	args := m.Called(ctx, tx, email)
	return args.Error(0)
}

func (m *MockVerifications) ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockVerifications) DeleteTx(ctx context.Context, tx bun.IDB, record *users.Verification) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

// fakeRepoManager runs transaction callbacks inline against the mocked
// stores, so repo expectations can be set directly.
type fakeRepoManager struct {
	users         *MockUsers
	roles         *MockRoles
	verifications *MockVerifications
	txErr         error
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:         &MockUsers{},
		roles:         &MockRoles{},
		verifications: &MockVerifications{},
	}
}

func (f *fakeRepoManager) Validate() error { return nil }

func (f *fakeRepoManager) MustValidate() {}

func (f *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepoManager) Users() users.Users                 { return f.users }
func (f *fakeRepoManager) Roles() users.Roles                 { return f.roles }
func (f *fakeRepoManager) Verifications() users.Verifications { return f.verifications }

// captureDispatcher records dispatched mail for assertions.
type captureDispatcher struct {
	mu    sync.Mutex
	mails []users.Mail
}

func (c *captureDispatcher) Dispatch(msg users.Mail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mails = append(c.mails, msg)
}

func (c *captureDispatcher) sent() []users.Mail {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]users.Mail, len(c.mails))
	copy(out, c.mails)
	return out
}

// fixedCodeSource always returns the same code.
type fixedCodeSource struct {
	code string
}

func (f fixedCodeSource) VerificationCode() (string, error) {
	return f.code, nil
}

// testLogger discards everything.
type testLogger struct{}

func (testLogger) Error(string, ...any) {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Debug(string, ...any) {}
