package user_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) error {
	args := m.Called(ctx, id, name, phone)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserRepository) SetRole(ctx context.Context, id uuid.UUID, role user.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (d *memoryDenylist) Revoke(_ context.Context, id string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.revoked == nil {
		d.revoked = make(map[string]time.Time)
	}
	d.revoked[id] = until
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[id]
	return ok, nil
}

type capturingNotifier struct {
	sent []string
}

func (n *capturingNotifier) SendPasswordReset(_ context.Context, _ user.User, token string) error {
	n.sent = append(n.sent, token)
	return nil
}

func newService(repo user.Repository) (user.Service, *capturingNotifier) {
	notifier := &capturingNotifier{}
	tokens := user.NewTokenIssuer("test-secret", time.Hour, 15*time.Minute)
	return user.NewService(repo, tokens, &memoryDenylist{}, notifier), notifier
}

func storedUser(t *testing.T, password string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &user.User{ID: uuid.Must(uuid.NewV4()), Name: "Ama", Email: "ama@example.com", Role: user.RoleCustomer, PasswordHash: string(hash)}
}

func TestUserService_SignUp(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		userName  string
		repoErr   error
		wantErrIs error
	}{
		{name: "success", email: "ama@example.com", password: "password123", userName: "Ama"},
		{name: "short_password", email: "ama@example.com", password: "short", userName: "Ama", wantErrIs: user.ErrInvalidUser},
		{name: "bad_email", email: "ama-at-example", password: "password123", userName: "Ama", wantErrIs: user.ErrInvalidUser},
		{name: "no_name", email: "ama@example.com", password: "password123", wantErrIs: user.ErrInvalidUser},
		{name: "duplicate", email: "ama@example.com", password: "password123", userName: "Ama", repoErr: user.ErrEmailExists, wantErrIs: user.ErrEmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			svc, _ := newService(repo)

			if tt.wantErrIs == nil || tt.repoErr != nil {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
					return u.Role == user.RoleCustomer &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(tt.password)) == nil
				})).Return(tt.repoErr).Once()
			}

			created, err := svc.SignUp(context.Background(), tt.email, tt.password, tt.userName, "")
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			} else {
				require.NoError(t, err)
				assert.Equal(t, user.RoleCustomer, created.Role)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_SignInAndOut(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc, _ := newService(repo)
	u := storedUser(t, "password123")

	repo.On("GetByEmail", mock.Anything, "ama@example.com").Return(u, nil)
	repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, user.ErrNotFound)

	_, _, err := svc.SignIn(ctx, "ama@example.com", "wrong-password")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	_, _, err = svc.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	got, token, err := svc.SignIn(ctx, "ama@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID())

	require.NoError(t, svc.SignOut(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, user.ErrTokenRevoked)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, user.ErrInvalidToken)
}

func TestUserService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc, notifier := newService(repo)
	u := storedUser(t, "password123")

	repo.On("GetByEmail", mock.Anything, "unknown@example.com").Return(nil, user.ErrNotFound).Once()
	require.NoError(t, svc.RequestPasswordReset(ctx, "unknown@example.com"))
	assert.Empty(t, notifier.sent)

	repo.On("GetByEmail", mock.Anything, "ama@example.com").Return(u, nil).Once()
	require.NoError(t, svc.RequestPasswordReset(ctx, "ama@example.com"))
	require.Len(t, notifier.sent, 1)

	repo.On("GetByID", mock.Anything, u.ID).Return(u, nil)
	assert.ErrorIs(t, svc.ResetPassword(ctx, notifier.sent[0], "short"), user.ErrInvalidUser)

	repo.On("UpdatePassword", mock.Anything, u.ID, mock.AnythingOfType("string")).Return(nil).Once()
	require.NoError(t, svc.ResetPassword(ctx, notifier.sent[0], "new-password-1"))

	assert.ErrorIs(t, svc.ResetPassword(ctx, "not-a-token", "new-password-1"), user.ErrInvalidToken)
	repo.AssertExpectations(t)
}

func TestUserService_SetRole(t *testing.T) {
	repo := new(MockUserRepository)
	svc, _ := newService(repo)
	id := uuid.Must(uuid.NewV4())

	assert.ErrorIs(t, svc.SetRole(context.Background(), id, "root"), user.ErrInvalidUser)

	repo.On("SetRole", mock.Anything, id, user.RoleAdmin).Return(user.ErrNotFound).Once()
	assert.ErrorIs(t, svc.SetRole(context.Background(), id, user.RoleAdmin), user.ErrNotFound)
	repo.AssertExpectations(t)
}
