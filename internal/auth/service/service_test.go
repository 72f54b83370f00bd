package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"movecrm_backend/internal/auth/password"
	"movecrm_backend/internal/auth/repository"
	"movecrm_backend/platform/apperr"
	"movecrm_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]repository.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]repository.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, p repository.CreateUserParams) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == p.Email {
			return repository.User{}, repository.ErrDuplicateEmail
		}
	}
	u := repository.User{
		ID:           uuid.New(),
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		Status:       repository.StatusActive,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

func (m *memUsers) ListUsersByRole(_ context.Context, role string) ([]repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string        { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

func newTestService() (*Service, *memUsers) {
	store := newMemUsers()
	return New(store, testConfig{}, logger.Nop()), store
}

func TestLoginIssuesAccessToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.CreateSalesUser(ctx, "Meera", "Meera@Example.com", "S3cure!pass")
	require.NoError(t, err)
	assert.Equal(t, "meera@example.com", created.Email)

	token, user, err := svc.Login(ctx, " MEERA@example.com ", "S3cure!pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, created.ID.String(), claims["sub"])
	assert.Equal(t, "access", claims["type"])
	assert.Equal(t, []any{repository.RoleSales}, claims["roles"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	_, err := svc.CreateSalesUser(ctx, "Meera", "meera@example.com", "S3cure!pass")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "meera@example.com", "wrong")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, _, err = svc.Login(ctx, "nobody@example.com", "S3cure!pass")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	hash, err := password.Hash("Inactive!1")
	require.NoError(t, err)
	id := uuid.New()
	store.users[id] = repository.User{ID: id, Email: "gone@example.com", PasswordHash: hash, Role: repository.RoleSales, Status: repository.StatusInactive}
	_, _, err = svc.Login(ctx, "gone@example.com", "Inactive!1")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestCreateSalesUserRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.CreateSalesUser(ctx, "A", "dup@example.com", "S3cure!pass")
	require.NoError(t, err)

	_, err = svc.CreateSalesUser(ctx, "B", "DUP@example.com", "S3cure!pass")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestSeedDefaultUsersIsIdempotent(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.SeedDefaultUsers(ctx, "Seed!pass1"))
	require.NoError(t, svc.SeedDefaultUsers(ctx, "Other!pass2"))
	assert.Len(t, store.users, 2)

	admin, err := store.GetUserByEmail(ctx, SeedAdminEmail)
	require.NoError(t, err)
	assert.Equal(t, repository.RoleAdmin, admin.Role)
	assert.NoError(t, password.Compare(admin.PasswordHash, "Seed!pass1"))

	sales, err := svc.ListSalesUsers(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, SeedSalesEmail, sales[0].Email)
}
