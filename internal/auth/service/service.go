package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"movecrm_backend/internal/auth/password"
	"movecrm_backend/internal/auth/repository"
	"movecrm_backend/platform/apperr"
	"movecrm_backend/platform/config"
	"movecrm_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const accessTokenType = "access"

// Default accounts created when seeding is enabled.
const (
	SeedAdminEmail = "admin@aiestimator.com"
	SeedSalesEmail = "sales@aiestimator.com"
)

type Service struct {
	repo repository.UserStore
	cfg  config.AuthServiceConfig
	log  *logger.Logger
	now  func() time.Time
}

func New(repo repository.UserStore, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log, now: time.Now}
}

// Login checks the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (string, repository.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.AuthEvent("login", email, false, "unknown email")
			return "", repository.User{}, apperr.Unauthorized(ErrInvalidCredentials.Error())
		}
		return "", repository.User{}, err
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return "", repository.User{}, apperr.Unauthorized(ErrInvalidCredentials.Error())
	}
	if user.Status != repository.StatusActive {
		s.log.AuthEvent("login", email, false, "inactive")
		return "", repository.User{}, apperr.Forbidden("account is inactive")
	}

	token, err := s.signJWT(user.ID, []string{user.Role}, s.cfg.GetAccessTokenTTL(), accessTokenType, s.cfg.GetJWTAccessSecret())
	if err != nil {
		return "", repository.User{}, err
	}
	s.log.AuthEvent("login", email, true, "")
	return token, user, nil
}

// CreateSalesUser registers a new SALES account.
func (s *Service) CreateSalesUser(ctx context.Context, name, email, plainPassword string) (repository.User, error) {
	return s.createUser(ctx, name, email, plainPassword, repository.RoleSales)
}

// ListSalesUsers returns the sales team, the pool leads are assigned from.
func (s *Service) ListSalesUsers(ctx context.Context) ([]repository.User, error) {
	return s.repo.ListUsersByRole(ctx, repository.RoleSales)
}

// SeedDefaultUsers creates the bootstrap admin and sales accounts if they
// are missing. Existing accounts are left untouched.
func (s *Service) SeedDefaultUsers(ctx context.Context, plainPassword string) error {
	seeds := []struct {
		name, email, role string
	}{
		{"Admin", SeedAdminEmail, repository.RoleAdmin},
		{"Sales", SeedSalesEmail, repository.RoleSales},
	}

	for _, seed := range seeds {
		_, err := s.repo.GetUserByEmail(ctx, seed.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := s.createUser(ctx, seed.name, seed.email, plainPassword, seed.role); err != nil {
			return err
		}
		s.log.Info("seeded user", "email", seed.email, "role", seed.role)
	}
	return nil
}

func (s *Service) createUser(ctx context.Context, name, email, plainPassword, role string) (repository.User, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return repository.User{}, err
	}

	user, err := s.repo.CreateUser(ctx, repository.CreateUserParams{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return repository.User{}, apperr.Conflict("User already exists")
	}
	return user, err
}

func (s *Service) signJWT(userID uuid.UUID, roles []string, ttl time.Duration, tokenType, secret string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  tokenType,
		"roles": roles,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}
