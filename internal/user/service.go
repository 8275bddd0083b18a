package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var validate = validator.New()

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidUser        = errors.New("invalid user data")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// ResetNotifier delivers password reset tokens.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, u User, token string) error
}

type Service interface {
	SignUp(ctx context.Context, email, password, name, phone string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, string, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Claims, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (*User, error)
	SetRole(ctx context.Context, id uuid.UUID, role Role) error
}

type service struct {
	repo     Repository
	tokens   *TokenIssuer
	denylist Denylist
	notifier ResetNotifier
}

func NewService(repo Repository, tokens *TokenIssuer, denylist Denylist, notifier ResetNotifier) Service {
	return &service{repo: repo, tokens: tokens, denylist: denylist, notifier: notifier}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to generate hash password")
		return "", fmt.Errorf("service: internal error hashing password: %w", err)
	}
	return string(hash), nil
}

func (s *service) SignUp(ctx context.Context, email, password, name, phone string) (*User, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidUser)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{Name: name, Email: email, Phone: strings.TrimSpace(phone), Role: RoleCustomer, PasswordHash: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: user signed up")
	return u, nil
}

func (s *service) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("service: failed to get user by email in repository")
		return nil, "", fmt.Errorf("service: failed to sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		log.Warn().Stringer("user_id", u.ID).Msg("service: wrong password")
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", fmt.Errorf("service: %w", err)
	}
	return u, token, nil
}

func (s *service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		log.Error().Err(err).Stringer("user_id", claims.UserID()).Msg("service: failed to revoke token")
		return fmt.Errorf("service: failed to sign out: %w", err)
	}
	return nil
}

// Authenticate validates an access token and checks it was not revoked.
func (s *service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check token: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RequestPasswordReset emails a reset token. Unknown addresses succeed
// without sending anything.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info().Msg("service: password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("service: failed to request password reset: %w", err)
	}

	token, err := s.tokens.IssueReset(u)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if err := s.notifier.SendPasswordReset(ctx, *u, token); err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to send password reset")
		return fmt.Errorf("service: failed to send password reset: %w", err)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.tokens.ParseReset(token, func(id uuid.UUID) (string, error) {
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return u.PasswordHash, nil
	})
	if err != nil {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, claims.UserID(), hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("service: failed to reset password: %w", err)
	}

	log.Info().Stringer("user_id", claims.UserID()).Msg("service: password reset")
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("service: failed to get user by id in repository")
		return nil, fmt.Errorf("service: failed to get user by id '%s': %w", id, err)
	}
	return u, nil
}

func (s *service) List(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}
	return users, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if err := s.repo.UpdateProfile(ctx, id, name, strings.TrimSpace(phone)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to update profile")
		return nil, fmt.Errorf("service: failed to update profile: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *service) SetRole(ctx context.Context, id uuid.UUID, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidUser, role)
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to set role: %w", err)
	}
	log.Info().Stringer("user_id", id).Str("role", string(role)).Msg("service: role changed")
	return nil
}
