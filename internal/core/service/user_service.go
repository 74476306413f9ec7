package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
)

// UserService is the user directory: it owns identity records and resolves
// the authenticated caller of a request.
type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, now: time.Now}
}

// Create persists a new identity. The email is checked before the username,
// so a request colliding on both reports ErrDuplicateEmail. The checks are a
// fast path only: the repository's unique indexes decide races.
func (s *UserService) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := validateNewUser(user); err != nil {
		return nil, err
	}
	s.logger.Trace().Str("username", user.Username).Msg("creating user")

	exists, err := s.repo.ExistsByEmail(ctx, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("email lookup failed")
		return nil, fmt.Errorf("create user: %w", err)
	}
	if exists {
		s.logger.Warn().Str("email", user.Email).Msg("user with this email already exists")
		return nil, domain.ErrDuplicateEmail
	}

	exists, err = s.repo.ExistsByUsername(ctx, user.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("username lookup failed")
		return nil, fmt.Errorf("create user: %w", err)
	}
	if exists {
		s.logger.Warn().Str("username", user.Username).Msg("user with this username already exists")
		return nil, domain.ErrDuplicateUsername
	}

	now := s.now().UTC()
	candidate := user.Clone()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	created, err := s.repo.Create(ctx, candidate)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicateUsername) {
			s.logger.Warn().Err(err).Str("username", user.Username).Msg("lost uniqueness race on create")
			return nil, err
		}
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("username", created.Username).Str("id", created.ID).Msg("user created")
	return created, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.logger.Debug().Str("username", username).Msg("looking up user")

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Str("username", username).Msg("user not found")
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *UserService) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: user is nil", domain.ErrInvalidInput)
	}
	s.logger.Debug().Str("username", user.Username).Msg("saving user")

	updated := user.Clone()
	updated.UpdatedAt = s.now().UTC()

	saved, err := s.repo.Save(ctx, updated)
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to save user")
		return nil, fmt.Errorf("save user: %w", err)
	}
	return saved, nil
}

// ResolveCurrentCaller returns the stored identity of the principal carried
// by ctx. A caller whose identity no longer exists is treated as
// unauthenticated.
func (s *UserService) ResolveCurrentCaller(ctx context.Context) (*domain.User, error) {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		s.logger.Error().Msg("current user requested without authentication")
		return nil, domain.ErrUnauthenticated
	}

	s.logger.Info().Str("username", p.Subject).Msg("resolving current user")
	user, err := s.FindByUsername(ctx, p.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// GrantAdmin promotes the current caller to ADMIN without any further check.
//
// Deprecated: self-service promotion exists for demonstration only.
func (s *UserService) GrantAdmin(ctx context.Context) error {
	user, err := s.ResolveCurrentCaller(ctx)
	if err != nil {
		return err
	}

	s.logger.Warn().Str("username", user.Username).Msg("granting ADMIN role to current user")
	user.Role = domain.RoleAdmin
	if _, err := s.Save(ctx, user); err != nil {
		return err
	}
	return nil
}

func validateNewUser(u *domain.User) error {
	switch {
	case u == nil:
		return fmt.Errorf("%w: user is nil", domain.ErrInvalidInput)
	case strings.TrimSpace(u.Username) == "":
		return fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	case strings.TrimSpace(u.Email) == "":
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	case u.PasswordHash == "":
		return fmt.Errorf("%w: password hash is required", domain.ErrInvalidInput)
	case !u.Role.Valid():
		return fmt.Errorf("%w: %d", domain.ErrInvalidRole, uint8(u.Role))
	}
	return nil
}
