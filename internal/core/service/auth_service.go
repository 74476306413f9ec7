package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
)

// AuthService implements sign-up and sign-in.
type AuthService struct {
	users  ports.UserDirectory
	hasher ports.PasswordHasher
	tokens ports.TokenCodec
	logger zerolog.Logger

	// decoy is verified against when the username is unknown.
	decoy string
}

// NewAuthService hashes the decoy password up front so every failed sign-in
// costs exactly one bcrypt comparison.
func NewAuthService(users ports.UserDirectory, hasher ports.PasswordHasher, tokens ports.TokenCodec, logger zerolog.Logger) (*AuthService, error) {
	decoy, err := hasher.Hash("decoy-password-for-unknown-users")
	if err != nil {
		return nil, fmt.Errorf("auth service: hash decoy password: %w", err)
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, logger: logger, decoy: decoy}, nil
}

// SignUp registers a USER identity and returns a token for it.
func (s *AuthService) SignUp(ctx context.Context, in ports.SignUpInput) (string, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return "", fmt.Errorf("%w: username, email and password are required", domain.ErrInvalidInput)
	}
	s.logger.Info().Str("username", in.Username).Msg("registering new user")

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", err
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})
	if err != nil {
		return "", err
	}
	s.logger.Debug().Str("username", created.Username).Msg("user saved")

	token, err := s.tokens.Issue(created)
	if err != nil {
		return "", fmt.Errorf("sign up: %w", err)
	}
	s.logger.Trace().Str("username", created.Username).Msg("token issued")
	return token, nil
}

// SignIn verifies credentials and returns a token carrying the identity's
// current stored role. An unknown username and a wrong password both yield
// ErrAuthenticationFailed.
func (s *AuthService) SignIn(ctx context.Context, in ports.SignInInput) (string, error) {
	s.logger.Info().Str("username", in.Username).Msg("authenticating user")
	if in.Username == "" || in.Password == "" {
		return "", domain.ErrAuthenticationFailed
	}

	user, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Spend the same hashing work as a wrong password would.
			s.hasher.Verify(in.Password, s.decoy)
			s.logger.Error().Str("username", in.Username).Msg("authentication failed")
			return "", domain.ErrAuthenticationFailed
		}
		return "", fmt.Errorf("sign in: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.logger.Error().Str("username", in.Username).Msg("authentication failed")
		return "", domain.ErrAuthenticationFailed
	}
	s.logger.Debug().Str("username", user.Username).Msg("authentication succeeded")

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}
	s.logger.Trace().Str("username", user.Username).Msg("token issued")
	return token, nil
}
