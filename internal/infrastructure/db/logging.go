package db

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
)

// LoggingUserRepository logs every call made to the wrapped repository.
// Expected outcomes (not found, duplicates) are logged at debug; anything
// else that fails is logged at error.
type LoggingUserRepository struct {
	next ports.UserRepository
	log  zerolog.Logger
}

func NewLoggingUserRepository(next ports.UserRepository, log zerolog.Logger) *LoggingUserRepository {
	return &LoggingUserRepository{next: next, log: log}
}

func (r *LoggingUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	done := r.begin("Create")
	created, err := r.next.Create(ctx, user)
	done(err)
	return created, err
}

func (r *LoggingUserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	done := r.begin("Save")
	saved, err := r.next.Save(ctx, user)
	done(err)
	return saved, err
}

func (r *LoggingUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	done := r.begin("FindByUsername")
	u, err := r.next.FindByUsername(ctx, username)
	done(err)
	return u, err
}

func (r *LoggingUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	done := r.begin("ExistsByUsername")
	ok, err := r.next.ExistsByUsername(ctx, username)
	done(err)
	return ok, err
}

func (r *LoggingUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	done := r.begin("ExistsByEmail")
	ok, err := r.next.ExistsByEmail(ctx, email)
	done(err)
	return ok, err
}

func (r *LoggingUserRepository) begin(method string) func(error) {
	r.log.Debug().Str("method", method).Msg("repository call")
	start := time.Now()

	return func(err error) {
		elapsed := time.Since(start)
		switch {
		case err == nil:
			r.log.Trace().Str("method", method).Dur("elapsed", elapsed).Msg("repository call succeeded")
		case isExpected(err):
			r.log.Debug().Err(err).Str("method", method).Dur("elapsed", elapsed).Msg("repository call returned domain error")
		default:
			r.log.Error().Err(err).Str("method", method).Dur("elapsed", elapsed).Msg("repository call failed")
		}
	}
}

func isExpected(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) ||
		errors.Is(err, domain.ErrDuplicateEmail) ||
		errors.Is(err, domain.ErrDuplicateUsername) ||
		errors.Is(err, domain.ErrInvalidInput)
}
