package ports

import (
	"context"

	"github.com/malina/auth-service/internal/core/domain"
)

// UserRepository defines the persistence operations for identities.
//
// Implementations must enforce uniqueness of username and email themselves
// and report a violation as domain.ErrDuplicateEmail or
// domain.ErrDuplicateUsername. Lookups of a missing user return
// domain.ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
