package ports

import (
	"context"

	"github.com/malina/auth-service/internal/core/domain"
)

// UserDirectory owns identity records.
type UserDirectory interface {
	// Create checks email then username for duplicates and persists user.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Save is an unconditional upsert of an existing identity.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	// ResolveCurrentCaller maps the principal carried by ctx to its stored identity.
	ResolveCurrentCaller(ctx context.Context) (*domain.User, error)
	// GrantAdmin promotes the current caller to ADMIN. Demo only.
	GrantAdmin(ctx context.Context) error
}
