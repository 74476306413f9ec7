// Package db holds persistence helpers shared by every user store.
package db

import (
	"context"
	"fmt"

	"github.com/malina/auth-service/internal/core/domain"
)

// EmailChecker is the lookup needed to tell which unique index a rejected
// insert collided with.
type EmailChecker interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// ClassifyDuplicate maps a unique-index violation for user to
// domain.ErrDuplicateEmail or domain.ErrDuplicateUsername. Email takes
// precedence, matching the directory's pre-check order; with only two unique
// columns, a violation that is not on email is on username.
func ClassifyDuplicate(ctx context.Context, c EmailChecker, user *domain.User) error {
	taken, err := c.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("classify duplicate: %w", err)
	}
	if taken {
		return domain.ErrDuplicateEmail
	}
	return domain.ErrDuplicateUsername
}
