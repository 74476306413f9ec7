// Package memory provides a process-local user store. Uniqueness checks and
// writes happen under one lock, so the store is its own tie-breaker for
// concurrent sign-ups.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/malina/auth-service/internal/core/domain"
)

type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
	byEmail    map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return nil, domain.ErrDuplicateEmail
	}
	if _, taken := r.byUsername[user.Username]; taken {
		return nil, domain.ErrDuplicateUsername
	}

	stored := user.Clone()
	stored.ID = uuid.NewString()
	r.put(stored)
	return stored.Clone(), nil
}

// Save replaces the record with user.ID, inserting it when absent. The new
// username and email must not belong to a different record.
func (r *UserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
		return nil, domain.ErrDuplicateEmail
	}
	if owner, taken := r.byUsername[user.Username]; taken && owner != user.ID {
		return nil, domain.ErrDuplicateUsername
	}

	if prev, ok := r.byID[user.ID]; ok {
		delete(r.byEmail, prev.Email)
		delete(r.byUsername, prev.Username)
	}
	stored := user.Clone()
	r.put(stored)
	return stored.Clone(), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUsername[username]
	return ok, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

// Len returns the number of stored identities.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *UserRepository) put(u *domain.User) {
	r.byID[u.ID] = u
	r.byUsername[u.Username] = u.ID
	r.byEmail[u.Email] = u.ID
}
