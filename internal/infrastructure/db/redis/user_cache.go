package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
)

const defaultCacheTTL = 5 * time.Minute

// CachedUserRepository keeps FindByUsername results in Redis in front of
// another repository. Writes and existence checks always reach the wrapped
// store. Redis failures are logged and the call falls through.
//
// Lookups fill the cache with SETNX and Save overwrites the entry with the
// saved record, so a lookup that read the row before a Save can never
// replace the newer entry.
// Key format: user:username:<username>
type CachedUserRepository struct {
	next   ports.UserRepository
	client redis.Cmdable
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCachedUserRepository(next ports.UserRepository, client redis.Cmdable, ttl time.Duration, log zerolog.Logger) *CachedUserRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedUserRepository{next: next, client: client, ttl: ttl, log: log}
}

type cachedUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *CachedUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return c.next.Create(ctx, user)
}

func (c *CachedUserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	// Drop the entry first so no reader is served the old record while the
	// write is in flight.
	c.invalidate(ctx, user.Username)

	saved, err := c.next.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	key := usernameKey(saved.Username)
	payload, err := encodeUser(saved)
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache refresh failed")
		c.invalidate(ctx, saved.Username)
	}
	return saved, nil
}

func (c *CachedUserRepository) invalidate(ctx context.Context, username string) {
	if err := c.client.Del(ctx, usernameKey(username)).Err(); err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("cache invalidation failed")
	}
}

func (c *CachedUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	key := usernameKey(username)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		u, decodeErr := decodeUser(raw)
		if decodeErr == nil {
			return u, nil
		}
		c.log.Warn().Err(decodeErr).Str("key", key).Msg("ignoring unreadable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	u, err := c.next.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	payload, err := encodeUser(u)
	if err == nil {
		err = c.client.SetNX(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return u, nil
}

func (c *CachedUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return c.next.ExistsByUsername(ctx, username)
}

func (c *CachedUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return c.next.ExistsByEmail(ctx, email)
}

func usernameKey(username string) string {
	return "user:username:" + username
}

func encodeUser(u *domain.User) ([]byte, error) {
	return json.Marshal(cachedUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role.String(),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
}

func decodeUser(raw []byte) (*domain.User, error) {
	var c cachedUser
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &domain.User{
		ID:           c.ID,
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         role,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}, nil
}
