package redis

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/core/ports"
	"github.com/malina/auth-service/internal/infrastructure/db/memory"
)

func TestEncodeDecodeUser(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	u := &domain.User{ID: "1", Username: "alice", Email: "a@x.com", PasswordHash: "$2a$h", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}

	raw, err := encodeUser(u)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"role":"ADMIN"`)

	back, err := decodeUser(raw)
	require.NoError(t, err)
	assert.Equal(t, u, back)

	_, err = decodeUser([]byte(`{"role":"ROOT"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
	_, err = decodeUser([]byte(`not json`))
	assert.Error(t, err)
}

func TestCachedUserRepository_FallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	inner := memory.NewUserRepository()
	repo := NewCachedUserRepository(inner, client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "h", Role: domain.RoleUser})
	require.NoError(t, err)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	found.Role = domain.RoleAdmin
	_, err = repo.Save(ctx, found)
	require.NoError(t, err)

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

// Runs against a real server only when TEST_REDIS_ADDR is set.
func TestCachedUserRepository_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	ctx := context.Background()
	client, err := Connect(ctx, Config{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	inner := memory.NewUserRepository()
	repo := NewCachedUserRepository(inner, client, time.Minute, zerolog.Nop())

	name := "alice-" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, usernameKey(name)) })

	created, err := repo.Create(ctx, &domain.User{Username: name, Email: name + "@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.FindByUsername(ctx, name)
	require.NoError(t, err)
	n, err := client.Exists(ctx, usernameKey(name)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "lookup should populate the cache")

	created.Role = domain.RoleAdmin
	_, err = repo.Save(ctx, created)
	require.NoError(t, err)
	raw, err := client.Get(ctx, usernameKey(name)).Bytes()
	require.NoError(t, err)
	cached, err := decodeUser(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, cached.Role, "save should refresh the cache")

	got, err := repo.FindByUsername(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
}

// mapCache implements the part of redis.Cmdable the cache uses.
type mapCache struct {
	redis.Cmdable
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (m *mapCache) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (m *mapCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = string(value.([]byte))
	return redis.NewBoolResult(true, nil)
}

func (m *mapCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// interleavedRepo runs afterRead once, between reading a user and returning
// it, to place a concurrent write inside a lookup.
type interleavedRepo struct {
	ports.UserRepository
	afterRead func()
}

func (r *interleavedRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := r.UserRepository.FindByUsername(ctx, username)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return u, err
}

func TestCachedUserRepository_LookupCannotOverwriteNewerSave(t *testing.T) {
	ctx := context.Background()
	inner := &interleavedRepo{UserRepository: memory.NewUserRepository()}
	store := newMapCache()
	repo := NewCachedUserRepository(inner, store, time.Minute, zerolog.Nop())

	created, err := repo.Create(ctx, &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "h", Role: domain.RoleUser})
	require.NoError(t, err)

	inner.afterRead = func() {
		promoted := created.Clone()
		promoted.Role = domain.RoleAdmin
		_, err := repo.Save(ctx, promoted)
		require.NoError(t, err)
	}

	stale, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, stale.Role, "the racing lookup read the old row")

	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role, "the cache must keep the saved record")
}

func TestCachedUserRepository_SaveRefreshesEntry(t *testing.T) {
	ctx := context.Background()
	store := newMapCache()
	repo := NewCachedUserRepository(memory.NewUserRepository(), store, time.Minute, zerolog.Nop())

	created, err := repo.Create(ctx, &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "h", Role: domain.RoleUser})
	require.NoError(t, err)
	_, err = repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)

	created.Role = domain.RoleAdmin
	_, err = repo.Save(ctx, created)
	require.NoError(t, err)

	cached, err := decodeUser([]byte(store.data[usernameKey("alice")]))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, cached.Role)
}
