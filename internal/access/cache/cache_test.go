package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stockroom/internal/access/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

type countingSource struct {
	role  domain.Role
	err   error
	calls int
}

func (s *countingSource) RoleOf(context.Context, string) (domain.Role, error) {
	s.calls++
	return s.role, s.err
}

func TestRoleCache_CacheAside(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	source := &countingSource{role: domain.PermissionedRole{
		Name:        domain.RoleAdmin,
		Permissions: domain.AdminPermissions,
	}}
	cache := NewRoleCache(client, source, time.Minute)

	first, err := cache.RoleOf(ctx, "actor-1")
	require.NoError(t, err)
	second, err := cache.RoleOf(ctx, "actor-1")
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("role:actor-1"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.RoleOf(ctx, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)

	require.NoError(t, cache.Invalidate(ctx, "actor-1"))
	assert.False(t, mr.Exists("role:actor-1"))
}

func TestRoleCache_SimpleRoleKeepsShape(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	source := &countingSource{role: domain.SimpleRole{Name: domain.RoleEmployee}}
	cache := NewRoleCache(client, source, time.Minute)

	_, err := cache.RoleOf(ctx, "actor-2")
	require.NoError(t, err)
	role, err := cache.RoleOf(ctx, "actor-2")
	require.NoError(t, err)
	assert.Equal(t, domain.SimpleRole{Name: domain.RoleEmployee}, role)
}

func TestRoleCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	source := &countingSource{err: domain.ErrNotFound}
	cache := NewRoleCache(client, source, time.Minute)

	_, err := cache.RoleOf(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("role:ghost"))
}

func TestRoleCache_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	source := &countingSource{role: domain.SimpleRole{Name: domain.RoleEmployee}}
	cache := NewRoleCache(client, source, time.Minute)
	mr.Close()

	role, err := cache.RoleOf(ctx, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, role.RoleName())
}

func TestRevocationList(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	list := NewRevocationList(client)

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	limiter := NewRateLimiter(client, 2, time.Minute)

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	res, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	limiter.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	res, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
