package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/pkg/logger"
)

// cachedRole is the JSON form of a domain.Role
type cachedRole struct {
	Name         string              `json:"name"`
	Permissions  []domain.Permission `json:"permissions,omitempty"`
	Permissioned bool                `json:"permissioned"`
}

// RoleCache is a cache-aside RoleSource backed by Redis. Redis failures fall
// through to the underlying source.
type RoleCache struct {
	redis  *redis.Client
	source domain.RoleSource
	ttl    time.Duration
}

// NewRoleCache creates a role cache in front of source
func NewRoleCache(redisClient *redis.Client, source domain.RoleSource, ttl time.Duration) *RoleCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RoleCache{redis: redisClient, source: source, ttl: ttl}
}

func roleKey(actorID string) string {
	return fmt.Sprintf("role:%s", actorID)
}

// RoleOf returns the cached role, fetching and caching it on a miss
func (c *RoleCache) RoleOf(ctx context.Context, actorID string) (domain.Role, error) {
	key := roleKey(actorID)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var cached cachedRole
		if err := json.Unmarshal(data, &cached); err == nil {
			logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
			return cached.role(), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Role cache read failed")
	}

	role, err := c.source.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(toCached(role))
	if err == nil {
		err = c.redis.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to cache role")
	}
	return role, nil
}

// Invalidate drops the cached role of actorID
func (c *RoleCache) Invalidate(ctx context.Context, actorID string) error {
	if err := c.redis.Del(ctx, roleKey(actorID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate role: %w", err)
	}
	return nil
}

func toCached(role domain.Role) cachedRole {
	switch r := role.(type) {
	case domain.PermissionedRole:
		return cachedRole{Name: r.Name, Permissions: r.Permissions, Permissioned: true}
	default:
		return cachedRole{Name: role.RoleName()}
	}
}

func (c cachedRole) role() domain.Role {
	if c.Permissioned {
		return domain.PermissionedRole{Name: c.Name, Permissions: c.Permissions}
	}
	return domain.SimpleRole{Name: c.Name}
}
