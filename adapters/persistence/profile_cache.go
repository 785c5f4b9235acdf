package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/internal/domain/profile"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

const (
	profileCacheKeyPrefix = "profile:username:"

	// invalidated marks a key that was just invalidated. It is held long
	// enough to outlive any read that started before the write.
	invalidated     = "\x00invalidated"
	invalidatedHold = 5 * time.Second
)

type redisProfileCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	hold   time.Duration
	logger logger.Logger
}

func NewRedisProfileCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) service.ProfileCache {
	return &redisProfileCache{rdb: rdb, ttl: ttl, hold: invalidatedHold, logger: log}
}

func (c *redisProfileCache) Get(ctx context.Context, username string) (*profile.Details, error) {
	raw, err := c.rdb.Get(ctx, profileCacheKeyPrefix+username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperror.NewStoreUnavailable("failed to read profile cache", err)
	}
	if string(raw) == invalidated {
		return nil, nil
	}

	var d profile.Details
	if err := json.Unmarshal(raw, &d); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("username", username), zap.Error(err))
		c.rdb.Del(ctx, profileCacheKeyPrefix+username)
		return nil, nil
	}
	return &d, nil
}

// Set only fills an empty key. While an invalidation marker is held, a read
// that raced the write cannot put its stale result back.
func (c *redisProfileCache) Set(ctx context.Context, username string, d *profile.Details) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return apperror.NewInternal("failed to marshal cached profile", err)
	}
	stored, err := c.rdb.SetNX(ctx, profileCacheKeyPrefix+username, raw, c.ttl).Result()
	if err != nil {
		return apperror.NewStoreUnavailable("failed to write profile cache", err)
	}
	if !stored {
		c.logger.Debug("Profile cache fill skipped", zap.String("username", username))
	}
	return nil
}

func (c *redisProfileCache) Invalidate(ctx context.Context, usernames ...string) error {
	keys := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u != "" {
			keys = append(keys, profileCacheKeyPrefix+u)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, invalidated, c.hold)
		}
		return nil
	})
	if err != nil {
		return apperror.NewStoreUnavailable("failed to invalidate profile cache", err)
	}
	return nil
}
