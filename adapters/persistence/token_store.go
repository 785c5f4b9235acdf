package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/skilldeck/internal/application/service"
	"github.com/khoahotran/skilldeck/pkg/apperror"
)

const revokedTokenKeyPrefix = "auth:revoked:"

type redisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) service.TokenStore {
	return &redisTokenStore{rdb: rdb}
}

func (s *redisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedTokenKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return apperror.NewStoreUnavailable("failed to revoke token", err)
	}
	return nil
}

func (s *redisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revokedTokenKeyPrefix+tokenID).Result()
	if err != nil {
		return false, apperror.NewStoreUnavailable("failed to check token revocation", err)
	}
	return n > 0, nil
}
