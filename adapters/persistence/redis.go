package persistence

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/skilldeck/internal/config"
	"github.com/khoahotran/skilldeck/pkg/apperror"
	"github.com/khoahotran/skilldeck/pkg/logger"
)

func NewRedisClient(cfg config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, apperror.NewStoreUnavailable("can not connect Redis", err)
	}

	log.Info("Connect Redis successfully.")
	return rdb, nil
}
