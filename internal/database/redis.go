package database

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"piggybank/internal/config"
	"piggybank/internal/logger"
)

// NewRedis connects to the leaderboard Redis. It returns nil when no address
// is configured or the server does not answer; callers fall back to the
// database.
func NewRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Get().Warnw("Redis connection failed, continuing without Redis", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
		return nil
	}

	logger.Get().Infow("Redis connection established", "addr", cfg.RedisAddr)
	return rdb
}
