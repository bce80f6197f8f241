package database

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis. It returns nil when addr is empty or the
// server does not answer, in which case callers run without a cache.
func NewRedisClient(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		slog.Error("Failed to connect to Redis, caching disabled", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}

	slog.Info("Successfully connected to Redis.", "addr", addr)
	return client
}
