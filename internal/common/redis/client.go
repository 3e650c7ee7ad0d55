package redis

import (
	"context"
	"fmt"
	"time"

	"catat-worker/internal/common/config"

	"github.com/go-redis/redis/v8"
)

const (
	dialTimeout = 5 * time.Second
	// commandTimeout applies to KV calls; go-redis extends it for XREADGROUP BLOCK
	commandTimeout = 3 * time.Second
	pingTimeout    = 5 * time.Second
)

// NewRedisClient creates a client from config
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  dialTimeout,
		ReadTimeout:  commandTimeout,
		WriteTimeout: commandTimeout,
	})
}

// Ping checks connectivity within pingTimeout
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping %s: %w", client.Options().Addr, err)
	}
	return nil
}

// Close closes the client
func Close(client *redis.Client) error {
	return client.Close()
}
