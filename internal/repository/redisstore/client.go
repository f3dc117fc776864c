package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to Redis and verifies the connection with PING
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
		PoolSize: 20,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
