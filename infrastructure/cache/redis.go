package cache

import (
	"context"
	"errors"

	"omnicast/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to Redis and pings it. An addr without a host means Redis
// is not configured.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	if addr == "" || addr[0] == ':' {
		return nil, errors.New("redis host not configured")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.GetLogger().WithField("addr", addr).Info("Redis connected")
	return client, nil
}
