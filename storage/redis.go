package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGetter is the part of a go-redis client the tier needs
type RedisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisTier reads blobs stored as plain string values under prefix+key
type RedisTier struct {
	client  RedisGetter
	prefix  string
	timeout time.Duration
}

func NewRedisTier(client RedisGetter, prefix string, timeout time.Duration) *RedisTier {
	return &RedisTier{client: client, prefix: prefix, timeout: timeout}
}

// NewRedisClient parses a redis:// URL. The caller owns the returned client and closes it.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (t *RedisTier) Name() string { return "redis" }

func (t *RedisTier) Get(ctx context.Context, key string) ([]byte, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	data, err := t.client.Get(ctx, t.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}
