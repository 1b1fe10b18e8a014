package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBucket stores objects as plain Redis string values.
type RedisBucket struct {
	client redis.UniversalClient
	prefix string
}

// RedisOptions configures NewRedisBucket.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key (e.g. "support:").
	Prefix string
}

// NewRedisBucket connects to Redis and verifies the connection with PING.
func NewRedisBucket(ctx context.Context, opts RedisOptions) (*RedisBucket, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &RedisBucket{client: client, prefix: opts.Prefix}, nil
}

// NewRedisBucketWithClient wraps an existing client.
func NewRedisBucketWithClient(client redis.UniversalClient, prefix string) *RedisBucket {
	return &RedisBucket{client: client, prefix: prefix}
}

// Get implements Bucket.
func (b *RedisBucket) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put implements Bucket. Objects never expire.
func (b *RedisBucket) Put(ctx context.Context, key string, data []byte) error {
	return b.client.Set(ctx, b.prefix+key, data, 0).Err()
}

// Close releases the underlying connection pool.
func (b *RedisBucket) Close() error { return b.client.Close() }
