package rdb

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the narrow slice of the redis API this service depends on.
// Keeping it an interface lets tests swap in miniredis-backed clients.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

var client Client

func Init(addr, password string, db int) error {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return err
	}
	client = c
	return nil
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

func GetClient() Client {
	return client
}

// SetClient swaps the global handle, used by tests.
func SetClient(c Client) {
	client = c
}

// IsNil reports whether err is the cache-store miss sentinel. A miss is
// not an error for tiered reads.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
