package redis

import (
	"context"
	"io"
)

// Shutdown returns a function that gracefully closes the Redis client.
// The signature matches the cleanup-hook shape used across the module:
//
//	cleanup := redis.Shutdown(client)
//	defer cleanup(context.Background())
func Shutdown(client io.Closer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Close()
	}
}
