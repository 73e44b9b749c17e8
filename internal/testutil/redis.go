// Package testutil provides test helpers shared across the node agent's
// package tests — primarily an embedded Redis stand-in so persistent-store
// and messaging tests need no external services.
package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// NewRedis starts an embedded miniredis server and returns a connected
// client, both torn down automatically at test cleanup.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting embedded redis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}
