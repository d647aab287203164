//go:build integration

// Package testutil starts real backing services for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartRedis starts a Redis container for the duration of the test and
// returns its URL. The container is terminated on test cleanup.
func StartRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err, "Failed to get container host")
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err, "Failed to get container port")

	return fmt.Sprintf("redis://%s:%s", host, port.Port())
}

// RedisOptions starts Redis and returns client options for it.
func RedisOptions(t *testing.T) *redis.Options {
	t.Helper()
	opts, err := redis.ParseURL(StartRedis(t))
	require.NoError(t, err, "Failed to parse Redis URL")
	return opts
}
