//go:build integration

package scan_test

import (
	"context"
	"testing"
	"time"

	"scanorder-backend/internal/models"
	"scanorder-backend/internal/scan"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisMenuCacheRoundTrip(t *testing.T) {
	client := startRedis(t)
	cache := scan.NewRedisMenuCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "PIZZA01")
	require.NoError(t, err)
	require.False(t, ok)

	menu := &models.Store{ID: 3, Code: "PIZZA01", Name: "Pizza", IsActive: true,
		Categories: []models.Category{{ID: 1, Name: "Pizzas"}}}
	require.NoError(t, cache.Set(ctx, "PIZZA01", menu))

	got, ok, err := cache.Get(ctx, "PIZZA01")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Pizza", got.Name)
	require.Len(t, got.Categories, 1)

	ttl, err := client.TTL(ctx, "scanorder:menu:PIZZA01").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	cache.InvalidateMenu(ctx, "PIZZA01")
	_, ok, err = cache.Get(ctx, "PIZZA01")
	require.NoError(t, err)
	require.False(t, ok)
}
