//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tuanvumaihuynh/catalog-service/internal/storage/cache"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, container)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rds := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { rds.Close() })

	c := cache.NewRedisCache(rds)

	type entry struct {
		Name string `json:"name"`
	}

	var got entry
	found, err := c.Get(ctx, "categories", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "categories", entry{Name: "tea"}, time.Minute))

	found, err = c.Get(ctx, "categories", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tea", got.Name)

	require.NoError(t, c.Delete(ctx, "categories"))

	found, err = c.Get(ctx, "categories", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
