package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-service/internal/storage/cache"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	c := cache.Noop{}

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	var got string
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Delete(ctx, "k"))
}
