package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/config"
)

func TestNilCacheIsEmpty(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	assert.False(t, c.Enabled())
	assert.NoError(t, c.SetJSON(ctx, "k", []int{1, 2}, time.Minute))

	var out []int
	found, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)

	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestNewWithoutAddressDisablesCache(t *testing.T) {
	c, err := New(context.Background(), &config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}
