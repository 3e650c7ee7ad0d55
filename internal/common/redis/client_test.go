package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catat-worker/internal/common/config"
)

func TestNewRedisClient_AppliesConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(&config.RedisConfig{Addr: mr.Addr(), PoolSize: 3})
	defer Close(client)

	assert.Equal(t, 3, client.Options().PoolSize)
	assert.Equal(t, commandTimeout, client.Options().ReadTimeout)
	require.NoError(t, Ping(context.Background(), client))
}

func TestPing_ReportsAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client := NewRedisClient(&config.RedisConfig{Addr: addr})
	defer Close(client)
	mr.Close()

	err := Ping(context.Background(), client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}
