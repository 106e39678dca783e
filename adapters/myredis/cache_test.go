package myredis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"discoveryserver/domain"
	"discoveryserver/interfaces"
	"discoveryserver/service"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "discovery-test"

var _ interfaces.Cache[domain.Instance] = (*Cache[domain.Instance])(nil)

// setupTestRedis connects to REDIS_TEST_ADDR (default redis://localhost:6379) and skips the test when
// no server answers.
func setupTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "redis://localhost:6379"
	}
	client, err := NewRedisUniversalClient(addr)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Ping(ctx, client); err != nil {
		client.Close()
		t.Skipf("redis is not available at %s: %v", addr, err)
	}

	cleanup := func() {
		keys, _ := client.Keys(context.Background(), testPrefix+":*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		client.Close()
	})
	return client
}

func TestNewCache_Panics(t *testing.T) {
	client, err := NewRedisUniversalClient("redis://localhost:6379")
	require.NoError(t, err)
	defer client.Close()

	assert.PanicsWithValue(t, "adapters.myredis.cache.go: prefix is required", func() {
		NewInstanceCache(client, "")
	})
	assert.PanicsWithValue(t, "adapters.myredis.cache.go: client is required", func() {
		NewInstanceCache(nil, testPrefix)
	})
}

func TestCache_WriteValue(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	cache := NewInstanceCache(client, testPrefix)
	inst := domain.Instance{
		Service:            "billing",
		InstanceID:         "i1",
		Address:            "10.0.0.1:8080",
		Status:             domain.StatusUp,
		Metadata:           map[string]string{"zone": "a"},
		LastDirtyTimestamp: 42,
	}

	t.Run("success", func(t *testing.T) {
		err := cache.WriteValue(ctx, "billing:i1", inst, 60000)
		require.NoError(t, err)

		raw, err := client.Get(ctx, testPrefix+":billing:i1").Bytes()
		require.NoError(t, err)
		var got domain.Instance
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, inst, got)

		ttl, err := client.PTTL(ctx, testPrefix+":billing:i1").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("marshal failure returns internal_server_error", func(t *testing.T) {
		failing := NewCache(client, testPrefix, func(domain.Instance) ([]byte, error) {
			return nil, errors.New("boom")
		})

		err := failing.WriteValue(ctx, "billing:i1", inst, 60000)
		require.Error(t, err)
		assert.True(t, service.IsInternalServerError(err))
	})

	t.Run("when Redis write fails returns internal_server_error", func(t *testing.T) {
		closedClient, err := NewRedisUniversalClient("redis://localhost:6379")
		require.NoError(t, err)
		closedClient.Close()
		cacheClosed := NewInstanceCache(closedClient, testPrefix)

		err = cacheClosed.WriteValue(ctx, "x", inst, 60000)
		require.Error(t, err)
		assert.True(t, service.IsInternalServerError(err))
	})
}

func TestCache_DeleteValue(t *testing.T) {
	ctx := context.Background()
	client := setupTestRedis(t)
	cache := NewInstanceCache(client, testPrefix)
	inst := domain.Instance{Service: "billing", InstanceID: "i1", Address: "10.0.0.1:8080", Status: domain.StatusUp}
	require.NoError(t, cache.WriteValue(ctx, "billing:i1", inst, 60000))

	require.NoError(t, cache.DeleteValue(ctx, "billing:i1"))
	require.NoError(t, cache.DeleteValue(ctx, "billing:i1"), "deleting a missing key succeeds")

	_, err := client.Get(ctx, testPrefix+":billing:i1").Result()
	assert.ErrorIs(t, err, redis.Nil)
}
