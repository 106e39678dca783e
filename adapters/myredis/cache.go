package myredis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"discoveryserver/domain"
	"discoveryserver/helpers"
	"discoveryserver/service"

	"github.com/go-redis/redis/v8"
)

// Cache stores values of type T in Redis under "<prefix>:<key>".
type Cache[T any] struct {
	client  redis.UniversalClient
	prefix  string
	marshal func(T) ([]byte, error)
}

// NewCache creates a Redis implementation of interfaces.Cache.
func NewCache[T any](client redis.UniversalClient, prefix string, marshal func(T) ([]byte, error)) *Cache[T] {
	return &Cache[T]{
		client:  helpers.NilPanic(client, "adapters.myredis.cache.go: client is required"),
		prefix:  helpers.StrPanic(prefix, "adapters.myredis.cache.go: prefix is required"),
		marshal: helpers.NilPanic(marshal, "adapters.myredis.cache.go: marshal is required"),
	}
}

// NewInstanceCache creates the cache the registry mirrors its instances to, as JSON documents.
func NewInstanceCache(client redis.UniversalClient, prefix string) *Cache[domain.Instance] {
	return NewCache(client, prefix, func(i domain.Instance) ([]byte, error) { return json.Marshal(i) })
}

// WriteValue stores item under key. A non-positive ttlMs stores it without expiry.
func (r *Cache[T]) WriteValue(ctx context.Context, key string, item T, ttlMs int) error {
	bytes, err := r.marshal(item)
	if err != nil {
		return service.NewInternalServerError("Redis marshal item error", fmt.Errorf("can't marshal item of type %T, err: %w", item, err))
	}

	ttl := time.Duration(max(ttlMs, 0)) * time.Millisecond
	err = r.client.Set(ctx, r.generateKey(key), bytes, ttl).Err()
	if err != nil {
		return service.NewInternalServerError("Redis write key error", fmt.Errorf("can't write item of type %T to redis (key='%s'), err: %w", item, key, err))
	}

	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (r *Cache[T]) DeleteValue(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.generateKey(key)).Err()
	if err != nil {
		return service.NewInternalServerError("Redis delete key error", fmt.Errorf("can't delete key '%s' from redis, err: %w", key, err))
	}
	return nil
}

func (r *Cache[T]) generateKey(key string) string {
	return r.prefix + ":" + key
}
