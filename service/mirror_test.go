package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"discoveryserver/domain"
	"discoveryserver/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstanceMirror_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "service.mirror.go: cache is required", func() {
		NewInstanceMirror(nil, log.NewNopLogger())
	})
}

func TestInstanceMirror(t *testing.T) {
	cache := &mock.CacheMock[domain.Instance]{
		DeleteValueFunc: func(ctx context.Context, key string) error {
			return errors.New("redis down")
		},
	}
	mirror := NewInstanceMirror(cache, log.NewNopLogger())
	store, _ := newTestStore(t, "n1", newTestClock())
	store.AddListener(mirror)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mirror.Run(ctx) }()

	store.Register(billing("i1", "10.0.0.1:8080"), 30*time.Second)
	_, err := store.Cancel("billing", "i1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(cache.WriteValueCalls()) == 1 && len(cache.DeleteValueCalls()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	write := cache.WriteValueCalls()[0]
	assert.Equal(t, "billing:i1", write.Key)
	assert.Equal(t, 30000, write.TtlMs)
	assert.Equal(t, "10.0.0.1:8080", write.Item.Address)
	assert.Equal(t, MirrorKey("billing", "i1"), cache.DeleteValueCalls()[0].Key)
}
