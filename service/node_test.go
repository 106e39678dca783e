package service

import (
	"context"
	"testing"
	"time"

	"discoveryserver/domain"
	"discoveryserver/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode(t *testing.T) {
	t.Run("invalid_config_returns_bad_parameter", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.SelfPreservationThreshold = 1.5

		_, err := NewNode(cfg, &mock.PeerClientMock{}, newTestClock(), prometheus.NewRegistry(), log.NewNopLogger())

		require.Error(t, err)
		assert.True(t, IsBadParameterError(err))
	})

	t.Run("missing_node_id_is_generated", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.NodeID = ""

		node, err := NewNode(cfg, &mock.PeerClientMock{}, newTestClock(), prometheus.NewRegistry(), log.NewNopLogger())

		require.NoError(t, err)
		assert.Len(t, node.Registry().Status().NodeID, 36)
	})
}

func TestNode_Run(t *testing.T) {
	cfg := newTestConfig()
	cfg.Peers = []string{testPeer}
	cfg.ReplicationBackoff = time.Millisecond
	peer := &mock.PeerClientMock{}
	mirror := &mock.CacheMock[domain.Instance]{}
	reg := prometheus.NewRegistry()
	clk := newTestClock()

	node, err := NewNode(cfg, peer, clk, reg, log.NewNopLogger(), WithMirror(mirror))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- node.Run(ctx) }()

	_, err = node.Registry().Register(domain.Registration{Service: "billing", InstanceID: "i1", Address: "10.0.0.1:8080"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(peer.ReplicateCalls()) == 1 && len(mirror.WriteValueCalls()) == 1 && len(peer.FetchSnapshotCalls()) >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	count, err := testutil.GatherAndCount(reg, "discovery_registry_registrations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
