package service

import (
	"sync"
	"testing"
	"time"

	"discoveryserver/domain"
	"discoveryserver/interfaces"
	"discoveryserver/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ interfaces.Registry = (*Registry)(nil)

func newTestRegistry(t *testing.T) (*Registry, *LeaseStore) {
	t.Helper()
	cfg := newTestConfig()
	cfg.Peers = []string{testPeer}
	clk := newTestClock()
	store, metrics := newTestStore(t, cfg.NodeID, clk)
	monitor := NewSelfPreservationMonitor(cfg, clk, metrics, log.NewNopLogger())
	coordinator := NewReplicationCoordinator(cfg, store, &mock.PeerClientMock{}, clk, metrics, log.NewNopLogger())
	cache := NewResponseCache(cfg.ResponseCacheSize, cfg.ResponseCacheTTL)
	store.AddListener(cache)
	store.AddListener(monitor)
	return NewRegistry(cfg, store, coordinator, monitor, cache, log.NewNopLogger()), store
}

func TestRegistry_Register_Validation(t *testing.T) {
	valid := domain.Registration{Service: "billing", InstanceID: "i1", Address: "10.0.0.1:8080"}
	tests := []struct {
		name    string
		mutate  func(r *domain.Registration)
		wantMsg string
	}{
		{name: "missing_service", mutate: func(r *domain.Registration) { r.Service = "" }, wantMsg: "service failed on 'required'"},
		{name: "missing_instance_id", mutate: func(r *domain.Registration) { r.InstanceID = "" }, wantMsg: "instance_id failed on 'required'"},
		{name: "missing_address", mutate: func(r *domain.Registration) { r.Address = "" }, wantMsg: "address failed on 'required'"},
		{name: "address_without_port", mutate: func(r *domain.Registration) { r.Address = "10.0.0.1" }, wantMsg: "address failed on 'hostname_port'"},
		{name: "unknown_status", mutate: func(r *domain.Registration) { r.Status = "SLEEPY" }, wantMsg: "status failed on 'oneof'"},
		{name: "ttl_below_minimum", mutate: func(r *domain.Registration) { r.TTL = time.Millisecond }, wantMsg: "outside"},
		{name: "ttl_above_maximum", mutate: func(r *domain.Registration) { r.TTL = 2 * time.Hour }, wantMsg: "outside"},
		{name: "negative_ttl", mutate: func(r *domain.Registration) { r.TTL = -time.Second }, wantMsg: "outside"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, store := newTestRegistry(t)
			reg := valid
			tt.mutate(&reg)

			_, err := registry.Register(reg)

			require.Error(t, err)
			assert.True(t, IsBadParameterError(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, 0, store.Len(), "invalid registrations must not reach the store")
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	registry, _ := newTestRegistry(t)

	lease, err := registry.Register(domain.Registration{
		Service:    "billing",
		InstanceID: "i1",
		Address:    "billing-1.internal:8080",
		Metadata:   map[string]string{"zone": "a"},
	})

	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, lease.Duration)
	assert.Equal(t, domain.StatusUp, lease.Instance.Status)
	assert.Equal(t, "a", lease.Instance.Metadata["zone"])
}

func TestRegistry_KeyValidation(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.Renew("", "i1")
	assert.True(t, IsBadParameterError(err))
	_, err = registry.SetStatus("billing", "", domain.StatusDown)
	assert.True(t, IsBadParameterError(err))
	_, err = registry.SetStatus("billing", "i1", "SLEEPY")
	assert.True(t, IsBadParameterError(err))
	assert.True(t, IsBadParameterError(registry.Cancel("billing", "")))

	_, err = registry.Renew("billing", "i1")
	assert.True(t, IsEntityNotFoundError(err))
	assert.True(t, IsEntityNotFoundError(registry.Cancel("billing", "i1")))
}

func TestRegistry_Query(t *testing.T) {
	registry, _ := newTestRegistry(t)
	_, err := registry.Register(domain.Registration{Service: "billing", InstanceID: "i1", Address: "10.0.0.1:8080"})
	require.NoError(t, err)

	first := registry.Query("billing")
	require.Len(t, first.Instances("billing"), 1)
	assert.Equal(t, first, registry.Query("billing"), "repeated query is served from cache")

	_, err = registry.Register(domain.Registration{Service: "billing", InstanceID: "i2", Address: "10.0.0.2:8080"})
	require.NoError(t, err)
	_, err = registry.Register(domain.Registration{Service: "audit", InstanceID: "a1", Address: "10.0.1.1:9000"})
	require.NoError(t, err)

	assert.Len(t, registry.Query("billing").Instances("billing"), 2)
	assert.Equal(t, []string{"audit", "billing"}, registry.Query("").ServiceNames())

	_, err = registry.SetStatus("billing", "i1", domain.StatusDown)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDown, registry.Query("billing").Instances("billing")[0].Status)

	require.NoError(t, registry.Cancel("billing", "i2"))
	assert.Len(t, registry.Query("billing").Instances("billing"), 1)
	assert.Empty(t, registry.Query("unknown").Services)
}

func TestRegistry_Status(t *testing.T) {
	registry, _ := newTestRegistry(t)
	_, err := registry.Register(domain.Registration{Service: "billing", InstanceID: "i1", Address: "10.0.0.1:8080"})
	require.NoError(t, err)

	status := registry.Status()

	assert.Equal(t, "n1", status.NodeID)
	assert.Equal(t, 1, status.Leases)
	assert.Equal(t, domain.PreservationNormal, status.SelfPreservation.State)
	require.Len(t, status.Peers, 1)
	assert.Equal(t, testPeer, status.Peers[0].Address)
	assert.Equal(t, domain.PeerHealthUnknown, status.Peers[0].Health)
	assert.Equal(t, status.Peers, registry.Peers())
	assert.Equal(t, status.SelfPreservation, registry.SelfPreservation())
}

func TestRegistry_ApplyReplicationAndExport(t *testing.T) {
	source, _ := newTestRegistry(t)
	_, err := source.Register(domain.Registration{Service: "billing", InstanceID: "i1", Address: "10.0.0.1:8080"})
	require.NoError(t, err)

	target, _ := newTestRegistry(t)
	applied, err := target.ApplyReplication(source.Export())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Len(t, target.Query("billing").Instances("billing"), 1)

	_, err = target.ApplyReplication([]domain.ReplicationTask{{ID: "broken"}})
	assert.True(t, IsBadParameterError(err))
}

func TestRegistry_Query_NoStaleAnswerAfterCancel(t *testing.T) {
	registry, _ := newTestRegistry(t)

	for i := 0; i < 2000; i++ {
		_, err := registry.Register(domain.Registration{Service: "billing", InstanceID: "i1", Address: "10.0.0.1:8080"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Query("billing")
			registry.Query("")
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, registry.Cancel("billing", "i1"))
		}()
		wg.Wait()

		require.Empty(t, registry.Query("billing").Instances("billing"), "iteration %d", i)
		require.Zero(t, registry.Query("").Len(), "iteration %d", i)
	}
}
