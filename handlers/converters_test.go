package handlers

import (
	"testing"
	"time"

	"discoveryserver/domain"
	"discoveryserver/helpers"

	"github.com/stretchr/testify/assert"
)

func TestFromRegisterRequest(t *testing.T) {
	tests := []struct {
		name     string
		request  RegisterRequest
		expected domain.Registration
	}{
		{
			name: "all fields",
			request: RegisterRequest{
				InstanceId: "i1",
				Address:    "10.0.0.1:8080",
				Status:     ptr("DOWN"),
				Metadata:   ptr(map[string]string{"zone": "a"}),
				TtlMs:      ptr(int64(1500)),
			},
			expected: domain.Registration{
				Service:    "billing",
				InstanceID: "i1",
				Address:    "10.0.0.1:8080",
				Status:     domain.StatusDown,
				Metadata:   map[string]string{"zone": "a"},
				TTL:        1500 * time.Millisecond,
			},
		},
		{
			name:    "optional fields absent",
			request: RegisterRequest{InstanceId: "i1", Address: "10.0.0.1:8080"},
			expected: domain.Registration{
				Service:    "billing",
				InstanceID: "i1",
				Address:    "10.0.0.1:8080",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fromRegisterRequest("billing", tt.request))
		})
	}
}

func TestToLeaseResponse(t *testing.T) {
	lease := domain.Lease{
		Instance:      &domain.Instance{Service: "billing", InstanceID: "i1", Address: "10.0.0.1:8080", Status: domain.StatusUp, LastDirtyTimestamp: 9},
		RegisteredAt:  helpers.TestNow(),
		LastRenewedAt: helpers.TestNow().Add(time.Minute),
		Duration:      90 * time.Second,
	}

	got := toLeaseResponse(lease)

	assert.Equal(t, LeaseResponse{
		Instance: InstanceInfo{
			Service:            "billing",
			InstanceId:         "i1",
			Address:            "10.0.0.1:8080",
			Status:             "UP",
			LastDirtyTimestamp: 9,
		},
		RegisteredAt:  helpers.TestNow(),
		LastRenewedAt: helpers.TestNow().Add(time.Minute),
		TtlMs:         90000,
	}, got)
}

func TestToNodeStatusResponse(t *testing.T) {
	success := helpers.TestNow()
	got := toNodeStatusResponse(domain.NodeStatus{
		NodeID: "n1",
		Peers: []domain.Peer{
			{Address: "a", Health: domain.PeerHealthReachable, LastSuccess: success},
			{Address: "b", Health: domain.PeerHealthUnknown},
		},
		SelfPreservation: domain.PreservationStatus{State: domain.PreservationNormal, Ratio: 1},
	})

	assert.Equal(t, "NORMAL", got.SelfPreservation.State)
	assert.Nil(t, got.SelfPreservation.LastMeasuredAt)
	assert.Equal(t, &success, got.Peers[0].LastSuccess)
	assert.Nil(t, got.Peers[1].LastSuccess)
}

func ptr[T any](v T) *T {
	return &v
}

func TestDeref(t *testing.T) {
	assert.Equal(t, 0, deref[int](nil))
	assert.Equal(t, "UP", deref(ptr("UP")))
}
