package handlers

import (
	"time"

	"discoveryserver/domain"
)

func toInstanceInfo(i *domain.Instance) InstanceInfo {
	info := InstanceInfo{
		Service:            i.Service,
		InstanceId:         i.InstanceID,
		Address:            i.Address,
		Status:             string(i.Status),
		LastDirtyTimestamp: i.LastDirtyTimestamp,
	}
	if len(i.Metadata) > 0 {
		metadata := i.Metadata
		info.Metadata = &metadata
	}
	return info
}

// toInstancesResponse converts the instances of svc in snapshot to API response.
func toInstancesResponse(svc string, snapshot domain.Snapshot) InstancesResponse {
	instances := snapshot.Instances(svc)
	out := make([]InstanceInfo, 0, len(instances))
	for _, i := range instances {
		out = append(out, toInstanceInfo(i))
	}
	return InstancesResponse{Service: svc, Instances: out}
}

// toServicesResponse converts every service of snapshot, sorted by name.
func toServicesResponse(snapshot domain.Snapshot) ServicesResponse {
	names := snapshot.ServiceNames()
	out := make([]InstancesResponse, 0, len(names))
	for _, name := range names {
		out = append(out, toInstancesResponse(name, snapshot))
	}
	return ServicesResponse{Services: out}
}

func toLeaseResponse(lease domain.Lease) LeaseResponse {
	return LeaseResponse{
		Instance:      toInstanceInfo(lease.Instance),
		RegisteredAt:  lease.RegisteredAt,
		LastRenewedAt: lease.LastRenewedAt,
		TtlMs:         lease.Duration.Milliseconds(),
	}
}

func toNodeStatusResponse(status domain.NodeStatus) NodeStatusResponse {
	peers := make([]PeerInfo, 0, len(status.Peers))
	for _, p := range status.Peers {
		peers = append(peers, PeerInfo{
			Address:     p.Address,
			Health:      string(p.Health),
			LastSuccess: optionalTime(p.LastSuccess),
			QueueDepth:  p.QueueDepth,
		})
	}
	sp := status.SelfPreservation
	return NodeStatusResponse{
		NodeId: status.NodeID,
		Leases: status.Leases,
		SelfPreservation: SelfPreservationInfo{
			State:            string(sp.State),
			Enabled:          sp.Enabled,
			Threshold:        sp.Threshold,
			ExpectedRenewals: sp.ExpectedRenewals,
			ObservedRenewals: sp.ObservedRenewals,
			Ratio:            sp.Ratio,
			LastMeasuredAt:   optionalTime(sp.LastMeasuredAt),
		},
		Peers: peers,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
