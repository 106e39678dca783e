package interfaces

import (
	"context"

	"discoveryserver/domain"
)

// PeerClient delivers replication traffic to one sibling registry node.
//
// Implemented by adapters/peerhttp. Called from service.ReplicationCoordinator: Replicate by the per-peer
// sender goroutines, FetchSnapshot by the reconciliation job.
//
//go:generate moq -stub -out mock/peer_client.go -pkg mock . PeerClient
type PeerClient interface {
	// Replicate pushes a batch of tasks to the peer at address.
	// Returns nil when the peer accepted the batch; a replication_delivery_failed error on network errors
	// or 5xx answers (retryable); a bad_parameter error when the peer rejected the payload (not retryable).
	Replicate(ctx context.Context, address string, tasks []domain.ReplicationTask) error

	// FetchSnapshot returns the peer's full state (active leases and tombstones) as replication tasks.
	FetchSnapshot(ctx context.Context, address string) ([]domain.ReplicationTask, error)
}
