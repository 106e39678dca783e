package interfaces

import "discoveryserver/domain"

// Registry is the operation surface of the registry core that transports call into.
//
// Implemented by service.Registry. Called from handlers.HTTPServer.
//
//go:generate moq -stub -out mock/registry.go -pkg mock . Registry
type Registry interface {
	// Register inserts or replaces the lease of an instance.
	// Returns bad_parameter when the registration is invalid; the store is not touched in that case.
	Register(reg domain.Registration) (domain.Lease, error)

	// Renew records a heartbeat. Returns entity_not_found when the instance must register again.
	Renew(service, instanceID string) (domain.Lease, error)

	// SetStatus changes the reported status of a registered instance.
	SetStatus(service, instanceID string, status domain.Status) (domain.Lease, error)

	// Cancel removes the lease immediately. Returns entity_not_found for unknown instances.
	Cancel(service, instanceID string) error

	// Query returns the active instances of service, or of every service when service is empty.
	Query(service string) domain.Snapshot

	// Status reports self-preservation and peer replication state.
	Status() domain.NodeStatus

	// ApplyReplication merges tasks pushed by a peer and returns how many changed local state.
	ApplyReplication(tasks []domain.ReplicationTask) (int, error)

	// Export returns the full local state for a peer's reconciliation.
	Export() []domain.ReplicationTask
}
