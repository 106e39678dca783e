package service

import (
	"fmt"
	"time"

	"discoveryserver/domain"
	"discoveryserver/helpers"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"
)

// Registry is the query/registration façade. It validates input before touching the lease store and
// serves queries through the response cache.
type Registry struct {
	nodeID      string
	store       *LeaseStore
	coordinator *ReplicationCoordinator
	monitor     *SelfPreservationMonitor
	cache       *ResponseCache
	validate    *validator.Validate
	defaultTTL  time.Duration
	minTTL      time.Duration
	maxTTL      time.Duration
	logger      log.Logger
}

// NewRegistry creates the façade over already wired components.
func NewRegistry(
	cfg domain.RegistryConfig,
	store *LeaseStore,
	coordinator *ReplicationCoordinator,
	monitor *SelfPreservationMonitor,
	cache *ResponseCache,
	logger log.Logger,
) *Registry {
	return &Registry{
		nodeID:      helpers.StrPanic(cfg.NodeID, "service.registry.go: node id is required"),
		store:       helpers.NilPanic(store, "service.registry.go: store is required"),
		coordinator: helpers.NilPanic(coordinator, "service.registry.go: coordinator is required"),
		monitor:     helpers.NilPanic(monitor, "service.registry.go: monitor is required"),
		cache:       helpers.NilPanic(cache, "service.registry.go: cache is required"),
		validate:    newValidator(),
		defaultTTL:  cfg.LeaseTTL,
		minTTL:      cfg.MinLeaseTTL,
		maxTTL:      cfg.MaxLeaseTTL,
		logger:      log.With(helpers.NilPanic(logger, "service.registry.go: logger is required"), "component", "registry"),
	}
}

// Register validates reg and inserts or replaces the lease. A zero TTL means the default TTL.
func (r *Registry) Register(reg domain.Registration) (domain.Lease, error) {
	if err := r.validate.Struct(reg); err != nil {
		return domain.Lease{}, toValidationError(err)
	}
	ttl := reg.TTL
	if ttl == 0 {
		ttl = r.defaultTTL
	}
	if ttl < r.minTTL || ttl > r.maxTTL {
		return domain.Lease{}, NewBadParameterError(fmt.Sprintf("ttl %s is outside [%s, %s]", ttl, r.minTTL, r.maxTTL), nil)
	}

	lease := r.store.Register(domain.Instance{
		Service:    reg.Service,
		InstanceID: reg.InstanceID,
		Address:    reg.Address,
		Status:     reg.Status,
		Metadata:   reg.Metadata,
	}, ttl)
	level.Info(r.logger).Log(
		"msg", "instance registered",
		"service", reg.Service,
		"instance_id", reg.InstanceID,
		"address", reg.Address,
		"status", lease.Instance.Status,
		"ttl", ttl,
	)
	return lease, nil
}

// Renew records a heartbeat for the instance.
func (r *Registry) Renew(service, instanceID string) (domain.Lease, error) {
	if err := validateKey(service, instanceID); err != nil {
		return domain.Lease{}, err
	}
	lease, err := r.store.Renew(service, instanceID)
	if err != nil {
		return domain.Lease{}, fmt.Errorf("renew %s/%s: %w", service, instanceID, err)
	}
	return lease, nil
}

// SetStatus changes the status of a registered instance.
func (r *Registry) SetStatus(service, instanceID string, status domain.Status) (domain.Lease, error) {
	if err := validateKey(service, instanceID); err != nil {
		return domain.Lease{}, err
	}
	if !status.Valid() {
		return domain.Lease{}, NewBadParameterError(fmt.Sprintf("unknown status %q", status), nil)
	}
	lease, err := r.store.SetStatus(service, instanceID, status)
	if err != nil {
		return domain.Lease{}, fmt.Errorf("set status %s/%s: %w", service, instanceID, err)
	}
	level.Info(r.logger).Log("msg", "instance status changed", "service", service, "instance_id", instanceID, "status", status)
	return lease, nil
}

// Cancel removes the lease of the instance.
func (r *Registry) Cancel(service, instanceID string) error {
	if err := validateKey(service, instanceID); err != nil {
		return err
	}
	if _, err := r.store.Cancel(service, instanceID); err != nil {
		return fmt.Errorf("cancel %s/%s: %w", service, instanceID, err)
	}
	level.Info(r.logger).Log("msg", "instance cancelled", "service", service, "instance_id", instanceID)
	return nil
}

// Query returns the active instances of service, or of every service when service is empty.
func (r *Registry) Query(service string) domain.Snapshot {
	if snap, ok := r.cache.Get(service); ok {
		return snap
	}
	generation := r.cache.Generation()
	snap := r.store.Snapshot(service)
	r.cache.AddIfCurrent(service, snap, generation)
	return snap
}

// Peers reports the replication state of every configured peer.
func (r *Registry) Peers() []domain.Peer {
	return r.coordinator.Peers()
}

// SelfPreservation reports the monitor's last measurement.
func (r *Registry) SelfPreservation() domain.PreservationStatus {
	return r.monitor.Status()
}

// Status reports the node's self-preservation and replication state.
func (r *Registry) Status() domain.NodeStatus {
	return domain.NodeStatus{
		NodeID:           r.nodeID,
		Leases:           r.store.Len(),
		SelfPreservation: r.SelfPreservation(),
		Peers:            r.Peers(),
	}
}

// ApplyReplication merges tasks pushed by a peer.
func (r *Registry) ApplyReplication(tasks []domain.ReplicationTask) (int, error) {
	applied, err := r.coordinator.ApplyRemote(tasks)
	if err != nil {
		return applied, NewBadParameterError("replication batch contains invalid tasks", err)
	}
	return applied, nil
}

// Export returns the full local state for a peer.
func (r *Registry) Export() []domain.ReplicationTask {
	return r.store.Export()
}

func validateKey(service, instanceID string) error {
	if service == "" {
		return NewBadParameterError("service is required", nil)
	}
	if instanceID == "" {
		return NewBadParameterError("instance_id is required", nil)
	}
	return nil
}
