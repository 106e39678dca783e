package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"discoveryserver/domain"
	"discoveryserver/helpers"
	"discoveryserver/interfaces"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

const (
	leaseStoreShards = 64

	// maxRemoteClockSkew bounds how far ahead of local time a replicated timestamp may be.
	maxRemoteClockSkew = 24 * time.Hour
)

// LeaseStore holds one lease per (service, instance id).
//
// Keys are spread over shards, each guarded by its own RWMutex: writes to different shards run in
// parallel, writes to one key are mutually exclusive, and readers only hold a shard's read lock while
// copying pointers. Stored instances are replaced, never modified, so snapshots share them safely.
//
// Cancelled and evicted keys leave a tombstone carrying the removal's logical timestamp. Tombstones are
// never visible to queries; they let ApplyRemote order a late register against an earlier removal.
type LeaseStore struct {
	nodeID     string
	defaultTTL time.Duration
	clock      clock.Clock
	logical    *LogicalClock
	metrics    *Metrics
	logger     log.Logger
	shards     [leaseStoreShards]*leaseShard

	listenersMu sync.RWMutex
	listeners   []interfaces.MutationListener
}

type leaseShard struct {
	mu         sync.RWMutex
	leases     map[domain.InstanceKey]*storedLease
	tombstones map[domain.InstanceKey]*tombstone
}

type storedLease struct {
	lease  domain.Lease
	origin string // node that performed the last mutation
}

type tombstone struct {
	instance  domain.Instance // last known fields; LastDirtyTimestamp is the removal timestamp
	ttl       time.Duration
	origin    string
	mutation  domain.MutationType
	removedAt time.Time
}

// NewLeaseStore creates an empty store. Panics on empty nodeID, non-positive defaultTTL or nil dependencies.
func NewLeaseStore(
	nodeID string,
	defaultTTL time.Duration,
	clk clock.Clock,
	logical *LogicalClock,
	metrics *Metrics,
	logger log.Logger,
) *LeaseStore {
	if defaultTTL <= 0 {
		panic("service.lease_store.go: default ttl must be positive")
	}
	s := &LeaseStore{
		nodeID:     helpers.StrPanic(nodeID, "service.lease_store.go: node id is required"),
		defaultTTL: defaultTTL,
		clock:      helpers.NilPanic(clk, "service.lease_store.go: clock is required"),
		logical:    helpers.NilPanic(logical, "service.lease_store.go: logical clock is required"),
		metrics:    helpers.NilPanic(metrics, "service.lease_store.go: metrics is required"),
		logger:     log.With(helpers.NilPanic(logger, "service.lease_store.go: logger is required"), "component", "lease_store"),
	}
	for i := range s.shards {
		s.shards[i] = &leaseShard{
			leases:     make(map[domain.InstanceKey]*storedLease),
			tombstones: make(map[domain.InstanceKey]*tombstone),
		}
	}
	return s
}

// AddListener subscribes l to every subsequent mutation. Called during startup wiring.
func (s *LeaseStore) AddListener(l interfaces.MutationListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, helpers.NilPanic(l, "service.lease_store.go: listener is required"))
}

// Register inserts or replaces the lease of the instance and resets its renewal time.
// A zero status becomes UP; a non-positive ttl becomes the default ttl.
func (s *LeaseStore) Register(inst domain.Instance, ttl time.Duration) domain.Lease {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	key := inst.Key()
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.clock.Now()
	stored := inst.Clone()
	if stored.Status == "" {
		stored.Status = domain.StatusUp
	}
	stored.LastDirtyTimestamp = s.logical.Next()

	registeredAt := now
	if prev, ok := sh.leases[key]; ok {
		registeredAt = prev.lease.RegisteredAt
	} else {
		s.metrics.Leases.Inc()
	}
	delete(sh.tombstones, key)
	sl := &storedLease{
		lease: domain.Lease{
			Instance:      stored,
			RegisteredAt:  registeredAt,
			LastRenewedAt: now,
			Duration:      ttl,
		},
		origin: s.nodeID,
	}
	sh.leases[key] = sl

	s.metrics.Registrations.Inc()
	s.notify(s.localTask(domain.MutationRegister, stored, ttl), false)
	return sl.lease
}

// Renew moves the renewal time of an existing lease to now.
// Returns entity_not_found when no lease exists; the caller must register again.
func (s *LeaseStore) Renew(service, instanceID string) (domain.Lease, error) {
	return s.update(service, instanceID, domain.MutationRenew, func(sl *storedLease, inst *domain.Instance, now time.Time) {
		sl.lease.LastRenewedAt = now
		s.metrics.Renewals.Inc()
	})
}

// SetStatus replaces the status of an existing lease's instance.
func (s *LeaseStore) SetStatus(service, instanceID string, status domain.Status) (domain.Lease, error) {
	if !status.Valid() {
		return domain.Lease{}, NewBadParameterError(fmt.Sprintf("unknown status %q", status), nil)
	}
	return s.update(service, instanceID, domain.MutationStatusChange, func(sl *storedLease, inst *domain.Instance, now time.Time) {
		inst.Status = status
		s.metrics.StatusChanges.Inc()
	})
}

// update applies change to a copy of the stored instance and installs the copy.
func (s *LeaseStore) update(
	service, instanceID string,
	mutation domain.MutationType,
	change func(sl *storedLease, inst *domain.Instance, now time.Time),
) (domain.Lease, error) {
	key := domain.InstanceKey{Service: service, InstanceID: instanceID}
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sl, ok := sh.leases[key]
	if !ok {
		return domain.Lease{}, NewEntityNotFoundError(fmt.Sprintf("lease %s not found", key), nil)
	}
	if sl.lease.IsEvicted() {
		level.Error(s.logger).Log("msg", "evicted lease still present", "key", key, "mutation", mutation)
		return domain.Lease{}, NewInvariantViolationError(fmt.Sprintf("lease %s was evicted but is still stored", key), nil)
	}

	now := s.clock.Now()
	updated := sl.lease.Instance.Clone()
	change(sl, updated, now)
	updated.LastDirtyTimestamp = s.logical.Next()
	sl.lease.Instance = updated
	sl.origin = s.nodeID

	s.notify(s.localTask(mutation, updated, sl.lease.Duration), false)
	return sl.lease, nil
}

// Cancel removes the lease immediately, regardless of its ttl.
func (s *LeaseStore) Cancel(service, instanceID string) (domain.Lease, error) {
	key := domain.InstanceKey{Service: service, InstanceID: instanceID}
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sl, ok := sh.leases[key]
	if !ok {
		return domain.Lease{}, NewEntityNotFoundError(fmt.Sprintf("lease %s not found", key), nil)
	}
	removed := s.removeLocked(sh, key, sl, domain.MutationCancel, s.clock.Now())
	s.metrics.Cancellations.Inc()
	s.notify(s.localTask(domain.MutationCancel, removed, sl.lease.Duration), false)
	return sl.lease, nil
}

// EvictExpired removes every lease that is expired at now and returns the removed leases.
//
// Candidates are collected under the shard read lock and re-checked under the write lock, so a renewal
// that lands between the two either keeps the lease alive or finds it already gone.
func (s *LeaseStore) EvictExpired(now time.Time) []domain.Lease {
	var evicted []domain.Lease
	for _, sh := range s.shards {
		sh.mu.RLock()
		var candidates []domain.InstanceKey
		for key, sl := range sh.leases {
			if sl.lease.IsExpired(now) {
				candidates = append(candidates, key)
			}
		}
		sh.mu.RUnlock()

		for _, key := range candidates {
			if lease, ok := s.evict(sh, key, now); ok {
				evicted = append(evicted, lease)
			}
		}
	}
	return evicted
}

func (s *LeaseStore) evict(sh *leaseShard, key domain.InstanceKey, now time.Time) (domain.Lease, bool) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sl, ok := sh.leases[key]
	if !ok || !sl.lease.IsExpired(now) {
		return domain.Lease{}, false
	}
	evictedAt := now
	sl.lease.EvictedAt = &evictedAt
	removed := s.removeLocked(sh, key, sl, domain.MutationEvict, now)
	s.metrics.Evictions.Inc()
	s.notify(s.localTask(domain.MutationEvict, removed, sl.lease.Duration), false)
	return sl.lease, true
}

// removeLocked deletes the lease and leaves a tombstone stamped with a fresh logical timestamp.
// Returns the instance as recorded in the tombstone. Caller must hold sh.mu.
func (s *LeaseStore) removeLocked(sh *leaseShard, key domain.InstanceKey, sl *storedLease, mutation domain.MutationType, now time.Time) *domain.Instance {
	delete(sh.leases, key)
	s.metrics.Leases.Dec()

	removed := sl.lease.Instance.Clone()
	removed.LastDirtyTimestamp = s.logical.Next()
	sh.tombstones[key] = &tombstone{
		instance:  *removed,
		ttl:       sl.lease.Duration,
		origin:    s.nodeID,
		mutation:  mutation,
		removedAt: now,
	}
	return removed
}

// PurgeTombstones forgets removals recorded before cutoff and returns how many were purged.
func (s *LeaseStore) PurgeTombstones(cutoff time.Time) int {
	purged := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, tb := range sh.tombstones {
			if tb.removedAt.Before(cutoff) {
				delete(sh.tombstones, key)
				purged++
			}
		}
		sh.mu.Unlock()
	}
	return purged
}

// Lease returns a copy of the lease stored for the key.
func (s *LeaseStore) Lease(service, instanceID string) (domain.Lease, bool) {
	key := domain.InstanceKey{Service: service, InstanceID: instanceID}
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sl, ok := sh.leases[key]
	if !ok {
		return domain.Lease{}, false
	}
	return sl.lease, true
}

// Snapshot returns the instances with active leases, restricted to service when it is not empty.
func (s *LeaseStore) Snapshot(service string) domain.Snapshot {
	var instances []*domain.Instance
	for _, sh := range s.shards {
		sh.mu.RLock()
		for key, sl := range sh.leases {
			if service != "" && key.Service != service {
				continue
			}
			if sl.lease.IsEvicted() {
				continue
			}
			instances = append(instances, sl.lease.Instance)
		}
		sh.mu.RUnlock()
	}
	return domain.NewSnapshot(s.clock.Now(), instances)
}

// Len returns the number of active leases.
func (s *LeaseStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.leases)
		sh.mu.RUnlock()
	}
	return n
}

// Export returns the full state as replication tasks: a REGISTER per active lease and the original
// CANCEL/EVICT per tombstone. Used for full-snapshot reconciliation between peers.
func (s *LeaseStore) Export() []domain.ReplicationTask {
	var tasks []domain.ReplicationTask
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, sl := range sh.leases {
			tasks = append(tasks, domain.ReplicationTask{
				ID:         uuid.NewString(),
				Origin:     sl.origin,
				Type:       domain.MutationRegister,
				Service:    sl.lease.Instance.Service,
				InstanceID: sl.lease.Instance.InstanceID,
				Instance:   *sl.lease.Instance,
				TTL:        sl.lease.Duration,
				Timestamp:  sl.lease.Instance.LastDirtyTimestamp,
			})
		}
		for _, tb := range sh.tombstones {
			tasks = append(tasks, domain.ReplicationTask{
				ID:         uuid.NewString(),
				Origin:     tb.origin,
				Type:       tb.mutation,
				Service:    tb.instance.Service,
				InstanceID: tb.instance.InstanceID,
				Instance:   tb.instance,
				TTL:        tb.ttl,
				Timestamp:  tb.instance.LastDirtyTimestamp,
			})
		}
		sh.mu.RUnlock()
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Key().String() < tasks[j].Key().String()
	})
	return tasks
}

// ApplyRemote merges a mutation received from a peer using last-writer-wins.
//
// The mutation replaces the local state of the key only when its version orders after the local one:
// higher logical timestamp, then more terminal status, then removal over upsert, then greater origin.
// Returns false when the local state is newer or equal. Applied mutations are not replicated further.
func (s *LeaseStore) ApplyRemote(task domain.ReplicationTask) (bool, error) {
	if task.Service == "" || task.InstanceID == "" {
		return false, NewBadParameterError("replication task without service or instance id", nil)
	}
	if !task.Type.Valid() {
		return false, NewBadParameterError(fmt.Sprintf("unknown mutation type %q", task.Type), nil)
	}
	if !task.Type.Removes() && !task.Instance.Status.Valid() {
		return false, NewBadParameterError(fmt.Sprintf("unknown status %q", task.Instance.Status), nil)
	}
	if limit := s.clock.Now().Add(maxRemoteClockSkew).UnixNano(); task.Timestamp > limit {
		return false, NewBadParameterError(fmt.Sprintf("timestamp %d is more than %s ahead of local time", task.Timestamp, maxRemoteClockSkew), nil)
	}
	s.logical.Observe(task.Timestamp)

	key := task.Key()
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	incoming := version{
		timestamp: task.Timestamp,
		rank:      task.Instance.Status.Rank(),
		removal:   task.Type.Removes(),
		origin:    task.Origin,
	}
	if current, ok := currentVersionLocked(sh, key); ok && !incoming.after(current) {
		s.metrics.RemoteMutations.WithLabelValues("stale").Inc()
		return false, nil
	}

	now := s.clock.Now()
	inst := task.Instance.Clone()
	inst.Service = task.Service
	inst.InstanceID = task.InstanceID
	inst.LastDirtyTimestamp = task.Timestamp
	ttl := task.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	if task.Type.Removes() {
		if _, ok := sh.leases[key]; ok {
			delete(sh.leases, key)
			s.metrics.Leases.Dec()
		}
		sh.tombstones[key] = &tombstone{
			instance:  *inst,
			ttl:       ttl,
			origin:    task.Origin,
			mutation:  task.Type,
			removedAt: now,
		}
	} else {
		registeredAt := now
		if prev, ok := sh.leases[key]; ok {
			registeredAt = prev.lease.RegisteredAt
		} else {
			s.metrics.Leases.Inc()
		}
		delete(sh.tombstones, key)
		sh.leases[key] = &storedLease{
			lease: domain.Lease{
				Instance:      inst,
				RegisteredAt:  registeredAt,
				LastRenewedAt: now,
				Duration:      ttl,
			},
			origin: task.Origin,
		}
	}

	s.metrics.RemoteMutations.WithLabelValues("applied").Inc()
	task.Instance = *inst
	task.TTL = ttl
	s.notify(task, true)
	return true, nil
}

// version orders competing mutations of one key.
type version struct {
	timestamp int64
	rank      int
	removal   bool
	origin    string
}

// after reports whether v wins over o. It is a strict total order over distinct versions,
// which makes merges independent of delivery order.
func (v version) after(o version) bool {
	if v.timestamp != o.timestamp {
		return v.timestamp > o.timestamp
	}
	if v.rank != o.rank {
		return v.rank > o.rank
	}
	if v.removal != o.removal {
		return v.removal
	}
	return v.origin > o.origin
}

// currentVersionLocked returns the version of the live lease or tombstone of key. Caller must hold sh.mu.
func currentVersionLocked(sh *leaseShard, key domain.InstanceKey) (version, bool) {
	if sl, ok := sh.leases[key]; ok {
		return version{
			timestamp: sl.lease.Instance.LastDirtyTimestamp,
			rank:      sl.lease.Instance.Status.Rank(),
			origin:    sl.origin,
		}, true
	}
	if tb, ok := sh.tombstones[key]; ok {
		return version{
			timestamp: tb.instance.LastDirtyTimestamp,
			rank:      tb.instance.Status.Rank(),
			removal:   true,
			origin:    tb.origin,
		}, true
	}
	return version{}, false
}

func (s *LeaseStore) localTask(mutation domain.MutationType, inst *domain.Instance, ttl time.Duration) domain.ReplicationTask {
	return domain.ReplicationTask{
		ID:         uuid.NewString(),
		Origin:     s.nodeID,
		Type:       mutation,
		Service:    inst.Service,
		InstanceID: inst.InstanceID,
		Instance:   *inst,
		TTL:        ttl,
		Timestamp:  inst.LastDirtyTimestamp,
	}
}

func (s *LeaseStore) notify(task domain.ReplicationTask, replicated bool) {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	for _, l := range s.listeners {
		l.OnMutation(task, replicated)
	}
}

func (s *LeaseStore) shardFor(key domain.InstanceKey) *leaseShard {
	return s.shards[murmur3.Sum32([]byte(key.String()))%leaseStoreShards]
}
