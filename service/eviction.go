package service

import (
	"context"
	"time"

	"discoveryserver/domain"
	"discoveryserver/helpers"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// EvictionScheduler periodically removes expired leases unless self-preservation is active.
type EvictionScheduler struct {
	store     *LeaseStore
	monitor   *SelfPreservationMonitor
	interval  time.Duration
	retention time.Duration
	clock     clock.Clock
	metrics   *Metrics
	logger    log.Logger
}

// NewEvictionScheduler creates a scheduler sweeping store every cfg.EvictionInterval.
func NewEvictionScheduler(
	cfg domain.RegistryConfig,
	store *LeaseStore,
	monitor *SelfPreservationMonitor,
	clk clock.Clock,
	metrics *Metrics,
	logger log.Logger,
) *EvictionScheduler {
	return &EvictionScheduler{
		store:     helpers.NilPanic(store, "service.eviction.go: store is required"),
		monitor:   helpers.NilPanic(monitor, "service.eviction.go: monitor is required"),
		interval:  cfg.EvictionInterval,
		retention: cfg.TombstoneRetention,
		clock:     helpers.NilPanic(clk, "service.eviction.go: clock is required"),
		metrics:   helpers.NilPanic(metrics, "service.eviction.go: metrics is required"),
		logger:    log.With(helpers.NilPanic(logger, "service.eviction.go: logger is required"), "component", "eviction"),
	}
}

// Sweep runs one eviction tick and returns the evicted leases.
// While the monitor reports self-preservation nothing is evicted, even leases that are long expired.
func (e *EvictionScheduler) Sweep() []domain.Lease {
	now := e.clock.Now()
	if purged := e.store.PurgeTombstones(now.Add(-e.retention)); purged > 0 {
		level.Debug(e.logger).Log("msg", "purged tombstones", "count", purged)
	}

	if e.monitor.IsSelfPreserving() {
		e.metrics.SkippedSweeps.Inc()
		level.Warn(e.logger).Log("msg", "self-preservation active, eviction skipped", "leases", e.store.Len())
		return nil
	}

	evicted := e.store.EvictExpired(now)
	for _, lease := range evicted {
		level.Info(e.logger).Log(
			"msg", "lease evicted",
			"service", lease.Instance.Service,
			"instance_id", lease.Instance.InstanceID,
			"last_renewed_at", lease.LastRenewedAt,
			"ttl", lease.Duration,
		)
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (e *EvictionScheduler) Run(ctx context.Context) error {
	ticker := e.clock.Ticker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Sweep()
		}
	}
}
