package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"discoveryserver/domain"
	"discoveryserver/helpers"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// SelfPreservationMonitor compares observed lease renewals against the expected renewal rate and
// switches between Normal and SelfPreserving.
//
// The state only changes at measurement time: once self-preservation is entered it stays until a
// later measurement sees the ratio back at or above the threshold.
type SelfPreservationMonitor struct {
	enabled         bool
	threshold       float64
	window          time.Duration
	renewalInterval time.Duration
	clock           clock.Clock
	metrics         *Metrics
	logger          log.Logger

	renewals atomic.Int64

	mu     sync.RWMutex
	status domain.PreservationStatus
}

// NewSelfPreservationMonitor creates a monitor in the Normal state.
func NewSelfPreservationMonitor(cfg domain.RegistryConfig, clk clock.Clock, metrics *Metrics, logger log.Logger) *SelfPreservationMonitor {
	m := &SelfPreservationMonitor{
		enabled:         cfg.SelfPreservationEnabled,
		threshold:       cfg.SelfPreservationThreshold,
		window:          cfg.MeasurementWindow,
		renewalInterval: cfg.RenewalInterval,
		clock:           helpers.NilPanic(clk, "service.self_preservation.go: clock is required"),
		metrics:         helpers.NilPanic(metrics, "service.self_preservation.go: metrics is required"),
		logger:          log.With(helpers.NilPanic(logger, "service.self_preservation.go: logger is required"), "component", "self_preservation"),
	}
	m.status = domain.PreservationStatus{
		State:     domain.PreservationNormal,
		Enabled:   cfg.SelfPreservationEnabled,
		Threshold: cfg.SelfPreservationThreshold,
		Ratio:     1,
	}
	return m
}

// OnMutation counts renewals, local and replicated.
func (m *SelfPreservationMonitor) OnMutation(task domain.ReplicationTask, _ bool) {
	if task.Type == domain.MutationRenew {
		m.ObserveRenewal()
	}
}

// ObserveRenewal records one renewal in the current window.
func (m *SelfPreservationMonitor) ObserveRenewal() {
	m.renewals.Add(1)
}

// Measure closes the current window. activeLeases is the number of leases the registry holds now;
// every one of them is expected to renew window/renewalInterval times per window.
func (m *SelfPreservationMonitor) Measure(activeLeases int) domain.PreservationState {
	observed := m.renewals.Swap(0)
	expected := float64(activeLeases) * m.window.Seconds() / m.renewalInterval.Seconds()
	ratio := 1.0
	if expected > 0 {
		ratio = float64(observed) / expected
	}

	next := domain.PreservationNormal
	if m.enabled && ratio < m.threshold {
		next = domain.PreservationSelfPreserving
	}

	m.mu.Lock()
	prev := m.status.State
	m.status.State = next
	m.status.ExpectedRenewals = expected
	m.status.ObservedRenewals = observed
	m.status.Ratio = ratio
	m.status.LastMeasuredAt = m.clock.Now()
	m.mu.Unlock()

	m.metrics.RenewalRatio.Set(ratio)
	if next == domain.PreservationSelfPreserving {
		m.metrics.SelfPreservationActive.Set(1)
	} else {
		m.metrics.SelfPreservationActive.Set(0)
	}
	if prev != next {
		m.metrics.SelfPreservationTransitions.WithLabelValues(string(next)).Inc()
		logger := level.Info(m.logger)
		if next == domain.PreservationSelfPreserving {
			logger = level.Warn(m.logger)
		}
		logger.Log(
			"msg", "self-preservation state changed",
			"from", prev,
			"to", next,
			"observed", observed,
			"expected", expected,
			"threshold", m.threshold,
		)
	}
	return next
}

// IsSelfPreserving reports whether eviction must be suppressed.
func (m *SelfPreservationMonitor) IsSelfPreserving() bool {
	return m.Status().State == domain.PreservationSelfPreserving
}

// Status returns the result of the last measurement.
func (m *SelfPreservationMonitor) Status() domain.PreservationStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Run measures once per window until ctx is done. leases reports the current number of active leases.
func (m *SelfPreservationMonitor) Run(ctx context.Context, leases func() int) error {
	ticker := m.clock.Ticker(m.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Measure(leases())
		}
	}
}
