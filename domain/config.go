package domain

import (
	"fmt"
	"time"
)

// RegistryConfig is the immutable configuration record of the registry core.
// It is built once at startup by cmd.LoadConfig and passed by value to every component.
type RegistryConfig struct {
	// NodeID identifies this node as the origin of replication tasks. Generated when empty.
	NodeID string

	LeaseTTL    time.Duration // lease expiry window applied when a registration carries no TTL
	MinLeaseTTL time.Duration
	MaxLeaseTTL time.Duration

	EvictionInterval   time.Duration // sweep frequency
	TombstoneRetention time.Duration // how long cancelled/evicted keys are remembered for replication ordering

	SelfPreservationEnabled   bool
	SelfPreservationThreshold float64       // ratio trigger, 0 < threshold <= 1
	RenewalInterval           time.Duration // expected client heartbeat interval
	MeasurementWindow         time.Duration // renewal rate measurement frequency

	Peers                  []string      // replication fanout targets (base URLs)
	ReconciliationInterval time.Duration // full-sync frequency
	ReplicationRetryBudget int           // delivery attempts per batch, including the first
	ReplicationBackoff     time.Duration // initial retry backoff
	ReplicationQueueSize   int           // per-peer outbound queue capacity
	ReplicationBatchSize   int
	ReplicationTimeout     time.Duration // per request timeout towards a peer
	ShutdownTimeout        time.Duration // bound for draining replication queues

	ResponseCacheSize int
	ResponseCacheTTL  time.Duration
}

// DefaultRegistryConfig returns the well-known Eureka-style defaults: 90s TTL, 30s sweep, 0.85 threshold.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		LeaseTTL:                  90 * time.Second,
		MinLeaseTTL:               time.Second,
		MaxLeaseTTL:               time.Hour,
		EvictionInterval:          30 * time.Second,
		TombstoneRetention:        10 * time.Minute,
		SelfPreservationEnabled:   true,
		SelfPreservationThreshold: 0.85,
		RenewalInterval:           30 * time.Second,
		MeasurementWindow:         time.Minute,
		ReconciliationInterval:    5 * time.Minute,
		ReplicationRetryBudget:    3,
		ReplicationBackoff:        200 * time.Millisecond,
		ReplicationQueueSize:      10000,
		ReplicationBatchSize:      250,
		ReplicationTimeout:        5 * time.Second,
		ShutdownTimeout:           10 * time.Second,
		ResponseCacheSize:         500,
		ResponseCacheTTL:          30 * time.Second,
	}
}

// Validate checks that every duration and bound is usable.
func (c RegistryConfig) Validate() error {
	if c.LeaseTTL <= 0 {
		return fmt.Errorf("lease ttl must be positive")
	}
	if c.MinLeaseTTL <= 0 || c.MaxLeaseTTL < c.MinLeaseTTL {
		return fmt.Errorf("lease ttl bounds are invalid: min=%s max=%s", c.MinLeaseTTL, c.MaxLeaseTTL)
	}
	if c.LeaseTTL < c.MinLeaseTTL || c.LeaseTTL > c.MaxLeaseTTL {
		return fmt.Errorf("lease ttl %s is outside [%s, %s]", c.LeaseTTL, c.MinLeaseTTL, c.MaxLeaseTTL)
	}
	if c.EvictionInterval <= 0 {
		return fmt.Errorf("eviction interval must be positive")
	}
	if c.TombstoneRetention <= 0 {
		return fmt.Errorf("tombstone retention must be positive")
	}
	if c.SelfPreservationThreshold <= 0 || c.SelfPreservationThreshold > 1 {
		return fmt.Errorf("self-preservation threshold must be in (0, 1], got %v", c.SelfPreservationThreshold)
	}
	if c.RenewalInterval <= 0 || c.MeasurementWindow <= 0 {
		return fmt.Errorf("renewal interval and measurement window must be positive")
	}
	if c.ReconciliationInterval <= 0 {
		return fmt.Errorf("reconciliation interval must be positive")
	}
	if c.ReplicationRetryBudget <= 0 {
		return fmt.Errorf("replication retry budget must be positive")
	}
	if c.ReplicationBackoff <= 0 || c.ReplicationTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("replication backoff, timeout and shutdown timeout must be positive")
	}
	if c.ReplicationQueueSize <= 0 || c.ReplicationBatchSize <= 0 {
		return fmt.Errorf("replication queue and batch sizes must be positive")
	}
	if c.ResponseCacheSize <= 0 || c.ResponseCacheTTL <= 0 {
		return fmt.Errorf("response cache size and ttl must be positive")
	}
	return nil
}
