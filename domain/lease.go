package domain

import "time"

// Lease binds an Instance to a time-to-live contract.
type Lease struct {
	Instance      *Instance
	RegisteredAt  time.Time
	LastRenewedAt time.Time
	Duration      time.Duration
	// EvictedAt is set once, in the same critical section that removes the lease from the store.
	EvictedAt *time.Time
}

// IsExpired reports whether more than Duration has passed since the last renewal.
func (l Lease) IsExpired(now time.Time) bool {
	return now.Sub(l.LastRenewedAt) > l.Duration
}

// IsEvicted reports whether the lease was removed by the eviction scheduler.
func (l Lease) IsEvicted() bool {
	return l.EvictedAt != nil
}
