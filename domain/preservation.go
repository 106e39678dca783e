package domain

import "time"

// PreservationState is the state of the self-preservation monitor.
type PreservationState string

const (
	// PreservationNormal lets the eviction scheduler remove expired leases.
	PreservationNormal PreservationState = "NORMAL"
	// PreservationSelfPreserving suppresses eviction because a network partition is suspected.
	PreservationSelfPreserving PreservationState = "SELF_PRESERVING"
)

// PreservationStatus reports the monitor's last measurement.
type PreservationStatus struct {
	State            PreservationState
	Enabled          bool
	Threshold        float64
	ExpectedRenewals float64
	ObservedRenewals int64
	Ratio            float64
	LastMeasuredAt   time.Time
}
