package domain

import (
	"maps"
	"time"
)

// Status is the reported health of a registered instance.
type Status string

const (
	StatusUp           Status = "UP"
	StatusDown         Status = "DOWN"
	StatusStarting     Status = "STARTING"
	StatusOutOfService Status = "OUT_OF_SERVICE"
	StatusUnknown      Status = "UNKNOWN"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUp, StatusDown, StatusStarting, StatusOutOfService, StatusUnknown:
		return true
	}
	return false
}

// Rank orders statuses by how terminal they are. DOWN and OUT_OF_SERVICE dominate UP.
// Unknown values rank lowest.
func (s Status) Rank() int {
	switch s {
	case StatusUp:
		return 0
	case StatusUnknown:
		return 1
	case StatusStarting:
		return 2
	case StatusOutOfService:
		return 3
	case StatusDown:
		return 4
	}
	return -1
}

// Instance represents one running process of a service.
// Stored instances are never modified in place; every mutation installs a fresh copy.
type Instance struct {
	Service            string            `json:"service"`              // service name, namespace key
	InstanceID         string            `json:"instance_id"`          // unique within Service
	Address            string            `json:"address"`              // host:port
	Status             Status            `json:"status"`               // reported status
	Metadata           map[string]string `json:"metadata,omitempty"`   // opaque key-value pairs
	LastDirtyTimestamp int64             `json:"last_dirty_timestamp"` // logical timestamp of the last mutation
}

// Key returns the lease store key of the instance.
func (i Instance) Key() InstanceKey {
	return InstanceKey{Service: i.Service, InstanceID: i.InstanceID}
}

// Clone returns a copy of the instance that does not share the metadata map.
func (i Instance) Clone() *Instance {
	out := i
	out.Metadata = maps.Clone(i.Metadata)
	return &out
}

// InstanceKey identifies an instance within the registry.
type InstanceKey struct {
	Service    string
	InstanceID string
}

func (k InstanceKey) String() string {
	return k.Service + "/" + k.InstanceID
}

// Registration is the input of a register call.
// TTL of zero means the configured default lease duration.
type Registration struct {
	Service    string            `json:"service" validate:"required"`
	InstanceID string            `json:"instance_id" validate:"required"`
	Address    string            `json:"address" validate:"required,hostname_port"`
	Status     Status            `json:"status" validate:"omitempty,oneof=UP DOWN STARTING OUT_OF_SERVICE UNKNOWN"`
	Metadata   map[string]string `json:"metadata" validate:"-"`
	TTL        time.Duration     `json:"ttl" validate:"-"`
}
