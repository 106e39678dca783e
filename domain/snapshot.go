package domain

import (
	"sort"
	"time"
)

// Snapshot is a point-in-time, read-only view of the registry.
// Instances are shared with the store and must not be modified.
type Snapshot struct {
	TakenAt  time.Time
	Services map[string][]*Instance // sorted by InstanceID
}

// NewSnapshot groups instances by service and orders every group by instance ID.
func NewSnapshot(takenAt time.Time, instances []*Instance) Snapshot {
	services := make(map[string][]*Instance)
	for _, inst := range instances {
		services[inst.Service] = append(services[inst.Service], inst)
	}
	for _, group := range services {
		sort.Slice(group, func(i, j int) bool {
			return group[i].InstanceID < group[j].InstanceID
		})
	}
	return Snapshot{TakenAt: takenAt, Services: services}
}

// Instances returns the instances of service, nil when none are registered.
func (s Snapshot) Instances(service string) []*Instance {
	return s.Services[service]
}

// ServiceNames returns the registered service names in sorted order.
func (s Snapshot) ServiceNames() []string {
	names := make([]string, 0, len(s.Services))
	for name := range s.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of instances in the snapshot.
func (s Snapshot) Len() int {
	n := 0
	for _, group := range s.Services {
		n += len(group)
	}
	return n
}
