package domain

import "time"

// MutationType names the kind of registry mutation carried by a ReplicationTask.
type MutationType string

const (
	MutationRegister     MutationType = "REGISTER"
	MutationRenew        MutationType = "RENEW"
	MutationCancel       MutationType = "CANCEL"
	MutationStatusChange MutationType = "STATUS_CHANGE"
	MutationEvict        MutationType = "EVICT"
)

// Valid reports whether t is a known mutation type.
func (t MutationType) Valid() bool {
	switch t {
	case MutationRegister, MutationRenew, MutationCancel, MutationStatusChange, MutationEvict:
		return true
	}
	return false
}

// Removes reports whether the mutation deletes the instance.
func (t MutationType) Removes() bool {
	return t == MutationCancel || t == MutationEvict
}

// ReplicationTask describes one local mutation destined for peers.
// It is also the payload of the peer protocol: field names are part of the wire format.
type ReplicationTask struct {
	ID         string        `json:"id"`
	Origin     string        `json:"origin"`
	Type       MutationType  `json:"type"`
	Service    string        `json:"service"`
	InstanceID string        `json:"instance_id"`
	Instance   Instance      `json:"instance"`
	TTL        time.Duration `json:"ttl"`
	Timestamp  int64         `json:"timestamp"`
}

// Key returns the key of the instance the task applies to.
func (t ReplicationTask) Key() InstanceKey {
	return InstanceKey{Service: t.Service, InstanceID: t.InstanceID}
}

// PeerHealth is the last observed reachability of a peer.
type PeerHealth string

const (
	PeerHealthUnknown     PeerHealth = "unknown"
	PeerHealthReachable   PeerHealth = "reachable"
	PeerHealthUnreachable PeerHealth = "unreachable"
)

// Peer is a sibling registry node.
type Peer struct {
	Address     string
	Health      PeerHealth
	LastSuccess time.Time
	QueueDepth  int
}
