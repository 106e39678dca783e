package domain

// NodeStatus summarizes the state of this registry node.
type NodeStatus struct {
	NodeID           string
	Leases           int
	SelfPreservation PreservationStatus
	Peers            []Peer
}
