package interfaces

import "discoveryserver/domain"

// MutationListener is notified of every lease store mutation.
//
// OnMutation is called while the store holds the lock of the mutated key, so notifications for one
// key arrive in mutation order. Implementations must not block and must not call back into the store.
// replicated is true when the mutation was received from a peer rather than performed locally.
//
// Implemented by service.ReplicationCoordinator (enqueue for peers), service.ResponseCache (invalidate),
// service.SelfPreservationMonitor (count renewals) and service.InstanceMirror (Redis mirror).
//
//go:generate moq -stub -out mock/mutation_listener.go -pkg mock . MutationListener
type MutationListener interface {
	OnMutation(task domain.ReplicationTask, replicated bool)
}

// MutationListenerFunc adapts a function to MutationListener.
type MutationListenerFunc func(task domain.ReplicationTask, replicated bool)

func (f MutationListenerFunc) OnMutation(task domain.ReplicationTask, replicated bool) {
	f(task, replicated)
}
