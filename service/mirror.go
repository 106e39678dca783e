package service

import (
	"context"
	"time"

	"discoveryserver/domain"
	"discoveryserver/helpers"
	"discoveryserver/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	mirrorQueueSize    = 4096
	mirrorWriteTimeout = 2 * time.Second
)

// InstanceMirror publishes registry instances to an external cache (Redis), keyed "service:instance_id"
// and expiring with the lease. The mirror is write-only: the registry never reads it back.
type InstanceMirror struct {
	cache  interfaces.Cache[domain.Instance]
	ops    chan mirrorOp
	logger log.Logger
}

type mirrorOp struct {
	key      string
	instance domain.Instance
	ttl      time.Duration
	remove   bool
}

// NewInstanceMirror creates a mirror writing to cache. Writes happen in Run.
func NewInstanceMirror(cache interfaces.Cache[domain.Instance], logger log.Logger) *InstanceMirror {
	return &InstanceMirror{
		cache:  helpers.NilPanic(cache, "service.mirror.go: cache is required"),
		ops:    make(chan mirrorOp, mirrorQueueSize),
		logger: log.With(helpers.NilPanic(logger, "service.mirror.go: logger is required"), "component", "mirror"),
	}
}

// MirrorKey returns the cache key of an instance.
func MirrorKey(service, instanceID string) string {
	return service + ":" + instanceID
}

// OnMutation queues the cache write for the mutation. Drops it when the queue is full.
func (m *InstanceMirror) OnMutation(task domain.ReplicationTask, _ bool) {
	op := mirrorOp{
		key:      MirrorKey(task.Service, task.InstanceID),
		instance: task.Instance,
		ttl:      task.TTL,
		remove:   task.Type.Removes(),
	}
	select {
	case m.ops <- op:
	default:
		level.Debug(m.logger).Log("msg", "mirror queue full, write dropped", "key", op.key)
	}
}

// Run applies queued writes until ctx is done.
func (m *InstanceMirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-m.ops:
			m.apply(ctx, op)
		}
	}
}

func (m *InstanceMirror) apply(ctx context.Context, op mirrorOp) {
	ctx, cancel := context.WithTimeout(ctx, mirrorWriteTimeout)
	defer cancel()

	var err error
	if op.remove {
		err = m.cache.DeleteValue(ctx, op.key)
	} else {
		err = m.cache.WriteValue(ctx, op.key, op.instance, int(op.ttl/time.Millisecond))
	}
	if err != nil {
		level.Warn(m.logger).Log("msg", "mirror write failed", "key", op.key, "remove", op.remove, "err", err)
	}
}
