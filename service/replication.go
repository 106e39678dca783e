package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"discoveryserver/domain"
	"discoveryserver/helpers"
	"discoveryserver/interfaces"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ReplicationCoordinator fans local mutations out to peer registries and merges theirs.
//
// Every peer has its own bounded queue drained by one sender goroutine. Enqueue never blocks: a full
// queue drops the task. Delivery is best-effort: a batch that still fails after the retry budget is
// dropped, and the periodic full-snapshot reconciliation repairs whatever was lost.
type ReplicationCoordinator struct {
	store                  *LeaseStore
	client                 interfaces.PeerClient
	peers                  []*peerQueue
	retryBudget            int
	initialBackoff         time.Duration
	batchSize              int
	timeout                time.Duration
	reconciliationInterval time.Duration
	clock                  clock.Clock
	metrics                *Metrics
	logger                 log.Logger

	sendCtx    context.Context
	cancelSend context.CancelFunc
	senders    sync.WaitGroup
	startOnce  sync.Once

	stateMu sync.RWMutex
	stopped bool
}

type peerQueue struct {
	address string
	tasks   chan domain.ReplicationTask

	mu          sync.RWMutex
	health      domain.PeerHealth
	lastSuccess time.Time
}

// NewReplicationCoordinator creates a coordinator for cfg.Peers. Senders start with Start.
func NewReplicationCoordinator(
	cfg domain.RegistryConfig,
	store *LeaseStore,
	client interfaces.PeerClient,
	clk clock.Clock,
	metrics *Metrics,
	logger log.Logger,
) *ReplicationCoordinator {
	c := &ReplicationCoordinator{
		store:                  helpers.NilPanic(store, "service.replication.go: store is required"),
		client:                 helpers.NilPanic(client, "service.replication.go: peer client is required"),
		retryBudget:            cfg.ReplicationRetryBudget,
		initialBackoff:         cfg.ReplicationBackoff,
		batchSize:              cfg.ReplicationBatchSize,
		timeout:                cfg.ReplicationTimeout,
		reconciliationInterval: cfg.ReconciliationInterval,
		clock:                  helpers.NilPanic(clk, "service.replication.go: clock is required"),
		metrics:                helpers.NilPanic(metrics, "service.replication.go: metrics is required"),
		logger:                 log.With(helpers.NilPanic(logger, "service.replication.go: logger is required"), "component", "replication"),
	}
	c.sendCtx, c.cancelSend = context.WithCancel(context.Background())
	for _, addr := range cfg.Peers {
		c.peers = append(c.peers, &peerQueue{
			address: helpers.StrPanic(addr, "service.replication.go: peer address is required"),
			tasks:   make(chan domain.ReplicationTask, cfg.ReplicationQueueSize),
			health:  domain.PeerHealthUnknown,
		})
	}
	return c
}

// OnMutation enqueues local mutations. Mutations received from peers are not sent back out.
func (c *ReplicationCoordinator) OnMutation(task domain.ReplicationTask, replicated bool) {
	if !replicated {
		c.Enqueue(task)
	}
}

// Enqueue appends task to every peer queue without blocking.
func (c *ReplicationCoordinator) Enqueue(task domain.ReplicationTask) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	for _, q := range c.peers {
		if c.stopped {
			c.metrics.ReplicationDropped.WithLabelValues(q.address, "stopped").Inc()
			continue
		}
		select {
		case q.tasks <- task:
			c.metrics.ReplicationQueueDepth.WithLabelValues(q.address).Inc()
		default:
			c.metrics.ReplicationDropped.WithLabelValues(q.address, "queue_full").Inc()
		}
	}
}

// ApplyRemote merges tasks received from a peer into the local store.
// Invalid tasks are skipped; their errors are combined in the returned error.
func (c *ReplicationCoordinator) ApplyRemote(tasks []domain.ReplicationTask) (int, error) {
	applied := 0
	var errs error
	for _, task := range tasks {
		ok, err := c.store.ApplyRemote(task)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("task %s (%s %s): %w", task.ID, task.Type, task.Key(), err))
			continue
		}
		if ok {
			applied++
		}
	}
	return applied, errs
}

// Start launches one sender per peer. Subsequent calls do nothing.
func (c *ReplicationCoordinator) Start() {
	c.startOnce.Do(func() {
		for _, q := range c.peers {
			c.senders.Add(1)
			go c.send(q)
		}
	})
}

// send drains q in batches until the queue is closed by Stop.
func (c *ReplicationCoordinator) send(q *peerQueue) {
	defer c.senders.Done()
	batch := make([]domain.ReplicationTask, 0, c.batchSize)
	for task := range q.tasks {
		batch = append(batch[:0], task)
	fill:
		for len(batch) < c.batchSize {
			select {
			case next, ok := <-q.tasks:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		c.metrics.ReplicationQueueDepth.WithLabelValues(q.address).Sub(float64(len(batch)))
		c.deliver(q, batch)
	}
}

func (c *ReplicationCoordinator) deliver(q *peerQueue, batch []domain.ReplicationTask) {
	if c.sendCtx.Err() != nil {
		c.metrics.ReplicationDropped.WithLabelValues(q.address, "shutdown").Add(float64(len(batch)))
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = 10 * c.initialBackoff
	_, err := backoff.Retry(c.sendCtx, func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(c.sendCtx, c.timeout)
		defer cancel()
		err := c.client.Replicate(ctx, q.address, batch)
		if IsBadParameterError(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.retryBudget)),
		backoff.WithNotify(func(err error, next time.Duration) {
			level.Debug(c.logger).Log("msg", "replication retry", "peer", q.address, "backoff", next, "err", err)
		}),
	)
	if IsBadParameterError(err) {
		// the peer answered, so it stays reachable
		q.setHealth(domain.PeerHealthReachable, c.clock.Now())
		c.metrics.ReplicationDropped.WithLabelValues(q.address, "rejected").Add(float64(len(batch)))
		level.Warn(c.logger).Log("msg", "replication batch rejected", "peer", q.address, "tasks", len(batch), "err", err)
		return
	}
	if err != nil {
		q.setHealth(domain.PeerHealthUnreachable, time.Time{})
		c.metrics.ReplicationDropped.WithLabelValues(q.address, "retries_exhausted").Add(float64(len(batch)))
		level.Warn(c.logger).Log("msg", "replication batch dropped", "peer", q.address, "tasks", len(batch), "err", err)
		return
	}
	q.setHealth(domain.PeerHealthReachable, c.clock.Now())
	c.metrics.ReplicationSent.WithLabelValues(q.address).Add(float64(len(batch)))
}

// RunReconciliation pulls a full snapshot from every peer at start and then every reconciliation
// interval, until ctx is done.
func (c *ReplicationCoordinator) RunReconciliation(ctx context.Context) error {
	if len(c.peers) == 0 {
		<-ctx.Done()
		return nil
	}
	c.Reconcile(ctx)
	ticker := c.clock.Ticker(c.reconciliationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Reconcile(ctx)
		}
	}
}

// Reconcile fetches every peer's snapshot concurrently and merges it. Returns the number of applied tasks.
// Peer failures are logged and counted, never returned: the next round tries again.
func (c *ReplicationCoordinator) Reconcile(ctx context.Context) int {
	var applied atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range c.peers {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, c.timeout)
			defer cancel()
			tasks, err := c.client.FetchSnapshot(fetchCtx, q.address)
			if err != nil {
				q.setHealth(domain.PeerHealthUnreachable, time.Time{})
				c.metrics.Reconciliations.WithLabelValues(q.address, "failed").Inc()
				level.Warn(c.logger).Log("msg", "snapshot fetch failed", "peer", q.address, "err", err)
				return nil
			}
			q.setHealth(domain.PeerHealthReachable, c.clock.Now())
			n, err := c.ApplyRemote(tasks)
			if err != nil {
				level.Warn(c.logger).Log("msg", "snapshot contained rejected tasks", "peer", q.address, "err", err)
			}
			applied.Add(int64(n))
			c.metrics.Reconciliations.WithLabelValues(q.address, "ok").Inc()
			level.Info(c.logger).Log("msg", "reconciled with peer", "peer", q.address, "received", len(tasks), "applied", n)
			return nil
		})
	}
	_ = g.Wait()
	return int(applied.Load())
}

// Peers reports the replication state of every peer.
func (c *ReplicationCoordinator) Peers() []domain.Peer {
	out := make([]domain.Peer, 0, len(c.peers))
	for _, q := range c.peers {
		q.mu.RLock()
		out = append(out, domain.Peer{
			Address:     q.address,
			Health:      q.health,
			LastSuccess: q.lastSuccess,
			QueueDepth:  len(q.tasks),
		})
		q.mu.RUnlock()
	}
	return out
}

// Stop closes the queues and lets the senders drain them until ctx is done. Past the deadline,
// in-flight deliveries are cancelled and the remaining tasks are dropped.
func (c *ReplicationCoordinator) Stop(ctx context.Context) error {
	c.stateMu.Lock()
	if c.stopped {
		c.stateMu.Unlock()
		return nil
	}
	c.stopped = true
	for _, q := range c.peers {
		close(q.tasks)
	}
	c.stateMu.Unlock()

	drained := make(chan struct{})
	go func() {
		c.senders.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		c.cancelSend()
		return nil
	case <-ctx.Done():
		c.cancelSend()
		<-drained
		return fmt.Errorf("replication queues not drained before shutdown deadline: %w", ctx.Err())
	}
}

func (q *peerQueue) setHealth(health domain.PeerHealth, success time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.health = health
	if !success.IsZero() {
		q.lastSuccess = success
	}
}
