package service

import (
	"context"
	"fmt"

	"discoveryserver/domain"
	"discoveryserver/helpers"
	"discoveryserver/interfaces"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Node is one registry server: the lease store and every background component around it.
type Node struct {
	cfg         domain.RegistryConfig
	store       *LeaseStore
	monitor     *SelfPreservationMonitor
	eviction    *EvictionScheduler
	coordinator *ReplicationCoordinator
	cache       *ResponseCache
	mirror      *InstanceMirror
	registry    *Registry
	logger      log.Logger
}

// NodeOption customizes a Node.
type NodeOption func(*nodeOptions)

type nodeOptions struct {
	mirror interfaces.Cache[domain.Instance]
}

// WithMirror publishes every instance to cache.
func WithMirror(cache interfaces.Cache[domain.Instance]) NodeOption {
	return func(o *nodeOptions) {
		o.mirror = cache
	}
}

// NewNode validates cfg and wires the registry. A missing node id is replaced by a random one.
func NewNode(
	cfg domain.RegistryConfig,
	peers interfaces.PeerClient,
	clk clock.Clock,
	reg prometheus.Registerer,
	logger log.Logger,
	opts ...NodeOption,
) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewBadParameterError("invalid registry configuration", err)
	}
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}
	var options nodeOptions
	for _, opt := range opts {
		opt(&options)
	}

	logger = log.With(helpers.NilPanic(logger, "service.node.go: logger is required"), "node", cfg.NodeID)
	metrics := NewMetrics(helpers.NilPanic(reg, "service.node.go: registerer is required"))

	n := &Node{cfg: cfg, logger: logger}
	n.store = NewLeaseStore(cfg.NodeID, cfg.LeaseTTL, clk, NewLogicalClock(clk), metrics, logger)
	n.monitor = NewSelfPreservationMonitor(cfg, clk, metrics, logger)
	n.eviction = NewEvictionScheduler(cfg, n.store, n.monitor, clk, metrics, logger)
	n.coordinator = NewReplicationCoordinator(cfg, n.store, peers, clk, metrics, logger)
	n.cache = NewResponseCache(cfg.ResponseCacheSize, cfg.ResponseCacheTTL)
	n.registry = NewRegistry(cfg, n.store, n.coordinator, n.monitor, n.cache, logger)

	n.store.AddListener(n.cache)
	n.store.AddListener(n.monitor)
	n.store.AddListener(n.coordinator)
	if options.mirror != nil {
		n.mirror = NewInstanceMirror(options.mirror, logger)
		n.store.AddListener(n.mirror)
	}
	return n, nil
}

// Registry returns the façade used by the transport layer.
func (n *Node) Registry() *Registry {
	return n.registry
}

// Run starts the background components and blocks until ctx is done. Pending replication is then
// drained for at most the configured shutdown timeout.
func (n *Node) Run(ctx context.Context) error {
	level.Info(n.logger).Log(
		"msg", "registry node starting",
		"peers", fmt.Sprint(n.cfg.Peers),
		"lease_ttl", n.cfg.LeaseTTL,
		"eviction_interval", n.cfg.EvictionInterval,
		"self_preservation", n.cfg.SelfPreservationEnabled,
	)
	n.coordinator.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.eviction.Run(gctx) })
	g.Go(func() error { return n.monitor.Run(gctx, n.store.Len) })
	g.Go(func() error { return n.coordinator.RunReconciliation(gctx) })
	if n.mirror != nil {
		g.Go(func() error { return n.mirror.Run(gctx) })
	}
	err := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), n.cfg.ShutdownTimeout)
	defer cancel()
	err = multierr.Append(err, n.coordinator.Stop(stopCtx))
	level.Info(n.logger).Log("msg", "registry node stopped", "leases", n.store.Len())
	return err
}
