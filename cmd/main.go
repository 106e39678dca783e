package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discoveryserver/adapters/myredis"
	"discoveryserver/adapters/peerhttp"
	"discoveryserver/handlers"
	"discoveryserver/service"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Initialize logger
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	level.Info(logger).Log("msg", "Starting discovery server")

	// Load configuration
	config, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "Failed to load configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"port", config.HTTPPort,
		"peers", len(config.Registry.Peers),
		"redis_addr", config.RedisAddr,
		"app", config.AppName,
		"env", config.AppEnv,
	)

	if err := run(config, logger); err != nil {
		level.Error(logger).Log("msg", "Server stopped with error", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "Server stopped")
}

func run(config *Config, logger log.Logger) error {
	// Metrics registry with common labels
	promRegistry := prometheus.NewRegistry()
	registerer := prometheus.WrapRegistererWith(prometheus.Labels{
		"application": config.AppName,
		"environment": config.AppEnv,
	}, promRegistry)
	registerer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var nodeOptions []service.NodeOption
	if config.RedisAddr != "" {
		redisClient, err := myredis.NewRedisUniversalClient(config.RedisAddr)
		if err != nil {
			return fmt.Errorf("create redis client: %w", err)
		}
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = myredis.Ping(ctx, redisClient)
		cancel()
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		level.Info(logger).Log("msg", "Connected to Redis, instance mirror enabled")
		nodeOptions = append(nodeOptions, service.WithMirror(myredis.NewInstanceCache(redisClient, "instance")))
	}

	node, e, err := newServer(config, clock.New(), registerer, promRegistry, bcrypt.DefaultCost, logger, nodeOptions...)
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nodeCtx, stopNode := context.WithCancel(context.Background())
	defer stopNode()
	nodeDone := make(chan error, 1)
	go func() {
		nodeDone <- node.Run(nodeCtx)
	}()

	serverDone := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", config.HTTPPort)
		level.Info(logger).Log("msg", "Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	var errs error
	select {
	case <-ctx.Done():
	case err := <-serverDone:
		errs = multierr.Append(errs, err)
		stop()
	}
	level.Info(logger).Log("msg", "Shutting down server...")

	// Stop accepting requests before the node drains its replication queues.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	errs = multierr.Append(errs, e.Shutdown(shutdownCtx))
	stopNode()
	errs = multierr.Append(errs, <-nodeDone)
	return errs
}

// newServer wires the registry node and its HTTP transport. The node is not running yet.
func newServer(
	config *Config,
	clk clock.Clock,
	registerer prometheus.Registerer,
	gatherer prometheus.Gatherer,
	bcryptCost int,
	logger log.Logger,
	nodeOptions ...service.NodeOption,
) (*service.Node, *echo.Echo, error) {
	peers := peerhttp.NewClient(
		&http.Client{Timeout: config.Registry.ReplicationTimeout},
		peerhttp.Credentials{Username: config.Username, Password: config.Password},
	)
	node, err := service.NewNode(config.Registry, peers, clk, registerer, logger, nodeOptions...)
	if err != nil {
		return nil, nil, fmt.Errorf("create registry node: %w", err)
	}

	hash, err := handlers.HashPassword(config.Password, bcryptCost)
	if err != nil {
		return nil, nil, err
	}
	auth := handlers.NewBasicAuth(config.Username, hash, "/health")
	e, err := handlers.NewRouter(handlers.NewHTTPServer(node.Registry(), logger), gatherer, auth, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create router: %w", err)
	}
	return node, e, nil
}
