package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"discoveryserver/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envDotenvPath            = "DOTENV_PATH"
	envConfigPath            = "CONFIG_PATH"
	envPort                  = "EUREKA_PORT"
	envUsername              = "EUREKA_USERNAME"
	envPassword              = "EUREKA_PASSWORD"
	envPeer1                 = "EUREKA_HOSTNAME_PEER1"
	envPeer2                 = "EUREKA_HOSTNAME_PEER2"
	envPeers                 = "EUREKA_PEERS"
	envHostname              = "EUREKA_HOSTNAME"
	envSelfPreservation      = "EUREKA_SELF_PRESERVATION"
	envRenewalThreshold      = "EUREKA_RENEWAL_THRESHOLD"
	envEvictionInterval      = "EUREKA_EVICTION_INTERVAL"
	envLeaseTTL              = "EUREKA_LEASE_TTL_MS"
	envReconciliation        = "EUREKA_RECONCILIATION_INTERVAL_MS"
	envReplicationRetryCount = "EUREKA_REPLICATION_RETRY_COUNT"
	envNodeID                = "EUREKA_NODE_ID"
	envRedisAddr             = "REDIS_ADDR"
	envAppName               = "APP_NAME"
	envAppEnv                = "APP_ENV"

	defaultAppName = "discovery-server"
	defaultAppEnv  = "dev"
)

// Config is the start-up configuration of the discovery server.
type Config struct {
	Registry  domain.RegistryConfig
	HTTPPort  int
	Username  string
	Password  string
	RedisAddr string // empty disables the Redis mirror
	AppName   string
	AppEnv    string
}

// yamlConfig is the optional file at CONFIG_PATH. Zero values keep the defaults; environment variables win.
type yamlConfig struct {
	NodeID                 string   `yaml:"node_id"`
	Peers                  []string `yaml:"peers"`
	LeaseTTLMs             int      `yaml:"lease_ttl_ms"`
	MinLeaseTTLMs          int      `yaml:"min_lease_ttl_ms"`
	MaxLeaseTTLMs          int      `yaml:"max_lease_ttl_ms"`
	EvictionIntervalMs     int      `yaml:"eviction_interval_ms"`
	TombstoneRetentionMs   int      `yaml:"tombstone_retention_ms"`
	SelfPreservation       *bool    `yaml:"self_preservation"`
	RenewalThreshold       float64  `yaml:"renewal_threshold"`
	RenewalIntervalMs      int      `yaml:"renewal_interval_ms"`
	MeasurementWindowMs    int      `yaml:"measurement_window_ms"`
	ReconciliationInterval int      `yaml:"reconciliation_interval_ms"`
	ReplicationRetryCount  int      `yaml:"replication_retry_count"`
	ReplicationBackoffMs   int      `yaml:"replication_backoff_ms"`
	ReplicationQueueSize   int      `yaml:"replication_queue_size"`
	ReplicationBatchSize   int      `yaml:"replication_batch_size"`
	ReplicationTimeoutMs   int      `yaml:"replication_timeout_ms"`
	ShutdownTimeoutMs      int      `yaml:"shutdown_timeout_ms"`
	ResponseCacheSize      int      `yaml:"response_cache_size"`
	ResponseCacheTTLMs     int      `yaml:"response_cache_ttl_ms"`
}

// loadDotenv loads path (".env" when empty) into the process environment. A missing file is not an error;
// variables already set are not overridden.
func loadDotenv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func loadYAMLConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out yamlConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadConfig builds the configuration from .env, the optional YAML file at CONFIG_PATH and the environment,
// in increasing priority. EUREKA_PORT, EUREKA_USERNAME and EUREKA_PASSWORD are required.
func LoadConfig() (*Config, error) {
	if err := loadDotenv(os.Getenv(envDotenvPath)); err != nil {
		return nil, err
	}

	portStr := strings.TrimSpace(os.Getenv(envPort))
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%s must be a valid port (1-65535), got %q", envPort, portStr)
	}
	cfg := &Config{
		Registry:  domain.DefaultRegistryConfig(),
		HTTPPort:  port,
		Username:  strings.TrimSpace(os.Getenv(envUsername)),
		Password:  os.Getenv(envPassword),
		RedisAddr: strings.TrimSpace(os.Getenv(envRedisAddr)),
		AppName:   envOr(envAppName, defaultAppName),
		AppEnv:    envOr(envAppEnv, defaultAppEnv),
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("%s is required", envUsername)
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("%s is required", envPassword)
	}

	if configPath := strings.TrimSpace(os.Getenv(envConfigPath)); configPath != "" {
		if !filepath.IsAbs(configPath) {
			abs, absErr := filepath.Abs(configPath)
			if absErr != nil {
				return nil, absErr
			}
			configPath = abs
		}
		raw, err := loadYAMLConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
		raw.apply(&cfg.Registry)
	}

	if err := applyEnv(&cfg.Registry, port); err != nil {
		return nil, err
	}
	cfg.Registry.Peers = filterSelf(cfg.Registry.Peers, localHostnames(), port)
	if err := cfg.Registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry configuration: %w", err)
	}
	return cfg, nil
}

func (y *yamlConfig) apply(r *domain.RegistryConfig) {
	if y.NodeID != "" {
		r.NodeID = y.NodeID
	}
	if len(y.Peers) > 0 {
		r.Peers = append([]string(nil), y.Peers...)
	}
	setMs(&r.LeaseTTL, y.LeaseTTLMs)
	setMs(&r.MinLeaseTTL, y.MinLeaseTTLMs)
	setMs(&r.MaxLeaseTTL, y.MaxLeaseTTLMs)
	setMs(&r.EvictionInterval, y.EvictionIntervalMs)
	setMs(&r.TombstoneRetention, y.TombstoneRetentionMs)
	if y.SelfPreservation != nil {
		r.SelfPreservationEnabled = *y.SelfPreservation
	}
	if y.RenewalThreshold != 0 {
		r.SelfPreservationThreshold = y.RenewalThreshold
	}
	setMs(&r.RenewalInterval, y.RenewalIntervalMs)
	setMs(&r.MeasurementWindow, y.MeasurementWindowMs)
	setMs(&r.ReconciliationInterval, y.ReconciliationInterval)
	if y.ReplicationRetryCount != 0 {
		r.ReplicationRetryBudget = y.ReplicationRetryCount
	}
	setMs(&r.ReplicationBackoff, y.ReplicationBackoffMs)
	if y.ReplicationQueueSize != 0 {
		r.ReplicationQueueSize = y.ReplicationQueueSize
	}
	if y.ReplicationBatchSize != 0 {
		r.ReplicationBatchSize = y.ReplicationBatchSize
	}
	setMs(&r.ReplicationTimeout, y.ReplicationTimeoutMs)
	setMs(&r.ShutdownTimeout, y.ShutdownTimeoutMs)
	if y.ResponseCacheSize != 0 {
		r.ResponseCacheSize = y.ResponseCacheSize
	}
	setMs(&r.ResponseCacheTTL, y.ResponseCacheTTLMs)
}

func applyEnv(r *domain.RegistryConfig, port int) error {
	if v := strings.TrimSpace(os.Getenv(envNodeID)); v != "" {
		r.NodeID = v
	}

	var peers []string
	for _, name := range []string{envPeer1, envPeer2} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			peers = append(peers, v)
		}
	}
	for _, v := range strings.Split(os.Getenv(envPeers), ",") {
		if v = strings.TrimSpace(v); v != "" {
			peers = append(peers, v)
		}
	}
	if len(peers) > 0 {
		r.Peers = peers
	}

	if v := strings.TrimSpace(os.Getenv(envSelfPreservation)); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envSelfPreservation, err)
		}
		r.SelfPreservationEnabled = enabled
	}
	if v := strings.TrimSpace(os.Getenv(envRenewalThreshold)); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envRenewalThreshold, err)
		}
		r.SelfPreservationThreshold = threshold
	}
	for name, target := range map[string]*time.Duration{
		envEvictionInterval: &r.EvictionInterval,
		envLeaseTTL:         &r.LeaseTTL,
		envReconciliation:   &r.ReconciliationInterval,
	} {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return fmt.Errorf("%s must be a positive number of milliseconds, got %q", name, v)
		}
		*target = time.Duration(ms) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv(envReplicationRetryCount)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be positive, got %q", envReplicationRetryCount, v)
		}
		r.ReplicationRetryBudget = n
	}
	return nil
}

// normalizePeer turns a bare host into a base URL; a host without a port gets the local port.
func normalizePeer(peer string, port int) string {
	peer = strings.TrimRight(strings.TrimSpace(peer), "/")
	if strings.Contains(peer, "://") {
		return peer
	}
	if _, _, err := net.SplitHostPort(peer); err != nil {
		peer = net.JoinHostPort(peer, strconv.Itoa(port))
	}
	return "http://" + peer
}

// localHostnames lists the names this node answers to: EUREKA_HOSTNAME or the OS hostname, plus loopback.
func localHostnames() []string {
	names := []string{"localhost", "127.0.0.1", "::1"}
	if v := strings.TrimSpace(os.Getenv(envHostname)); v != "" {
		return append(names, v)
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		names = append(names, h)
	}
	return names
}

// filterSelf normalizes peers and drops those that resolve to one of the local names on the local port,
// so a node listed in its own peer set does not replicate to itself. Duplicates are dropped too.
func filterSelf(peers, localNames []string, port int) []string {
	if peers == nil {
		return nil
	}
	self := make(map[string]struct{}, len(localNames))
	for _, name := range localNames {
		self[net.JoinHostPort(strings.ToLower(name), strconv.Itoa(port))] = struct{}{}
	}
	out := make([]string, 0, len(peers))
	seen := make(map[string]struct{}, len(peers))
	for _, peer := range peers {
		peer = normalizePeer(peer, port)
		if _, dup := seen[peer]; dup {
			continue
		}
		seen[peer] = struct{}{}
		if _, local := self[peerHostPort(peer)]; local {
			continue
		}
		out = append(out, peer)
	}
	return out
}

// peerHostPort returns the lower-cased host:port of a normalized peer URL, using the scheme default port
// when none is given.
func peerHostPort(peer string) string {
	u, err := url.Parse(peer)
	if err != nil {
		return ""
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(strings.ToLower(u.Hostname()), port)
}

func setMs(target *time.Duration, ms int) {
	if ms > 0 {
		*target = time.Duration(ms) * time.Millisecond
	}
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}
