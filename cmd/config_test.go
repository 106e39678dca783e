package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"discoveryserver/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv isolates the test from any .env in the working directory.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envDotenvPath, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv(envConfigPath, "")
	t.Setenv(envPort, "8761")
	t.Setenv(envUsername, "eureka")
	t.Setenv(envPassword, "secret")
	t.Setenv(envHostname, "discovery-test")
	for _, name := range []string{
		envPeer1, envPeer2, envPeers, envSelfPreservation, envRenewalThreshold, envEvictionInterval,
		envLeaseTTL, envReconciliation, envReplicationRetryCount, envNodeID, envRedisAddr, envAppName, envAppEnv,
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8761, cfg.HTTPPort)
	assert.Equal(t, "eureka", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, defaultAppName, cfg.AppName)
	assert.Equal(t, defaultAppEnv, cfg.AppEnv)
	assert.Equal(t, domain.DefaultRegistryConfig(), cfg.Registry)
}

func TestLoadConfig_Required(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		expectedError string
	}{
		{name: "port missing", env: map[string]string{envPort: ""}, expectedError: "EUREKA_PORT must be a valid port"},
		{name: "port out of range", env: map[string]string{envPort: "70000"}, expectedError: "EUREKA_PORT must be a valid port"},
		{name: "username missing", env: map[string]string{envUsername: ""}, expectedError: "EUREKA_USERNAME is required"},
		{name: "password missing", env: map[string]string{envPassword: ""}, expectedError: "EUREKA_PASSWORD is required"},
		{name: "bad self preservation flag", env: map[string]string{envSelfPreservation: "maybe"}, expectedError: "invalid EUREKA_SELF_PRESERVATION"},
		{name: "bad threshold", env: map[string]string{envRenewalThreshold: "high"}, expectedError: "invalid EUREKA_RENEWAL_THRESHOLD"},
		{name: "threshold out of range", env: map[string]string{envRenewalThreshold: "1.5"}, expectedError: "invalid registry configuration"},
		{name: "negative eviction interval", env: map[string]string{envEvictionInterval: "-1"}, expectedError: "EUREKA_EVICTION_INTERVAL must be a positive number"},
		{name: "zero retry count", env: map[string]string{envReplicationRetryCount: "0"}, expectedError: "EUREKA_REPLICATION_RETRY_COUNT must be positive"},
		{name: "missing yaml file", env: map[string]string{envConfigPath: "/nonexistent/discovery.yaml"}, expectedError: "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestLoadConfig_Environment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(envPeer1, "peer1")
	t.Setenv(envPeer2, "peer2:9000")
	t.Setenv(envPeers, " https://peer3.internal/ , ")
	t.Setenv(envSelfPreservation, "false")
	t.Setenv(envRenewalThreshold, "0.5")
	t.Setenv(envEvictionInterval, "1000")
	t.Setenv(envLeaseTTL, "20000")
	t.Setenv(envReconciliation, "60000")
	t.Setenv(envReplicationRetryCount, "5")
	t.Setenv(envNodeID, "node-a")
	t.Setenv(envRedisAddr, "localhost:6379")
	t.Setenv(envAppName, "registry")
	t.Setenv(envAppEnv, "prod")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	r := cfg.Registry
	assert.Equal(t, []string{"http://peer1:8761", "http://peer2:9000", "https://peer3.internal"}, r.Peers)
	assert.False(t, r.SelfPreservationEnabled)
	assert.Equal(t, 0.5, r.SelfPreservationThreshold)
	assert.Equal(t, time.Second, r.EvictionInterval)
	assert.Equal(t, 20*time.Second, r.LeaseTTL)
	assert.Equal(t, time.Minute, r.ReconciliationInterval)
	assert.Equal(t, 5, r.ReplicationRetryBudget)
	assert.Equal(t, "node-a", r.NodeID)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "registry", cfg.AppName)
	assert.Equal(t, "prod", cfg.AppEnv)
}

func TestLoadConfig_SelfPeerIsDropped(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(envHostname, "node-a.internal")
	t.Setenv(envPeer1, "node-a.internal")
	t.Setenv(envPeer2, "node-b.internal")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://node-b.internal:8761"}, cfg.Registry.Peers)
}

func TestFilterSelf(t *testing.T) {
	local := []string{"localhost", "127.0.0.1", "::1", "node-a"}
	tests := []struct {
		name     string
		peers    []string
		expected []string
	}{
		{name: "no peers", peers: nil, expected: nil},
		{name: "own hostname", peers: []string{"node-a", "node-b"}, expected: []string{"http://node-b:8761"}},
		{name: "own hostname is case insensitive", peers: []string{"http://NODE-A:8761", "node-b"}, expected: []string{"http://node-b:8761"}},
		{name: "loopback", peers: []string{"localhost", "127.0.0.1:8761", "[::1]:8761"}, expected: []string{}},
		{name: "own hostname on another port is a peer", peers: []string{"node-a:8762"}, expected: []string{"http://node-a:8762"}},
		{name: "scheme default port", peers: []string{"https://node-a", "http://node-a"}, expected: []string{"https://node-a", "http://node-a"}},
		{name: "duplicates", peers: []string{"node-b", "http://node-b:8761/"}, expected: []string{"http://node-b:8761"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, filterSelf(tt.peers, local, 8761))
		})
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	setRequiredEnv(t)
	path := writeFile(t, "discovery.yaml", `
node_id: from-file
peers: ["peer-a:8761"]
lease_ttl_ms: 45000
eviction_interval_ms: 5000
self_preservation: false
renewal_threshold: 0.7
replication_batch_size: 10
response_cache_ttl_ms: 1000
`)
	t.Setenv(envConfigPath, path)
	t.Setenv(envLeaseTTL, "60000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	r := cfg.Registry
	assert.Equal(t, "from-file", r.NodeID)
	assert.Equal(t, []string{"http://peer-a:8761"}, r.Peers)
	assert.Equal(t, time.Minute, r.LeaseTTL, "environment wins over the file")
	assert.Equal(t, 5*time.Second, r.EvictionInterval)
	assert.False(t, r.SelfPreservationEnabled)
	assert.Equal(t, 0.7, r.SelfPreservationThreshold)
	assert.Equal(t, 10, r.ReplicationBatchSize)
	assert.Equal(t, time.Second, r.ResponseCacheTTL)
	assert.Equal(t, domain.DefaultRegistryConfig().ReplicationQueueSize, r.ReplicationQueueSize)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(envConfigPath, writeFile(t, "discovery.yaml", "peers: {"))

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "load config")
}

func TestLoadConfig_Dotenv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(envAppEnv, "")
	require.NoError(t, os.Unsetenv(envAppEnv))
	t.Setenv(envDotenvPath, writeFile(t, "test.env", "APP_ENV=staging\nEUREKA_USERNAME=ignored\n"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.AppEnv)
	assert.Equal(t, "eureka", cfg.Username, "variables already set are not overridden")
}

func TestNormalizePeer(t *testing.T) {
	tests := []struct {
		peer     string
		expected string
	}{
		{peer: "peer1", expected: "http://peer1:8761"},
		{peer: "peer1:9000", expected: "http://peer1:9000"},
		{peer: "http://peer1:8761/", expected: "http://peer1:8761"},
		{peer: "https://peer1", expected: "https://peer1"},
	}
	for _, tt := range tests {
		t.Run(tt.peer, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePeer(tt.peer, 8761))
		})
	}
}
