package service

import (
	"sync"
	"time"

	"discoveryserver/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// allServicesKey caches the answer of a query without a service filter.
const allServicesKey = ""

// ResponseCache keeps recent query answers. Entries expire after a fixed ttl and are invalidated by
// every mutation that changes what a query returns; renewals do not.
//
// Every invalidation bumps a generation. A snapshot is only cached when no invalidation happened
// since the generation read before taking it, so an answer read before a cancel is never cached after it.
type ResponseCache struct {
	lru *expirable.LRU[string, domain.Snapshot]

	mu         sync.Mutex
	generation uint64
}

// NewResponseCache creates a cache holding at most size answers for at most ttl.
func NewResponseCache(size int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{lru: expirable.NewLRU[string, domain.Snapshot](size, nil, ttl)}
}

// Get returns the cached snapshot for service ("" for all services).
func (c *ResponseCache) Get(service string) (domain.Snapshot, bool) {
	return c.lru.Get(service)
}

// Generation returns the current invalidation generation. Read it before taking the snapshot
// passed to AddIfCurrent.
func (c *ResponseCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// AddIfCurrent stores the snapshot answering a query for service unless a mutation invalidated
// the cache after generation was read. Reports whether the snapshot was stored.
func (c *ResponseCache) AddIfCurrent(service string, snapshot domain.Snapshot, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.lru.Add(service, snapshot)
	return true
}

// OnMutation drops the answers that include the mutated service.
func (c *ResponseCache) OnMutation(task domain.ReplicationTask, _ bool) {
	if task.Type == domain.MutationRenew {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.lru.Remove(task.Service)
	c.lru.Remove(allServicesKey)
}
