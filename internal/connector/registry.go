package connector

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// BuildFunc constructs the connector for a network on first request.
type BuildFunc func(network string) (*Connector, error)

// Registry hands out one connector per network from a capacity-bounded LRU.
// Construction is serialized so concurrent first requests for the same
// network build exactly one instance. Eviction drops the registry's
// reference only; in-flight operations on an evicted connector finish
// unaffected.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Connector]
	build BuildFunc
}

func NewRegistry(capacity int, build BuildFunc) (*Registry, error) {
	if capacity <= 0 {
		capacity = 10
	}
	cache, err := lru.New[string, *Connector](capacity)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache, build: build}, nil
}

// Instance returns the connector for a network, constructing it on first
// call. An empty network name is rejected.
func (r *Registry) Instance(network string) (*Connector, error) {
	if network == "" {
		return nil, fmt.Errorf("%w: empty network name", ErrInvalidNetwork)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache.Get(network); ok {
		return c, nil
	}

	c, err := r.build(network)
	if err != nil {
		return nil, err
	}
	r.cache.Add(network, c)
	return c, nil
}

// Len reports how many connectors are currently cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}

// Contains reports whether a network is currently cached, without touching
// its recency.
func (r *Registry) Contains(network string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Contains(network)
}
