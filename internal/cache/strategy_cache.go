package cache

import (
	"sync"
	"time"

	"github.com/epeers/repricer/internal/engine"
)

// StrategyCache provides an in-memory L1 cache for built engine configs, so a
// burst of uploads against the same strategy does not rebuild and revalidate
// the config per request.
type StrategyCache struct {
	mu      sync.RWMutex
	entries map[string]configEntry
	ttl     time.Duration
}

type configEntry struct {
	cfg       *engine.StrategyConfig
	fetchedAt time.Time
}

// NewStrategyCache creates a new strategy config cache
func NewStrategyCache(ttl time.Duration) *StrategyCache {
	return &StrategyCache{
		entries: make(map[string]configEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached config if present and fresh
func (c *StrategyCache) Get(name string) (*engine.StrategyConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[name]
	if !exists || time.Since(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.cfg, true
}

// Set caches a built config under the strategy name
func (c *StrategyCache) Set(name string, cfg *engine.StrategyConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = configEntry{cfg: cfg, fetchedAt: time.Now()}
}

// Invalidate drops a cached config after a save, delete or activate
func (c *StrategyCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// InvalidateAll clears the cache
func (c *StrategyCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]configEntry)
}
