package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ProgressTTL bounds how long a stale in-progress flag can suppress webhook
// processing if an invalidation is missed.
const ProgressTTL = 15 * time.Minute

// Cache is a minimal keyed store with TTL, used for the import in-progress
// debounce. Get returns found=false on a miss or expired entry.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ProgressKey names the in-progress flag for one (workspace, attribute type).
func ProgressKey(workspaceID int64, attributeType string) string {
	return fmt.Sprintf("import_in_progress_%d_%s", workspaceID, attributeType)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache for tests and single-node development.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
