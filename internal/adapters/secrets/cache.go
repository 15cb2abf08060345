package secrets

import (
	"sync"
	"time"

	"github.com/ncpwheels/featured-payments/internal/domain/ports"
)

type cacheEntry struct {
	expiresAt time.Time
	secret    *ports.Secret
}

// secretCache is a TTL cache shared by the remote secret managers
type secretCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	enabled bool
}

func newSecretCache(ttl time.Duration, enabled bool) *secretCache {
	return &secretCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		enabled: enabled && ttl > 0,
	}
}

func (c *secretCache) get(key string) *ports.Secret {
	if !c.enabled {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return entry.secret
}

func (c *secretCache) set(key string, secret *ports.Secret) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		secret:    secret,
		expiresAt: time.Now().Add(c.ttl),
	}
}
