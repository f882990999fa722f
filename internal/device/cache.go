package device

import (
	"sync"
	"time"

	"github.com/muurk/isoft/internal/register"
)

type cacheEntry struct {
	payload string
	expires time.Time
}

// readCache holds raw payloads per register for a fixed TTL
type readCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[register.Address]cacheEntry
}

func newReadCache(ttl time.Duration, now func() time.Time) *readCache {
	return &readCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[register.Address]cacheEntry),
	}
}

func (rc *readCache) get(reg register.Address) (string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	e, ok := rc.entries[reg]
	if !ok {
		return "", false
	}
	if !rc.now().Before(e.expires) {
		delete(rc.entries, reg)
		return "", false
	}
	return e.payload, true
}

func (rc *readCache) put(reg register.Address, payload string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[reg] = cacheEntry{payload: payload, expires: rc.now().Add(rc.ttl)}
}

func (rc *readCache) invalidate() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	clear(rc.entries)
}
