package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// cacheShards is a power of two so shard selection is a cheap mask.
const cacheShards = 32

// cacheEntry pairs a session record with its per-key lock. The entry mutex
// is the exclusivity guarantee: exactly one unit of work mutates a given
// identifier at a time, while unrelated identifiers proceed in parallel.
//
// rec and gone are guarded by mu. exp mirrors rec.ExpiresAt as unix
// nanoseconds so the sweeper can snapshot expired identifiers without
// touching entry locks.
type cacheEntry struct {
	mu   sync.Mutex
	rec  *Record
	gone bool
	exp  atomic.Int64
}

func (e *cacheEntry) setExpiry(t time.Time) {
	e.exp.Store(t.UnixNano())
}

// release gives up the per-key lock.
func (e *cacheEntry) release() {
	e.mu.Unlock()
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

// cache is a sharded map from session identifier to record. The shard
// RWMutex only guards map membership; record access goes through the entry
// mutex, so there is no store-wide lock on the hot path.
type cache struct {
	shards [cacheShards]*cacheShard
}

func newCache() *cache {
	c := &cache{}
	for i := range c.shards {
		c.shards[i] = &cacheShard{entries: make(map[string]*cacheEntry)}
	}
	return c
}

func (c *cache) shard(id string) *cacheShard {
	return c.shards[xxhash.Sum64String(id)&(cacheShards-1)]
}

// acquire returns the entry for id with its per-key lock held, creating a
// placeholder entry if none exists. If the entry was removed while this
// caller waited for the lock, the lookup is retried against a fresh entry.
func (c *cache) acquire(id string) *cacheEntry {
	for {
		s := c.shard(id)
		s.mu.Lock()
		e, ok := s.entries[id]
		if !ok {
			e = &cacheEntry{}
			s.entries[id] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		return e
	}
}

// tryAcquire is the sweeper's non-blocking variant: it never creates
// entries and never waits behind an in-flight request.
func (c *cache) tryAcquire(id string) (*cacheEntry, bool) {
	s := c.shard(id)
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.mu.TryLock() {
		return nil, false
	}
	if e.gone {
		e.mu.Unlock()
		return nil, false
	}
	return e, true
}

// removeLocked deletes id from the map. The caller must hold e's lock; the
// gone flag sends any goroutine already waiting on the entry back through
// acquire's retry loop.
func (c *cache) removeLocked(id string, e *cacheEntry) {
	s := c.shard(id)
	s.mu.Lock()
	if cur, ok := s.entries[id]; ok && cur == e {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	e.gone = true
	e.rec = nil
}

// contains reports whether id has a populated cache entry. Used as the
// generator's in-memory existence probe; reading exp without the entry lock
// is deliberate, a placeholder (exp zero) does not count as present.
func (c *cache) contains(id string) bool {
	s := c.shard(id)
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	return ok && e.exp.Load() != 0
}

// expired returns a snapshot of identifiers whose expiry has passed. The
// snapshot is advisory: entries may be renewed or removed between the
// snapshot and the sweeper's claim, which re-checks under the entry lock.
func (c *cache) expired(now time.Time) []string {
	cutoff := now.UnixNano()
	var ids []string
	for _, s := range c.shards {
		s.mu.RLock()
		for id, e := range s.entries {
			if exp := e.exp.Load(); exp != 0 && exp <= cutoff {
				ids = append(ids, id)
			}
		}
		s.mu.RUnlock()
	}
	return ids
}

// len reports the number of entries across all shards (diagnostic).
func (c *cache) len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
