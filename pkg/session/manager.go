package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sessionkit/sessionkit/pkg/logger"
)

// Manager is the session store facade. It owns exactly one in-memory cache
// and one storage backend handle for its lifetime: the cache is the
// read-through/write-back authority, the backend the durability authority.
//
// Every LoadOrCreate must be paired with exactly one Save or Destroy on the
// returned handle; the per-key lock is held in between, which is what makes
// concurrent same-key read-modify-write safe.
type Manager struct {
	config    Config
	storage   Storage
	generator *Generator
	transport Transport
	cache     *cache
	log       *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a session manager and starts its expiry sweeper (unless
// SweepInterval is zero). Call Close on shutdown to stop the sweeper.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.config = m.config.normalize()
	m.cache = newCache()
	m.generator = NewGenerator(m.config.IDLength)

	if m.storage == nil {
		m.storage = NewMemoryStorage()
	}
	if m.log == nil {
		m.log = logger.New(logger.WithComponent("session"))
	}
	if m.transport == nil {
		m.transport = NewCookieTransport(m.config.CookieName)
	}

	if m.config.SweepInterval > 0 {
		m.wg.Add(1)
		go m.sweepLoop()
	}

	return m
}

// LoadOrCreate resolves an incoming identifier to a live session, or mints
// a fresh one when the identifier is empty, unknown, or expired. The
// returned handle holds the identifier's per-key lock until Save or Destroy.
//
// A backend failure on the load path is logged and treated as absence: the
// caller gets a usable fresh session rather than an error (fail-open).
func (m *Manager) LoadOrCreate(ctx context.Context, incomingID string) (*Session, error) {
	now := time.Now()

	if incomingID != "" {
		if s := m.resolve(ctx, incomingID, now); s != nil {
			return s, nil
		}
	}

	id, err := m.generator.GenerateUnique(ctx, m.exists)
	if err != nil {
		return nil, err
	}

	e := m.cache.acquire(id)
	rec := &Record{
		ID:             id,
		Data:           make(map[string]any),
		ExpiresAt:      now.Add(m.config.Lifetime),
		LastAccessedAt: now,
	}
	e.rec = rec
	e.setExpiry(rec.ExpiresAt)

	return &Session{manager: m, entry: e, rec: rec, isNew: true}, nil
}

// resolve attempts a cache hit, then a backend load promoted into the
// cache. It returns nil when the identifier does not map to a live record,
// leaving no placeholder entry behind.
func (m *Manager) resolve(ctx context.Context, id string, now time.Time) *Session {
	e := m.cache.acquire(id)

	rec := e.rec
	if rec == nil {
		loaded, err := m.storage.Load(ctx, id)
		if err != nil {
			// Fail open: a briefly unreachable backend costs the client
			// its prior session data, never the whole request.
			m.log.WarnContext(ctx, "backend load failed, treating session as absent",
				"session_id", id, "error", err)
			loaded = nil
		}
		if loaded != nil && !loaded.isExpired(now) {
			rec = loaded
			e.rec = rec
			e.setExpiry(rec.ExpiresAt)
		}
	} else if rec.isExpired(now) {
		rec = nil
	}

	if rec == nil {
		m.cache.removeLocked(id, e)
		e.release()
		return nil
	}

	rec.LastAccessedAt = now
	s := &Session{manager: m, entry: e, rec: rec}
	if m.config.SlidingExpiry && m.extend(e, rec, now) {
		// Expiry moved, so the backend copy is stale until the next Save.
		s.dirty = true
	}

	return s
}

// Save completes a unit of work: it persists the record to the backend when
// the session is new or dirty (or unconditionally under SaveAlways),
// refreshes the cache entry either way, and releases the per-key lock.
//
// A backend failure is surfaced wrapped in ErrBackend; the cache keeps the
// mutated record, so the in-memory view stays current and a later Save can
// retry durability.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s.released {
		return nil
	}
	s.released = true
	defer s.entry.release()

	if s.destroyed {
		return nil
	}

	s.entry.setExpiry(s.rec.ExpiresAt)

	if !s.dirty && !s.isNew && m.config.SaveStrategy != SaveAlways {
		return nil
	}

	if err := m.storage.Store(ctx, s.rec); err != nil {
		return errors.Join(ErrBackend, err)
	}
	s.isNew = false
	s.dirty = false
	return nil
}

// Destroy tombstones the session, removes it from the cache immediately and
// deletes it from the backend. The handle is spent afterwards. A backend
// delete failure is surfaced; the next sweep retries it (delete is
// idempotent), so the record cannot outlive its expiry either way.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	if s.released {
		return nil
	}
	s.released = true
	s.destroyed = true

	id := s.rec.ID
	m.cache.removeLocked(id, s.entry)
	s.entry.release()

	if err := m.storage.Delete(ctx, id); err != nil {
		return errors.Join(ErrBackend, err)
	}
	return nil
}

// Renew extends the session expiry from now by the configured lifetime and
// marks the session dirty so the new expiry reaches the backend. Renewal
// only ever extends: if the current expiry is already further out, it stays.
func (m *Manager) Renew(s *Session) {
	if s.released {
		return
	}
	now := time.Now()
	m.extend(s.entry, s.rec, now)
	s.rec.LastAccessedAt = now
	s.dirty = true
}

// RegenerateID moves the session data under a freshly generated identifier
// and retires the old one from cache and backend. This is the session
// fixation defense: call it on privilege changes such as login.
func (m *Manager) RegenerateID(ctx context.Context, s *Session) error {
	if s.released {
		return ErrSessionNotFound
	}

	newID, err := m.generator.GenerateUnique(ctx, m.exists)
	if err != nil {
		return err
	}

	oldID := s.rec.ID
	oldEntry := s.entry

	// The new identifier is fresh random, so acquiring its entry while
	// holding the old one cannot deadlock.
	e := m.cache.acquire(newID)
	s.rec.ID = newID
	e.rec = s.rec
	e.setExpiry(s.rec.ExpiresAt)
	s.entry = e
	s.dirty = true

	m.cache.removeLocked(oldID, oldEntry)
	oldEntry.release()

	if err := m.storage.Delete(ctx, oldID); err != nil {
		return errors.Join(ErrBackend, err)
	}
	return nil
}

// Count returns the backend's active session count (diagnostic).
func (m *Manager) Count(ctx context.Context) (int64, error) {
	n, err := m.storage.CountActive(ctx)
	if err != nil {
		return 0, errors.Join(ErrBackend, err)
	}
	return n, nil
}

// CachedSessions returns the number of sessions currently held in the
// in-memory cache (diagnostic).
func (m *Manager) CachedSessions() int {
	return m.cache.len()
}

// Close stops the expiry sweeper and waits for it to exit. It does not
// close the storage backend; the backend handle belongs to its creator.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
	return nil
}

// extend pushes expiry out to now+Lifetime, never pulling it in. Reports
// whether the expiry actually moved.
func (m *Manager) extend(e *cacheEntry, rec *Record, now time.Time) bool {
	candidate := now.Add(m.config.Lifetime)
	if candidate.After(rec.ExpiresAt) {
		rec.ExpiresAt = candidate
		e.setExpiry(candidate)
		return true
	}
	return false
}

// exists is the generator's collision probe across cache and backend.
func (m *Manager) exists(ctx context.Context, id string) bool {
	if m.cache.contains(id) {
		return true
	}
	rec, err := m.storage.Load(ctx, id)
	if err != nil {
		m.log.WarnContext(ctx, "backend probe failed during identifier generation",
			"error", err)
		return false
	}
	return rec != nil
}
