package session

import (
	"context"
	"time"
)

// sweepLoop wakes every SweepInterval until Close signals the done channel.
func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(context.Background())
		case <-m.done:
			return
		}
	}
}

// Sweep runs one reclamation cycle: expired cache entries are claimed with
// a non-blocking lock attempt (an entry held by an in-flight request is
// simply skipped until the next cycle), then the backend's bulk
// DeleteExpired runs as a catch-all for records the cache never held.
//
// Backend errors are logged, never fatal: deletion is idempotent, so a
// failed cycle is retried on the next wake.
func (m *Manager) Sweep(ctx context.Context) {
	now := time.Now()

	var reclaimed int
	for _, id := range m.cache.expired(now) {
		e, ok := m.cache.tryAcquire(id)
		if !ok {
			continue
		}
		// Re-check under the lock; the entry may have been renewed
		// between snapshot and claim.
		if e.rec != nil && e.rec.isExpired(now) {
			m.cache.removeLocked(id, e)
			reclaimed++
		}
		e.release()
	}

	deleted, err := m.storage.DeleteExpired(ctx, now)
	if err != nil {
		m.log.ErrorContext(ctx, "sweep: backend expired-session cleanup failed",
			"error", err)
	}

	if reclaimed > 0 || deleted > 0 {
		m.log.DebugContext(ctx, "sweep cycle complete",
			"cache_reclaimed", reclaimed, "backend_deleted", deleted)
	}
}
