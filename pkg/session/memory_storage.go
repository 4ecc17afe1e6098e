package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage implements Storage entirely in process memory. It is the
// default backend and the test workhorse; records do not survive restarts.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStorage creates an empty in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]*Record)}
}

// Load returns a deep copy of the record for id, or (nil, nil) if absent.
func (m *MemoryStorage) Load(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return rec.clone(), nil
}

// Store upserts a deep copy of the record.
func (m *MemoryStorage) Store(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return ErrBadRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.ID] = rec.clone()
	return nil
}

// Delete removes the record for id. Absence is not an error.
func (m *MemoryStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}

// DeleteExpired removes all records whose expiry precedes the cutoff.
func (m *MemoryStorage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, rec := range m.records {
		if rec.ExpiresAt.Before(before) || rec.ExpiresAt.Equal(before) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

// CountActive returns the number of unexpired records.
func (m *MemoryStorage) CountActive(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var n int64
	for _, rec := range m.records {
		if rec.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}
