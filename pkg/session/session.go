package session

import (
	"maps"
	"time"
)

// Record is the storage-facing session state: the persisted layout is
// {id, data, expires_at, last_accessed_at}. Data values are opaque
// JSON-like structures serialized through a Codec by the backend adapter.
type Record struct {
	ID             string         `json:"id"`
	Data           map[string]any `json:"data,omitempty"`
	ExpiresAt      time.Time      `json:"expires_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
}

// clone copies the record and its top-level data map so cache and storage
// never alias caller-visible maps. The copy is one level deep: nested maps
// and slices inside Data stay shared, so nested values must be replaced
// through Session.Set rather than mutated in place.
func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Data != nil {
		cp.Data = make(map[string]any, len(r.Data))
		maps.Copy(cp.Data, r.Data)
	}
	return &cp
}

// isExpired reports whether the record has passed the given instant.
func (r *Record) isExpired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Session is the handle a single unit of work holds over one session record.
// The manager hands it out with the record's per-key lock held; the lock is
// released by Save or Destroy, after which the handle must not be used again.
type Session struct {
	manager   *Manager
	entry     *cacheEntry
	rec       *Record
	isNew     bool
	dirty     bool
	destroyed bool
	released  bool
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.rec.ID
}

// IsNew reports whether the session has never been successfully persisted.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ExpiresAt returns the current expiry timestamp.
func (s *Session) ExpiresAt() time.Time {
	return s.rec.ExpiresAt
}

// LastAccessedAt returns the time of the most recent load or creation.
func (s *Session) LastAccessedAt() time.Time {
	return s.rec.LastAccessedAt
}

// Get retrieves a value from session data. Nested maps and slices are
// shared with the session; replace them via Set instead of mutating in
// place, or the mutation bypasses dirty tracking and storage isolation.
func (s *Session) Get(key string) (any, bool) {
	if s.rec.Data == nil {
		return nil, false
	}
	val, ok := s.rec.Data[key]
	return val, ok
}

// GetString retrieves a string value from session data
func (s *Session) GetString(key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt retrieves an int value from session data. JSON codecs decode
// numbers as float64, so that representation is accepted too.
func (s *Session) GetInt(key string) (int, bool) {
	val, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// GetBool retrieves a bool value from session data
func (s *Session) GetBool(key string) (bool, bool) {
	val, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// Set stores a value in session data and marks the session dirty.
func (s *Session) Set(key string, value any) {
	if s.rec.Data == nil {
		s.rec.Data = make(map[string]any)
	}
	s.rec.Data[key] = value
	s.dirty = true
}

// Delete removes a value from session data and marks the session dirty.
func (s *Session) Delete(key string) {
	if s.rec.Data == nil {
		return
	}
	delete(s.rec.Data, key)
	s.dirty = true
}

// Clear removes all data from the session and marks it dirty.
func (s *Session) Clear() {
	s.rec.Data = make(map[string]any)
	s.dirty = true
}

// Keys returns the data keys in no particular order.
func (s *Session) Keys() []string {
	keys := make([]string, 0, len(s.rec.Data))
	for k := range s.rec.Data {
		keys = append(keys, k)
	}
	return keys
}
