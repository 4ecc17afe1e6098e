package session

import (
	"context"
	"time"
)

// Storage is the contract a durable backend adapter must satisfy. The core
// is agnostic to the medium behind it; adapters for Redis, PostgreSQL and
// SQLite live in their own packages, and an in-process MemoryStorage ships
// with this one.
//
// All methods must be safe for concurrent use across independent
// identifiers. Failures wrap ErrBackend.
type Storage interface {
	// Load returns the record for id, or (nil, nil) if absent. A record
	// that exists but cannot be decoded is treated as absent: the adapter
	// logs the anomaly and the caller mints a fresh session.
	Load(ctx context.Context, id string) (*Record, error)

	// Store upserts the record keyed by its identifier. Idempotent.
	Store(ctx context.Context, rec *Record) error

	// Delete removes the record for id. Absence is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired bulk-removes records whose expiry precedes the cutoff
	// and returns how many were removed. Safe to run concurrently with
	// Load/Store on unrelated identifiers.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// CountActive returns the number of unexpired records (diagnostic).
	CountActive(ctx context.Context) (int64, error)
}
