// Package session implements a concurrent server-side session store: an
// in-memory cache synchronized with a durable backend, governing record
// lifecycle, per-key concurrency and time-based expiry.
//
// The package is storage-agnostic. Any backend satisfying the Storage
// interface can be plugged in; adapters for Redis, PostgreSQL and SQLite
// ship in sibling packages, and a concurrent in-memory implementation ships
// out of the box. Session identifiers reach clients through a replaceable
// Transport (HTTP cookie or header).
//
// # Architecture
//
// A Manager orchestrates the session life-cycle. It owns a sharded cache
// with per-identifier locking (the read-through/write-back authority) and a
// Storage handle (the durability authority). A background sweeper reclaims
// expired records from both on a configurable interval.
//
//	┌────────┐ identifier ┌───────────┐
//	│ Client │ ─────────► │ Transport │
//	└────────┘            └───────────┘
//	       ▲                    │
//	       │                    ▼
//	┌──────────────────────────────────┐
//	│             Manager              │◄── sweeper
//	│   sharded cache (per-key lock)   │
//	└──────────────────────────────────┘
//	       │  load / store / delete
//	       ▼
//	┌─────────┐
//	│ Storage │ (memory, redis, postgres, sqlite)
//	└─────────┘
//
// # Usage
//
//	manager := session.New(
//	    session.WithStorage(storage),
//	    session.WithLifetime(12*time.Hour),
//	)
//	defer manager.Close()
//
//	func handle(ctx context.Context, incomingID string) (string, error) {
//	    sess, err := manager.LoadOrCreate(ctx, incomingID)
//	    if err != nil {
//	        return "", err
//	    }
//	    sess.Set("cart_items", 3)
//	    return sess.ID(), manager.Save(ctx, sess)
//	}
//
// Or let the middleware drive the cycle:
//
//	mux := http.NewServeMux()
//	http.ListenAndServe(":8080", manager.Middleware(mux))
//
// # Concurrency
//
// LoadOrCreate acquires the identifier's lock and Save (or Destroy)
// releases it, so two overlapping requests carrying the same identifier
// serialize their read-modify-write cycles and lost updates cannot occur.
// Requests for different identifiers never contend. The sweeper only ever
// try-locks, so it cannot stall behind or deadlock with live requests.
//
// A handle must not be used after Save or Destroy; each LoadOrCreate pairs
// with exactly one of the two.
//
// # Failure behavior
//
// Backend failures on the read path are logged and degrade to a fresh
// session (fail-open); failures on the write path surface as ErrBackend and
// leave the in-memory copy authoritative. The store never panics on backend
// unavailability.
//
// Multiple service instances sharing one backend resolve conflicting writes
// last-write-wins at the backend; cross-instance linearizability is out of
// scope.
package session
