// Package sessionsqlite provides a SQLite-backed storage adapter for the
// session store, using the pure-Go modernc.org/sqlite driver so no cgo is
// required. Good for single-node services and local development.
//
//	storage, err := sessionsqlite.Open(ctx, "sessions.db")
//	if err != nil { ... }
//	defer storage.Close()
//	manager := session.New(session.WithStorage(storage))
package sessionsqlite
