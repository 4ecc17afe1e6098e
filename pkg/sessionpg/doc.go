// Package sessionpg provides a PostgreSQL-backed storage adapter for the
// session store, one row per session keyed by identifier. The schema is
// created by Migrate; expired rows are reclaimed through the store's
// sweeper calling DeleteExpired.
//
//	pool, err := sessionpg.Connect(ctx, cfg)
//	if err != nil { ... }
//	storage := sessionpg.New(pool)
//	if err := storage.Migrate(ctx); err != nil { ... }
//	manager := session.New(session.WithStorage(storage))
package sessionpg
