// Package sessionredis provides a Redis-backed storage adapter for the
// session store. Records are written with a TTL matching their expiry, so
// Redis handles most reclamation natively; the sweeper's bulk DeleteExpired
// covers records other writers stored without a TTL.
//
//	client, err := sessionredis.Connect(ctx, cfg)
//	if err != nil { ... }
//	manager := session.New(session.WithStorage(sessionredis.New(client)))
package sessionredis
