package sessionsqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionkit/sessionkit/pkg/session"
	"github.com/sessionkit/sessionkit/pkg/sessionsqlite"
)

func setupStorage(t *testing.T) *sessionsqlite.Storage {
	t.Helper()

	storage, err := sessionsqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	return storage
}

func record(id string, ttl time.Duration) *session.Record {
	return &session.Record{
		ID:             id,
		Data:           map[string]any{"k": "v"},
		ExpiresAt:      time.Now().Add(ttl),
		LastAccessedAt: time.Now(),
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	rec := record("s1", time.Hour)
	rec.Data = map[string]any{"user": "alice", "count": float64(7)}
	require.NoError(t, storage.Store(ctx, rec))

	loaded, err := storage.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "s1", loaded.ID)
	assert.Equal(t, rec.Data, loaded.Data)
	assert.True(t, rec.ExpiresAt.Equal(loaded.ExpiresAt))
}

func TestStorage_UpsertByID(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	rec := record("s1", time.Hour)
	require.NoError(t, storage.Store(ctx, rec))

	rec.Data = map[string]any{"k": "updated"}
	require.NoError(t, storage.Store(ctx, rec))

	loaded, err := storage.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "updated", loaded.Data["k"])

	n, err := storage.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStorage_LoadAbsent(t *testing.T) {
	storage := setupStorage(t)

	loaded, err := storage.Load(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStorage_Delete(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Store(ctx, record("s1", time.Hour)))
	require.NoError(t, storage.Delete(ctx, "s1"))

	loaded, err := storage.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Absence is not an error.
	assert.NoError(t, storage.Delete(ctx, "s1"))
}

func TestStorage_DeleteExpired(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Store(ctx, record("live", time.Hour)))
	require.NoError(t, storage.Store(ctx, record("dead", -time.Minute)))

	deleted, err := storage.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	loaded, err := storage.Load(ctx, "dead")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	loaded, err = storage.Load(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}

func TestStorage_LoadCorrupt(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	storage := sessionsqlite.New(db)
	require.NoError(t, storage.Migrate(ctx))

	_, err = db.ExecContext(ctx,
		`INSERT INTO "sessions" (id, data, expires_at, last_accessed_at) VALUES (?, ?, ?, ?)`,
		"bad", []byte("not json"), time.Now().Add(time.Hour).UnixNano(), time.Now().UnixNano())
	require.NoError(t, err)

	loaded, err := storage.Load(ctx, "bad")
	assert.NoError(t, err, "unparsable record must read as absence, not failure")
	assert.Nil(t, loaded)
}

func TestStorage_CountActive(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Store(ctx, record("a", time.Hour)))
	require.NoError(t, storage.Store(ctx, record("b", time.Hour)))
	require.NoError(t, storage.Store(ctx, record("c", -time.Minute)))

	n, err := storage.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestStorage_WithManager(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	manager := session.New(
		session.WithStorage(storage),
		session.WithSweepInterval(0),
	)
	defer manager.Close()

	sess, err := manager.LoadOrCreate(ctx, "")
	require.NoError(t, err)
	sess.Set("theme", "dark")
	require.NoError(t, manager.Save(ctx, sess))

	again, err := manager.LoadOrCreate(ctx, sess.ID())
	require.NoError(t, err)
	assert.False(t, again.IsNew())
	v, _ := again.GetString("theme")
	assert.Equal(t, "dark", v)
	require.NoError(t, manager.Save(ctx, again))
}
