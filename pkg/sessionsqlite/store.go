package sessionsqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sessionkit/sessionkit/pkg/logger"
	"github.com/sessionkit/sessionkit/pkg/session"
)

// Storage is a SQLite-backed session.Storage, suitable for single-node
// deployments and embedded tooling. Timestamps are stored as unix
// nanoseconds so comparisons stay integer-exact.
type Storage struct {
	db    *sql.DB
	codec session.Codec
	table string
	log   *slog.Logger
}

// Option configures the Storage.
type Option func(*Storage)

// WithCodec replaces the default JSON codec.
func WithCodec(codec session.Codec) Option {
	return func(s *Storage) {
		s.codec = codec
	}
}

// WithTable sets the table name (default "sessions").
func WithTable(table string) Option {
	return func(s *Storage) {
		if table != "" {
			s.table = table
		}
	}
}

// WithLogger sets the logger for data-integrity anomalies.
func WithLogger(log *slog.Logger) Option {
	return func(s *Storage) {
		s.log = log
	}
}

// Open opens (or creates) a SQLite database at dsn and prepares the session
// table. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, dsn string, opts ...Option) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(session.ErrBackend, err)
	}

	s := New(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New creates a SQLite-backed session storage from an existing handle.
func New(db *sql.DB, opts ...Option) *Storage {
	s := &Storage{
		db:    db,
		codec: session.JSONCodec{},
		table: "sessions",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.New(logger.WithComponent("sessionsqlite"))
	}

	return s
}

// Close closes the underlying database handle. Only call it when the
// Storage owns the handle (i.e. it came from Open).
func (s *Storage) Close() error {
	return s.db.Close()
}

// Migrate creates the session table and its expiry index if missing.
func (s *Storage) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]q (
			id               TEXT PRIMARY KEY,
			data             BLOB NOT NULL,
			expires_at       INTEGER NOT NULL,
			last_accessed_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %[2]q ON %[1]q (expires_at);`,
		s.table, s.table+"_expires_at_idx")

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Join(session.ErrBackend, err)
	}
	return nil
}

// Load returns the record for id, or (nil, nil) when absent. An unparsable
// data column is logged and treated as absence.
func (s *Storage) Load(ctx context.Context, id string) (*session.Record, error) {
	query := fmt.Sprintf(
		`SELECT data, expires_at, last_accessed_at FROM %q WHERE id = ?`, s.table)

	var (
		payload      []byte
		expiresAt    int64
		lastAccessed int64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&payload, &expiresAt, &lastAccessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(session.ErrBackend, err)
	}

	data, err := s.codec.Unmarshal(payload)
	if err != nil {
		s.log.WarnContext(ctx, "discarding unparsable session record",
			"session_id", id, "error", err)
		return nil, nil
	}

	return &session.Record{
		ID:             id,
		Data:           data,
		ExpiresAt:      time.Unix(0, expiresAt),
		LastAccessedAt: time.Unix(0, lastAccessed),
	}, nil
}

// Store upserts the record keyed by id.
func (s *Storage) Store(ctx context.Context, rec *session.Record) error {
	if rec == nil || rec.ID == "" {
		return session.ErrBadRecord
	}

	payload, err := s.codec.Marshal(rec.Data)
	if err != nil {
		return errors.Join(session.ErrBadRecord, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %q (id, data, expires_at, last_accessed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET data = excluded.data,
		    expires_at = excluded.expires_at,
		    last_accessed_at = excluded.last_accessed_at`, s.table)

	if _, err := s.db.ExecContext(ctx, query,
		rec.ID, payload, rec.ExpiresAt.UnixNano(), rec.LastAccessedAt.UnixNano()); err != nil {
		return errors.Join(session.ErrBackend, err)
	}
	return nil
}

// Delete removes the record for id. Absence is not an error.
func (s *Storage) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return errors.Join(session.ErrBackend, err)
	}
	return nil
}

// DeleteExpired removes all rows whose expiry precedes the cutoff.
func (s *Storage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %q WHERE expires_at <= ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, before.UnixNano())
	if err != nil {
		return 0, errors.Join(session.ErrBackend, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Join(session.ErrBackend, err)
	}
	return n, nil
}

// CountActive returns the number of unexpired rows.
func (s *Storage) CountActive(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q WHERE expires_at > ?`, s.table)
	var n int64
	if err := s.db.QueryRowContext(ctx, query, time.Now().UnixNano()).Scan(&n); err != nil {
		return 0, errors.Join(session.ErrBackend, err)
	}
	return n, nil
}
