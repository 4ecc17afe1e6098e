package sessionpg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sessionkit/sessionkit/pkg/logger"
	"github.com/sessionkit/sessionkit/pkg/session"
)

// Storage is a PostgreSQL-backed session.Storage. One row per session:
// {id text primary key, data bytea, expires_at, last_accessed_at}. Expired
// rows are reclaimed by the store's sweeper via DeleteExpired.
type Storage struct {
	pool  *pgxpool.Pool
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

// New creates a PostgreSQL-backed session storage from an existing pool.
// Call Migrate once at startup to ensure the table exists.
func New(pool *pgxpool.Pool, opts ...Option) *Storage {
	s := &Storage{
		pool:  pool,
		codec: session.JSONCodec{},
		table: "sessions",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.New(logger.WithComponent("sessionpg"))
	}

	return s
}

func (s *Storage) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// Migrate creates the session table and its expiry index if missing.
func (s *Storage) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id               TEXT PRIMARY KEY,
			data             BYTEA NOT NULL,
			expires_at       TIMESTAMPTZ NOT NULL,
			last_accessed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (expires_at);`,
		s.ident(), pgx.Identifier{s.table + "_expires_at_idx"}.Sanitize())

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return errors.Join(session.ErrBackend, err)
	}
	return nil
}

// Load returns the record for id, or (nil, nil) when absent. An unparsable
// data column is logged and treated as absence.
func (s *Storage) Load(ctx context.Context, id string) (*session.Record, error) {
	query := fmt.Sprintf(
		`SELECT data, expires_at, last_accessed_at FROM %s WHERE id = $1`, s.ident())

	var (
		payload      []byte
		expiresAt    time.Time
		lastAccessed time.Time
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(&payload, &expiresAt, &lastAccessed)
	if errors.Is(err, pgx.ErrNoRows) {
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
		ExpiresAt:      expiresAt,
		LastAccessedAt: lastAccessed,
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
		INSERT INTO %s (id, data, expires_at, last_accessed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data,
		    expires_at = EXCLUDED.expires_at,
		    last_accessed_at = EXCLUDED.last_accessed_at`, s.ident())

	if _, err := s.pool.Exec(ctx, query, rec.ID, payload, rec.ExpiresAt, rec.LastAccessedAt); err != nil {
		return errors.Join(session.ErrBackend, err)
	}
	return nil
}

// Delete removes the record for id. Absence is not an error.
func (s *Storage) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.ident())
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return errors.Join(session.ErrBackend, err)
	}
	return nil
}

// DeleteExpired removes all rows whose expiry precedes the cutoff.
func (s *Storage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= $1`, s.ident())
	tag, err := s.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, errors.Join(session.ErrBackend, err)
	}
	return tag.RowsAffected(), nil
}

// CountActive returns the number of unexpired rows.
func (s *Storage) CountActive(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE expires_at > NOW()`, s.ident())
	var n int64
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, errors.Join(session.ErrBackend, err)
	}
	return n, nil
}
