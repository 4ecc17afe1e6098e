package sessionredis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sessionkit/sessionkit/pkg/logger"
	"github.com/sessionkit/sessionkit/pkg/session"
)

const scanBatchSize = 128

// Storage is a Redis-backed session.Storage. Each record lives under
// "<prefix>:<id>" with a TTL matching its expiry, so Redis reclaims the
// bulk of expired records on its own; DeleteExpired remains the catch-all
// for records written without a TTL by other writers.
type Storage struct {
	client redis.UniversalClient
	codec  session.Codec
	prefix string
	log    *slog.Logger
}

// envelope is the persisted record layout: the opaque codec payload plus
// the metadata the sweeper needs without decoding the payload.
type envelope struct {
	Data           []byte    `json:"data"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// Option configures the Storage.
type Option func(*Storage)

// WithCodec replaces the default JSON codec.
func WithCodec(codec session.Codec) Option {
	return func(s *Storage) {
		s.codec = codec
	}
}

// WithKeyPrefix sets the key namespace (default "sessions").
func WithKeyPrefix(prefix string) Option {
	return func(s *Storage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger for data-integrity anomalies.
func WithLogger(log *slog.Logger) Option {
	return func(s *Storage) {
		s.log = log
	}
}

// New creates a Redis-backed session storage from an existing client.
func New(client redis.UniversalClient, opts ...Option) *Storage {
	s := &Storage{
		client: client,
		codec:  session.JSONCodec{},
		prefix: "sessions",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.New(logger.WithComponent("sessionredis"))
	}

	return s
}

func (s *Storage) key(id string) string {
	return s.prefix + ":" + id
}

// Load returns the record for id, or (nil, nil) when absent. A stored value
// that cannot be decoded is a data-integrity anomaly: it is logged and
// treated as absence, never surfaced as a failure.
func (s *Storage) Load(ctx context.Context, id string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(session.ErrBackend, err)
	}

	rec, err := s.decode(id, raw)
	if err != nil {
		s.log.WarnContext(ctx, "discarding unparsable session record",
			"session_id", id, "error", err)
		return nil, nil
	}
	return rec, nil
}

// Store upserts the record with a TTL matching its remaining lifetime.
// Storing an already-expired record degenerates to a delete.
func (s *Storage) Store(ctx context.Context, rec *session.Record) error {
	if rec == nil || rec.ID == "" {
		return session.ErrBadRecord
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, rec.ID)
	}

	payload, err := s.codec.Marshal(rec.Data)
	if err != nil {
		return errors.Join(session.ErrBadRecord, err)
	}

	raw, err := json.Marshal(envelope{
		Data:           payload,
		ExpiresAt:      rec.ExpiresAt,
		LastAccessedAt: rec.LastAccessedAt,
	})
	if err != nil {
		return errors.Join(session.ErrBadRecord, err)
	}

	if err := s.client.Set(ctx, s.key(rec.ID), raw, ttl).Err(); err != nil {
		return errors.Join(session.ErrBackend, err)
	}
	return nil
}

// Delete removes the record for id. Absence is not an error.
func (s *Storage) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Join(session.ErrBackend, err)
	}
	return nil
}

// DeleteExpired scans the namespace and removes records whose embedded
// expiry precedes the cutoff. Unparsable records are removed too.
func (s *Storage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64

	err := s.scan(ctx, func(key string, env *envelope) error {
		if env == nil || !env.ExpiresAt.After(before) {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, errors.Join(session.ErrBackend, err)
	}
	return deleted, nil
}

// CountActive returns the number of unexpired records in the namespace.
func (s *Storage) CountActive(ctx context.Context) (int64, error) {
	now := time.Now()
	var count int64

	err := s.scan(ctx, func(key string, env *envelope) error {
		if env != nil && env.ExpiresAt.After(now) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Join(session.ErrBackend, err)
	}
	return count, nil
}

// scan walks all keys in the namespace, invoking fn with the decoded
// envelope, or nil if the value is unparsable.
func (s *Storage) scan(ctx context.Context, fn func(key string, env *envelope) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// Expired between scan and get.
			continue
		}
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.WarnContext(ctx, "unparsable session record in scan", "key", key)
			if err := fn(key, nil); err != nil {
				return err
			}
			continue
		}
		if err := fn(key, &env); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *Storage) decode(id string, raw []byte) (*session.Record, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Join(session.ErrBadRecord, err)
	}

	data, err := s.codec.Unmarshal(env.Data)
	if err != nil {
		return nil, errors.Join(session.ErrBadRecord, err)
	}

	return &session.Record{
		ID:             id,
		Data:           data,
		ExpiresAt:      env.ExpiresAt,
		LastAccessedAt: env.LastAccessedAt,
	}, nil
}
