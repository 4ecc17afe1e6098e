package session

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStorage sets the durable storage backend. Defaults to MemoryStorage.
func WithStorage(storage Storage) Option {
	return func(m *Manager) {
		m.storage = storage
	}
}

// WithTransport sets a custom session transport
func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithLogger sets the logger for anomaly reporting
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithCookieName sets the session cookie name
func WithCookieName(name string) Option {
	return func(m *Manager) {
		m.config.CookieName = name
	}
}

// WithLifetime sets the default session lifetime
func WithLifetime(lifetime time.Duration) Option {
	return func(m *Manager) {
		m.config.Lifetime = lifetime
	}
}

// WithSlidingExpiry toggles between sliding and fixed expiry
func WithSlidingExpiry(sliding bool) Option {
	return func(m *Manager) {
		m.config.SlidingExpiry = sliding
	}
}

// WithSaveStrategy sets when Save writes to the backend
func WithSaveStrategy(strategy SaveStrategy) Option {
	return func(m *Manager) {
		m.config.SaveStrategy = strategy
	}
}

// WithSweepInterval sets the expiry sweep interval (0 disables the sweeper)
func WithSweepInterval(interval time.Duration) Option {
	return func(m *Manager) {
		m.config.SweepInterval = interval
	}
}

// WithIDLength sets the identifier entropy in bytes (minimum 16)
func WithIDLength(length int) Option {
	return func(m *Manager) {
		m.config.IDLength = length
	}
}

// WithNamespace sets the backend table name or key prefix
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		m.config.Namespace = namespace
	}
}
