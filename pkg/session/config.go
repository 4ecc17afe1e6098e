package session

import "time"

// SaveStrategy controls when Save writes to the storage backend.
type SaveStrategy string

const (
	// SaveAlways persists on every Save call regardless of mutation state.
	SaveAlways SaveStrategy = "always"

	// SaveDirtyOnly persists only when the session data was mutated since
	// the last successful persist (or the session has never been persisted).
	SaveDirtyOnly SaveStrategy = "dirty-only"
)

// Config holds session store configuration
type Config struct {
	// CookieName is the name of the session cookie (default: "sid")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// Lifetime is the default session lifetime from creation or last touch
	Lifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`

	// SlidingExpiry extends expiry on each access; when false, expiry is
	// fixed at creation and only moves through explicit Renew
	SlidingExpiry bool `env:"SESSION_SLIDING_EXPIRY" envDefault:"true"`

	// SaveStrategy is "always" or "dirty-only"
	SaveStrategy SaveStrategy `env:"SESSION_SAVE_STRATEGY" envDefault:"dirty-only"`

	// SweepInterval for expired session reclamation (0 to disable)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	// IDLength is the identifier entropy in bytes (minimum 16 = 128 bits)
	IDLength int `env:"SESSION_ID_LENGTH" envDefault:"32"`

	// Namespace is the backend table name or key prefix
	Namespace string `env:"SESSION_NAMESPACE" envDefault:"sessions"`
}

// DefaultConfig returns default session store configuration
func DefaultConfig() Config {
	return Config{
		CookieName:    "sid",
		Lifetime:      24 * time.Hour,
		SlidingExpiry: true,
		SaveStrategy:  SaveDirtyOnly,
		SweepInterval: 5 * time.Minute,
		IDLength:      32,
		Namespace:     "sessions",
	}
}

// normalize clamps out-of-range values. Lifetime is deliberately left
// untouched: a zero lifetime creates already-expired sessions, which is a
// legitimate (if unusual) configuration.
func (c Config) normalize() Config {
	if c.IDLength < minIDLength {
		c.IDLength = minIDLength
	}
	if c.SaveStrategy != SaveAlways {
		c.SaveStrategy = SaveDirtyOnly
	}
	if c.CookieName == "" {
		c.CookieName = "sid"
	}
	if c.Namespace == "" {
		c.Namespace = "sessions"
	}
	return c
}
