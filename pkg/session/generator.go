package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const (
	// minIDLength is 128 bits of entropy, the floor for session identifiers
	minIDLength = 16

	// maxIDAttempts bounds collision retries before declaring the entropy
	// source exhausted
	maxIDAttempts = 16
)

// ExistsFunc reports whether a candidate identifier is already in use.
// Probe failures are treated as "does not exist": a briefly unreachable
// backend must not block session creation.
type ExistsFunc func(ctx context.Context, id string) bool

// Generator produces cryptographically random session identifiers.
type Generator struct {
	length int
}

// NewGenerator creates a generator producing identifiers with the given
// number of random bytes. Lengths below 16 bytes are raised to 16.
func NewGenerator(length int) *Generator {
	if length < minIDLength {
		length = minIDLength
	}
	return &Generator{length: length}
}

// Generate returns a new random identifier encoded as base64url.
func (g *Generator) Generate() (string, error) {
	b := make([]byte, g.length)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrIDGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateUnique returns an identifier that the exists probe does not know.
// It retries up to maxIDAttempts times; persistent collisions mean the
// entropy source is misconfigured and yield ErrIDExhausted.
func (g *Generator) GenerateUnique(ctx context.Context, exists ExistsFunc) (string, error) {
	for range maxIDAttempts {
		id, err := g.Generate()
		if err != nil {
			return "", err
		}
		if exists == nil || !exists(ctx, id) {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}
