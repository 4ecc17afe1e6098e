package session

import "errors"

var (
	// ErrSessionNotFound indicates no live session exists for the given
	// identifier (absent, expired or destroyed); callers start a new
	// session rather than treating this as a hard failure
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrBackend indicates a storage backend connectivity or command failure
	ErrBackend = errors.New("session.backend_failure")

	// ErrBadRecord indicates a persisted record could not be decoded;
	// such records are treated as absent, never surfaced as a crash
	ErrBadRecord = errors.New("session.bad_record")

	// ErrIDExhausted indicates the generator kept producing colliding
	// identifiers; this signals a misconfigured or undersized entropy source
	ErrIDExhausted = errors.New("session.identifier_exhausted")

	// ErrIDGeneration indicates the random source failed
	ErrIDGeneration = errors.New("session.identifier_generation_failed")
)
