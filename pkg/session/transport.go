package session

import (
	"net/http"
	"time"
)

// Transport defines how session identifiers travel between client and
// server. The store core never sees raw transport framing: it consumes an
// extracted identifier string and produces one. Signing or encrypting the
// client-held token is the transport implementer's concern.
type Transport interface {
	// GetToken extracts the session identifier from the request
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session identifier in the response
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken removes the session identifier from the response
	ClearToken(w http.ResponseWriter) error
}
