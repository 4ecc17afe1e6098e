package session

import (
	"net/http"
	"time"
)

// CookieTransport implements Transport using a plain HTTP cookie. The
// cookie value is the opaque session identifier itself; wrap this transport
// if the deployment requires signed or encrypted tokens.
type CookieTransport struct {
	cookieName string
	secure     bool
	sameSite   http.SameSite
}

// CookieOption configures a CookieTransport
type CookieOption func(*CookieTransport)

// WithSecureCookie enables the Secure flag (recommended for production)
func WithSecureCookie(secure bool) CookieOption {
	return func(t *CookieTransport) {
		t.secure = secure
	}
}

// WithSameSite sets the SameSite cookie policy
func WithSameSite(mode http.SameSite) CookieOption {
	return func(t *CookieTransport) {
		t.sameSite = mode
	}
}

// NewCookieTransport creates a cookie-based transport
func NewCookieTransport(cookieName string, opts ...CookieOption) *CookieTransport {
	t := &CookieTransport{
		cookieName: cookieName,
		sameSite:   http.SameSiteLaxMode,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// GetToken extracts the session identifier from the cookie
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	c, err := r.Cookie(t.cookieName)
	if err != nil || c.Value == "" {
		return "", ErrSessionNotFound
	}
	return c.Value, nil
}

// SetToken stores the session identifier in a cookie
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: t.sameSite,
	})
	return nil
}

// ClearToken expires the session cookie
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: t.sameSite,
	})
	return nil
}
