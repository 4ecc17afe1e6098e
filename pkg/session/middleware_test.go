package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionkit/sessionkit/pkg/session"
)

func TestMiddleware_NewSession(t *testing.T) {
	manager, _ := setupManager(t, session.WithCookieName("test-sid"))

	var sawNew bool
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		sawNew = sess.IsNew()
		sess.Set("visits", 1)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.True(t, sawNew)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "test-sid", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestMiddleware_ReturningSession(t *testing.T) {
	manager, _ := setupManager(t, session.WithCookieName("test-sid"))

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		n, _ := sess.GetInt("visits")
		sess.Set("visits", n+1)
	}))

	// First request creates the session.
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, httptest.NewRequest("GET", "/", nil))
	cookies := w1.Result().Cookies()
	require.Len(t, cookies, 1)

	// Second request carries the cookie back.
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, r2)

	// Verify the counter advanced across requests.
	ctx := context.Background()
	sess, err := manager.LoadOrCreate(ctx, cookies[0].Value)
	require.NoError(t, err)
	n, _ := sess.GetInt("visits")
	assert.Equal(t, 2, n)
	require.NoError(t, manager.Save(ctx, sess))
}

func TestMiddleware_InvalidCookieMintsNew(t *testing.T) {
	manager, _ := setupManager(t, session.WithCookieName("test-sid"))

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		assert.True(t, sess.IsNew())
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: "test-sid", Value: "bogus-identifier"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	// A replacement cookie goes out.
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "bogus-identifier", cookies[0].Value)
}

func TestMiddleware_HeaderTransport(t *testing.T) {
	manager, _ := setupManager(t,
		session.WithTransport(session.NewHeaderTransport("X-Session-Token")),
	)

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		sess.Set("k", "v")
	}))

	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, httptest.NewRequest("GET", "/", nil))
	token := w1.Header().Get("X-Session-Token")
	require.NotEmpty(t, token)

	r2 := httptest.NewRequest("GET", "/", nil)
	r2.Header.Set("X-Session-Token", token)
	w2 := httptest.NewRecorder()

	var isNew bool
	handler2 := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isNew = session.MustFromContext(r.Context()).IsNew()
	}))
	handler2.ServeHTTP(w2, r2)
	assert.False(t, isNew)
}

func TestMiddleware_RegenerateIDPropagates(t *testing.T) {
	manager, _ := setupManager(t, session.WithCookieName("test-sid"))

	seed := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("user", "alice")
	}))
	w1 := httptest.NewRecorder()
	seed.ServeHTTP(w1, httptest.NewRequest("GET", "/", nil))
	oldCookie := w1.Result().Cookies()[0]

	// A login-style handler rotates the identifier mid-request; the cookie
	// that goes out must carry the rotated value, not the retired one.
	rotate := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		require.NoError(t, manager.RegenerateID(r.Context(), sess))
		w.WriteHeader(http.StatusNoContent)
	}))
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(oldCookie)
	w2 := httptest.NewRecorder()
	rotate.ServeHTTP(w2, r2)

	cookies := w2.Result().Cookies()
	require.Len(t, cookies, 1)
	newID := cookies[0].Value
	require.NotEmpty(t, newID)
	assert.NotEqual(t, oldCookie.Value, newID)

	// The rotated identifier still resolves to the session's data.
	ctx := context.Background()
	sess, err := manager.LoadOrCreate(ctx, newID)
	require.NoError(t, err)
	assert.False(t, sess.IsNew())
	v, _ := sess.GetString("user")
	assert.Equal(t, "alice", v)
	require.NoError(t, manager.Save(ctx, sess))
}

func TestMiddleware_SlidingExpiryRefreshesCookie(t *testing.T) {
	manager, _ := setupManager(t,
		session.WithCookieName("test-sid"),
		session.WithLifetime(time.Hour),
	)
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, httptest.NewRequest("GET", "/", nil))
	first := w1.Result().Cookies()
	require.Len(t, first, 1)

	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(first[0])
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, r2)

	// The returning response re-sends the cookie so the client-side
	// deadline tracks the server-side extension.
	again := w2.Result().Cookies()
	require.Len(t, again, 1)
	assert.Equal(t, first[0].Value, again[0].Value)
	assert.Positive(t, again[0].MaxAge)
}

func TestMiddleware_DestroyClearsCookie(t *testing.T) {
	manager, _ := setupManager(t, session.WithCookieName("test-sid"))

	seed := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("k", "v")
	}))
	w1 := httptest.NewRecorder()
	seed.ServeHTTP(w1, httptest.NewRequest("GET", "/", nil))
	cookie := w1.Result().Cookies()[0]

	logout := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		require.NoError(t, manager.Destroy(r.Context(), sess))
	}))
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(cookie)
	w2 := httptest.NewRecorder()
	logout.ServeHTTP(w2, r2)

	cleared := w2.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Negative(t, cleared[0].MaxAge)
}
