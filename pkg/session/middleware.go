package session

import (
	"net/http"
	"time"
)

// Middleware wires the store into an HTTP handler chain: it resolves the
// incoming identifier through the configured transport, makes the session
// handle available via the request context, and saves it once the handler
// returns. The handle's per-key lock is held for the duration of the
// request, so overlapping requests for the same session serialize here.
//
// The outgoing token is emitted just before the first response byte (or
// after the handler returns, if it wrote nothing), so identifier rotation
// via RegenerateID and expiry extensions both reach the client. Destroyed
// sessions clear the client token instead.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		incoming, _ := m.transport.GetToken(r)

		sess, err := m.LoadOrCreate(r.Context(), incoming)
		if err != nil {
			m.log.ErrorContext(r.Context(), "session setup failed", "error", err)
			http.Error(w, "Session error", http.StatusInternalServerError)
			return
		}

		tw := &tokenWriter{ResponseWriter: w, emit: func() {
			if sess.destroyed {
				_ = m.transport.ClearToken(w)
				return
			}
			_ = m.transport.SetToken(w, sess.ID(), time.Until(sess.ExpiresAt()))
		}}

		next.ServeHTTP(tw, r.WithContext(WithSession(r.Context(), sess)))
		tw.commit()

		if err := m.Save(r.Context(), sess); err != nil {
			// The in-memory copy stays current; durability degrades until
			// the backend recovers.
			m.log.ErrorContext(r.Context(), "session save failed", "error", err)
		}
	})
}

// tokenWriter defers token emission until the response commits, so the
// identifier sent to the client reflects any rotation the handler performed
// before writing.
type tokenWriter struct {
	http.ResponseWriter
	emit    func()
	emitted bool
}

func (w *tokenWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *tokenWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *tokenWriter) commit() {
	if !w.emitted {
		w.emitted = true
		w.emit()
	}
}

// Unwrap supports http.ResponseController passthrough.
func (w *tokenWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
