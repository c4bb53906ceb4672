package web

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/auth"
	"github.com/erazemk/auberge/internal/metrics"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/store"
)

const sessionCookie = "session"

type webContextKey string

const viewerKey webContextKey = "viewer"

// Viewer is the signed-in staff member of a request.
type Viewer struct {
	Session  *store.Session
	Identity model.Identity
	// Client talks to the backend with the viewer's own bearer token.
	Client *apiclient.Client
}

// User returns the identity's user.
func (v *Viewer) User() *model.User {
	return v.Identity.User
}

// RequireRoles validates the session cookie, resolves the server-side
// session and asks the auth gate whether the backend identity may see the
// page. Every denial redirects to the login page.
func (s *Server) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func(reason string, clear bool) {
				slog.Info("access denied", "path", r.URL.Path, "reason", reason)
				if clear {
					clearAuthCookie(w)
				}
				http.Redirect(w, r, auth.LoginRedirect("/login", r.URL.RequestURI()), http.StatusSeeOther)
			}

			cookie, err := r.Cookie(sessionCookie)
			if err != nil || cookie.Value == "" {
				deny("no session cookie", false)
				return
			}

			claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value)
			if err != nil {
				deny("invalid session cookie", true)
				return
			}

			sess, err := store.GetSession(r.Context(), s.DB, claims.SessionID())
			if err != nil {
				if !errors.Is(err, store.ErrSessionNotFound) {
					slog.Error("failed to load session", "error", err)
				}
				deny("unknown session", true)
				return
			}

			bearer, err := s.Sealer.Open(sess.SealedToken)
			if err != nil {
				slog.Error("failed to unseal backend token", "session", sess.ID, "error", err)
				deny("unreadable session", true)
				return
			}

			gate := auth.Gate{Checker: s.API, Allowed: roles}
			decision := gate.Check(r.Context(), string(bearer))
			if !decision.Allowed {
				switch decision.Reason {
				case auth.ReasonUnauthenticated:
					if err := store.DeleteSession(r.Context(), s.DB, sess.ID); err != nil {
						slog.Error("failed to delete session", "error", err)
					}
					deny(string(decision.Reason), true)
				case auth.ReasonCheckFailed:
					slog.Warn("auth check failed", "error", apiclient.Message(decision.Err))
					deny(string(decision.Reason), false)
				default:
					deny(string(decision.Reason), false)
				}
				return
			}

			if err := store.TouchSession(r.Context(), s.DB, sess.ID); err != nil {
				slog.Error("failed to touch session", "error", err)
			}

			viewer := &Viewer{
				Session:  sess,
				Identity: decision.Identity,
				Client:   s.API.WithToken(string(bearer)),
			}
			ctx := context.WithValue(r.Context(), viewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetViewer retrieves the signed-in staff member from the request context.
func GetViewer(ctx context.Context) *Viewer {
	v, _ := ctx.Value(viewerKey).(*Viewer)
	return v
}

// clearAuthCookie clears the session cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the flusher and hijacker.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to the chat socket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, rec.status, elapsed)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", elapsed.Round(time.Millisecond),
		)
	})
}
