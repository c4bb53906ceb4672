package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/auth"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/store"
)

type loginPage struct {
	PageData
	Email    string
	Redirect string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &loginPage{
		PageData: PageData{Title: "Connexion", Path: r.URL.Path},
		Redirect: auth.SafeRedirect(r.URL.Query().Get("redirect"), ""),
	})
}

// LoginSubmit handles POST /login. The credentials go to the backend; only
// back-office roles get a session.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	redirect := auth.SafeRedirect(r.FormValue("redirect"), "")

	fail := func(status int, msg string) {
		s.Templates.RenderStatus(w, status, "login.html", &loginPage{
			PageData: PageData{Title: "Connexion", Path: "/login", Error: msg},
			Email:    email,
			Redirect: redirect,
		})
	}

	if email == "" || password == "" {
		fail(http.StatusBadRequest, "Saisissez votre e-mail et votre mot de passe.")
		return
	}

	key := throttleKey(r, email)
	if s.Throttle.Blocked(key) {
		slog.Warn("login throttled", "email", email)
		fail(http.StatusTooManyRequests, "Trop de tentatives. Réessayez plus tard.")
		return
	}

	resp, err := s.API.Login(r.Context(), email, password)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			s.Throttle.Fail(key)
			fail(http.StatusUnauthorized, "E-mail ou mot de passe incorrect.")
			return
		}
		slog.Error("login request failed", "error", err)
		fail(http.StatusBadGateway, "Le serveur est injoignable. Réessayez.")
		return
	}

	bearer := resp.BearerToken()
	user := resp.User
	if user.ID == 0 {
		user, err = s.API.WithToken(bearer).Me(r.Context())
		if err != nil {
			slog.Error("failed to load user after login", "error", err)
			fail(http.StatusBadGateway, "Erreur lors de la connexion.")
			return
		}
	}
	if !model.RoleIn(user.Role, model.BackOffice...) {
		slog.Warn("login refused for role", "email", email, "role", user.Role)
		fail(http.StatusForbidden, "Accès réservé au personnel.")
		return
	}

	sealed, err := s.Sealer.Seal([]byte(bearer))
	if err != nil {
		slog.Error("failed to seal backend token", "error", err)
		fail(http.StatusInternalServerError, "Erreur lors de la connexion.")
		return
	}

	sessionID := auth.NewSessionID()
	err = store.CreateSession(r.Context(), s.DB, store.Session{
		ID:          sessionID,
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		SealedToken: sealed,
		ExpiresAt:   time.Now().Add(auth.TokenExpiry),
	})
	if err != nil {
		slog.Error("failed to create session", "error", err)
		fail(http.StatusInternalServerError, "Erreur lors de la connexion.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, sessionID, user.Email, user.Name, user.Role)
	if err != nil {
		slog.Error("failed to sign session cookie", "error", err)
		fail(http.StatusInternalServerError, "Erreur lors de la connexion.")
		return
	}

	s.Throttle.Reset(key)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})

	slog.Info("user logged in", "email", user.Email, "role", user.Role)
	http.Redirect(w, r, auth.SafeRedirect(redirect, "/admin"), http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			// Signing out also stops chat alerts to this user's browsers.
			if sess, err := store.GetSession(r.Context(), s.DB, claims.SessionID()); err == nil {
				if err := store.DeleteUserPushSubscriptions(r.Context(), s.DB, sess.UserID); err != nil {
					slog.Error("failed to delete push subscriptions", "error", err)
				}
			}
			if err := store.DeleteSession(r.Context(), s.DB, claims.SessionID()); err != nil {
				slog.Error("failed to delete session", "error", err)
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
