package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/auth"
	"github.com/erazemk/auberge/internal/db"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/store"
)

const testJWTSecret = "test-secret"

var backendUsers = map[string]model.User{
	"tok-admin": {ID: 1, Email: "admin@auberge.test", Name: "Alice", Role: model.RoleAdmin},
	"tok-staff": {ID: 2, Email: "staff@auberge.test", Name: "Bruno", Role: model.RoleStaff},
	"tok-user":  {ID: 3, Email: "guest@auberge.test", Name: "Chloé", Role: model.RoleUser},
}

// fakeBackend answers the handful of endpoints the router tests touch.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	tokenFor := map[string]string{
		"admin@auberge.test": "tok-admin",
		"staff@auberge.test": "tok-staff",
		"guest@auberge.test": "tok-user",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		tok, ok := tokenFor[req.Email]
		if !ok || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"identifiants invalides"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"token": tok, "user": backendUsers[tok]})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		u, ok := backendUsers[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(u)
	})
	mux.HandleFunc("GET /admin/users", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]model.User{backendUsers["tok-admin"], backendUsers["tok-user"]})
	})
	mux.HandleFunc("GET /admin/messages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":7,"name":"Denis","email":"denis@example.com","subject":"Parking","body":"Y a-t-il un **parking** ?","is_read":false}]}`)
	})
	mux.HandleFunc("PATCH /admin/messages/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"message introuvable"}`)
	})
	mux.HandleFunc("GET /chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":5,"user_id":3,"user_name":"Chloé","status":"active","unread_admin":1,"last_message":"Bonjour"}]`)
	})
	mux.HandleFunc("GET /chat/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":11,"conversation_id":5,"sender_id":3,"sender_role":"user","content":"Bonjour"}]`)
	})
	mux.HandleFunc("PATCH /chat/conversations/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
}

func setupTestServer(t *testing.T, maxAttempts int) *testEnv {
	t.Helper()
	backend := fakeBackend(t)
	database := db.NewTestDB(t)

	key, err := auth.GenerateKey()
	require.NoError(t, err)
	sealer, err := auth.NewSealer(key)
	require.NoError(t, err)
	api, err := apiclient.New(apiclient.Config{BaseURL: backend.URL, HotelID: "1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router, err := NewRouter(ctx, Config{
		DB:               database,
		JWTSecret:        testJWTSecret,
		Sealer:           sealer,
		API:              api,
		Polling:          Polling{Chat: time.Hour, Conversations: time.Hour, Dashboard: time.Hour},
		LoginMaxAttempts: maxAttempts,
		LoginLockout:     time.Minute,
	})
	require.NoError(t, err)

	server := httptest.NewServer(LoggingMiddleware(router))
	t.Cleanup(server.Close)
	return &testEnv{
		server: server,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (e *testEnv) login(t *testing.T, email, password, redirect string) *http.Response {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}, "redirect": {redirect}}
	resp, err := e.client.PostForm(e.server.URL+"/login", form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	env := setupTestServer(t, 5)

	resp := env.get(t, "/admin/projects")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?redirect=/admin/projects", resp.Header.Get("Location"))
}

func TestForgedCookieIsCleared(t *testing.T) {
	env := setupTestServer(t, 5)

	forged, err := auth.GenerateToken("other-secret", "sid", "x@y.z", "X", model.RoleAdmin)
	require.NoError(t, err)
	resp := env.get(t, "/admin", &http.Cookie{Name: sessionCookie, Value: forged})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	if c := cookieNamed(resp, sessionCookie); assert.NotNil(t, c) {
		assert.Equal(t, "", c.Value)
	}
}

func TestLoginFlow(t *testing.T) {
	env := setupTestServer(t, 5)

	resp := env.login(t, "staff@auberge.test", "secret", "/admin/messages")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/messages", resp.Header.Get("Location"))
	session := cookieNamed(resp, sessionCookie)
	require.NotNil(t, session)

	resp = env.get(t, "/admin/messages", session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Parking")
	assert.Contains(t, page, "<strong>parking</strong>")
	assert.Contains(t, page, "Bruno")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := setupTestServer(t, 5)

	resp := env.login(t, "staff@auberge.test", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, cookieNamed(resp, sessionCookie))
	assert.Contains(t, body(t, resp), "E-mail ou mot de passe incorrect.")
}

func TestLoginRejectsCustomers(t *testing.T) {
	env := setupTestServer(t, 5)

	resp := env.login(t, "guest@auberge.test", "secret", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, cookieNamed(resp, sessionCookie))
}

func TestLoginThrottle(t *testing.T) {
	env := setupTestServer(t, 2)

	env.login(t, "staff@auberge.test", "wrong", "")
	env.login(t, "staff@auberge.test", "wrong", "")
	resp := env.login(t, "staff@auberge.test", "secret", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Another account from the same client is not affected.
	resp = env.login(t, "admin@auberge.test", "secret", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLoginIgnoresForeignRedirect(t *testing.T) {
	env := setupTestServer(t, 5)

	resp := env.login(t, "staff@auberge.test", "secret", "https://evil.example/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
}

func TestClientsPageIsAdminOnly(t *testing.T) {
	env := setupTestServer(t, 5)

	staff := cookieNamed(env.login(t, "staff@auberge.test", "secret", ""), sessionCookie)
	require.NotNil(t, staff)
	resp := env.get(t, "/admin/clients", staff)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?redirect=/admin/clients", resp.Header.Get("Location"))

	admin := cookieNamed(env.login(t, "admin@auberge.test", "secret", ""), sessionCookie)
	require.NotNil(t, admin)
	resp = env.get(t, "/admin/clients?role=user", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "guest@auberge.test")
	assert.NotContains(t, page, "mailto:admin@auberge.test")
}

func TestLogoutEndsSession(t *testing.T) {
	env := setupTestServer(t, 5)

	session := cookieNamed(env.login(t, "staff@auberge.test", "secret", ""), sessionCookie)
	require.NotNil(t, session)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/logout", nil)
	require.NoError(t, err)
	req.AddCookie(session)
	resp, err := env.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// The old cookie no longer names a session.
	resp = env.get(t, "/admin/messages", session)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestMutationFailureIsFlashed(t *testing.T) {
	env := setupTestServer(t, 5)

	session := cookieNamed(env.login(t, "staff@auberge.test", "secret", ""), sessionCookie)
	require.NotNil(t, session)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/admin/messages/7/read", nil)
	require.NoError(t, err)
	req.AddCookie(session)
	resp, err := env.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	flash := cookieNamed(resp, flashCookie)
	require.NotNil(t, flash)

	resp = env.get(t, "/admin/messages", session, flash)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "message introuvable")
}

func TestChatSocketSendsSnapshots(t *testing.T) {
	env := setupTestServer(t, 5)

	session := cookieNamed(env.login(t, "staff@auberge.test", "secret", ""), sessionCookie)
	require.NotNil(t, session)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/admin/chat/ws"
	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: session.Name, Value: session.Value}).String())
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	next := func(match func(chatFrame) bool) chatFrame {
		t.Helper()
		for {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
			var f chatFrame
			require.NoError(t, conn.ReadJSON(&f))
			if match(f) {
				return f
			}
		}
	}

	f := next(func(f chatFrame) bool { return len(f.Conversations) == 1 })
	assert.Equal(t, int64(5), f.Conversations[0].ID)

	require.NoError(t, conn.WriteJSON(chatCommand{Type: "select", ConversationID: 5}))
	f = next(func(f chatFrame) bool { return f.Selected == 5 && len(f.Messages) == 1 })
	assert.Equal(t, "Bonjour", strings.TrimSpace(stripTags(f.Messages[0].HTML)))
	assert.False(t, f.Messages[0].FromStaff)
}

func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>':
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestBadgeClass(t *testing.T) {
	got := badgeClass("project", model.ProjectInProgress, model.Badge{Label: "En cours", Tone: "info"})
	assert.Equal(t, "badge badge-project-in-progress tone-info", got)
}

func TestSessionsAreStoredSealed(t *testing.T) {
	database := db.NewTestDB(t)
	key, err := auth.GenerateKey()
	require.NoError(t, err)
	sealer, err := auth.NewSealer(key)
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("tok-staff"))
	require.NoError(t, err)
	require.NoError(t, store.CreateSession(context.Background(), database, store.Session{
		ID: "s1", UserID: 2, Email: "staff@auberge.test", Role: model.RoleStaff,
		SealedToken: sealed, ExpiresAt: time.Now().Add(time.Hour),
	}))

	sess, err := store.GetSession(context.Background(), database, "s1")
	require.NoError(t, err)
	assert.NotContains(t, string(sess.SealedToken), "tok-staff")
	plain, err := sealer.Open(sess.SealedToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-staff", string(plain))
}
