package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auberge/internal/model"
)

type fakeChecker struct {
	identity model.Identity
	err      error
	calls    int
}

func (f *fakeChecker) CheckAuth(ctx context.Context, token string) (model.Identity, error) {
	f.calls++
	return f.identity, f.err
}

func identity(role string) model.Identity {
	return model.Identity{Authenticated: true, User: &model.User{ID: 1, Role: role}}
}

func TestGateCheck(t *testing.T) {
	tests := []struct {
		name    string
		checker *fakeChecker
		token   string
		allowed bool
		reason  Reason
	}{
		{"admin allowed", &fakeChecker{identity: identity(model.RoleAdmin)}, "t", true, ReasonOK},
		{"staff allowed", &fakeChecker{identity: identity(model.RoleStaff)}, "t", true, ReasonOK},
		{"customer forbidden", &fakeChecker{identity: identity(model.RoleUser)}, "t", false, ReasonForbidden},
		{"not authenticated", &fakeChecker{}, "t", false, ReasonUnauthenticated},
		{"check error", &fakeChecker{err: errors.New("network down")}, "t", false, ReasonCheckFailed},
		{"no token", &fakeChecker{identity: identity(model.RoleAdmin)}, "", false, ReasonUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Gate{Checker: tt.checker, Allowed: model.BackOffice}
			d := g.Check(context.Background(), tt.token)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestGateChecksOnce(t *testing.T) {
	c := &fakeChecker{err: errors.New("timeout")}
	Gate{Checker: c, Allowed: model.BackOffice}.Check(context.Background(), "t")
	assert.Equal(t, 1, c.calls)
}

func TestLoginRedirect(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"/admin/projects", "/login?redirect=/admin/projects"},
		{"/admin/orders?status=pending", "/login?redirect=/admin/orders%3Fstatus%3Dpending"},
		{"", "/login"},
		{"/login", "/login"},
		{"//evil.example", "/login"},
		{"https://evil.example/", "/login"},
	}

	for _, tt := range tests {
		if got := LoginRedirect("/login", tt.current); got != tt.want {
			t.Errorf("LoginRedirect(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/admin/projects", "/admin/projects"},
		{"/admin/orders?status=pending", "/admin/orders?status=pending"},
		{"//evil.example", "/admin"},
		{"/\\evil.example", "/admin"},
		{"https://evil.example", "/admin"},
		{"admin", "/admin"},
		{"", "/admin"},
	}

	for _, tt := range tests {
		if got := SafeRedirect(tt.target, "/admin"); got != tt.want {
			t.Errorf("SafeRedirect(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestSealRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	s, err := NewSealer(key)
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("backend-token"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, []byte("backend-token")))

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "backend-token", string(opened))

	sealed[len(sealed)-1] ^= 0xff
	_, err = s.Open(sealed)
	assert.ErrorIs(t, err, ErrUnseal)

	_, err = s.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrUnseal)
}

func TestNewSealerRejectsBadKeys(t *testing.T) {
	_, err := NewSealer("zz")
	assert.Error(t, err)
	_, err = NewSealer("abcd")
	assert.Error(t, err)
}
