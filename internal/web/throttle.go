package web

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/c-pro/geche"
)

// LoginThrottle counts failed logins per client and e-mail. Counters expire
// lockout after the last failure.
type LoginThrottle struct {
	max      int
	failures *geche.Locker[string, int]
}

// NewLoginThrottle creates a throttle. The cache cleanup goroutine stops
// when ctx ends.
func NewLoginThrottle(ctx context.Context, maxAttempts int, lockout time.Duration) *LoginThrottle {
	return &LoginThrottle{
		max:      maxAttempts,
		failures: geche.NewLocker[string, int](geche.NewMapTTLCache[string, int](ctx, lockout, time.Minute)),
	}
}

func throttleKey(r *http.Request, email string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host + "|" + strings.ToLower(strings.TrimSpace(email))
}

// Blocked reports whether the client used up its attempts.
func (t *LoginThrottle) Blocked(key string) bool {
	tx := t.failures.RLock()
	defer tx.Unlock()
	n, err := tx.Get(key)
	return err == nil && n >= t.max
}

// Fail records a failed attempt.
func (t *LoginThrottle) Fail(key string) {
	tx := t.failures.Lock()
	defer tx.Unlock()
	n, _ := tx.Get(key)
	tx.Set(key, n+1)
}

// Reset forgets the failures of a client after a successful login.
func (t *LoginThrottle) Reset(key string) {
	tx := t.failures.Lock()
	defer tx.Unlock()
	_ = tx.Del(key)
}
