package web

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginThrottle_BlocksAfterMax(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	th := NewLoginThrottle(ctx, 2, time.Minute)

	key := "10.0.0.1|staff@auberge.test"
	th.Fail(key)
	if th.Blocked(key) {
		t.Fatal("blocked after one failure")
	}
	th.Fail(key)
	if !th.Blocked(key) {
		t.Fatal("not blocked after two failures")
	}
	if th.Blocked("10.0.0.2|staff@auberge.test") {
		t.Fatal("another client is blocked")
	}

	th.Reset(key)
	if th.Blocked(key) {
		t.Fatal("still blocked after reset")
	}
}

func TestThrottleKey(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "192.0.2.7:51234"
	if got := throttleKey(r, "  Staff@Auberge.TEST "); got != "192.0.2.7|staff@auberge.test" {
		t.Errorf("throttleKey = %q", got)
	}
}

func TestLoadTemplates(t *testing.T) {
	ts, err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	for _, page := range []string{"login.html", "dashboard.html", "chat.html", "inventory.html"} {
		if _, ok := ts.templates[page]; !ok {
			t.Errorf("template %s not loaded", page)
		}
	}
}
