package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/auberge/internal/db"
)

func newSession(id string, expires time.Time) Session {
	return Session{
		ID:          id,
		UserID:      7,
		Email:       "ana@auberge.test",
		Name:        "Ana",
		Role:        "staff",
		SealedToken: []byte{1, 2, 3},
		ExpiresAt:   expires,
	}
}

func TestSession_CreateGetDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := CreateSession(ctx, database, newSession("s1", time.Now().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	s, err := GetSession(ctx, database, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Email != "ana@auberge.test" || s.Role != "staff" || s.UserID != 7 {
		t.Fatalf("unexpected session %+v", s)
	}
	if string(s.SealedToken) != string([]byte{1, 2, 3}) {
		t.Fatalf("sealed token = %v", s.SealedToken)
	}

	if err := TouchSession(ctx, database, "s1"); err != nil {
		t.Fatal(err)
	}

	if err := DeleteSession(ctx, database, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := GetSession(ctx, database, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSession_RejectsUnknownRole(t *testing.T) {
	database := db.NewTestDB(t)

	s := newSession("s1", time.Now().Add(time.Hour))
	s.Role = "owner"
	if err := CreateSession(context.Background(), database, s); err == nil {
		t.Fatal("expected check constraint failure")
	}
}

func TestSession_ExpiredIsNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := CreateSession(ctx, database, newSession("old", time.Now().Add(-time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := CreateSession(ctx, database, newSession("new", time.Now().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	if _, err := GetSession(ctx, database, "old"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	n, err := DeleteExpiredSessions(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("deleted %d sessions, want 1", n)
	}
	if _, err := GetSession(ctx, database, "new"); err != nil {
		t.Fatalf("live session removed: %v", err)
	}
}
