package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session is a signed-in back-office user. SealedToken is the backend
// bearer token encrypted with the server's seal key.
type Session struct {
	ID          string
	UserID      int64
	Email       string
	Name        string
	Role        string
	SealedToken []byte
	CreatedAt   time.Time
	LastSeenAt  time.Time
	ExpiresAt   time.Time
}

// CreateSession stores a new session.
func CreateSession(ctx context.Context, db *sql.DB, s Session) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, email, name, role, sealed_token, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Email, s.Name, s.Role, s.SealedToken, s.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// GetSession returns a live session by id.
func GetSession(ctx context.Context, db *sql.DB, id string) (*Session, error) {
	s := &Session{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, email, name, role, sealed_token, created_at, last_seen_at, expires_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.Email, &s.Name, &s.Role, &s.SealedToken, &s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if !s.ExpiresAt.After(time.Now()) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// TouchSession records activity on a session.
func TouchSession(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// DeleteSession removes a session. Deleting an unknown session is not an error.
func DeleteSession(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and reports how many.
func DeleteExpiredSessions(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
