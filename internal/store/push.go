package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PushSubscription is a browser endpoint registered for Web Push.
type PushSubscription struct {
	ID        int64
	Endpoint  string
	P256dh    string
	Auth      string
	UserID    int64
	Email     string
	CreatedAt time.Time
}

// SavePushSubscription registers an endpoint, replacing the keys and owner
// of an already known endpoint.
func SavePushSubscription(ctx context.Context, db *sql.DB, sub PushSubscription) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (endpoint, p256dh, auth, user_id, email)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET
		     p256dh = excluded.p256dh,
		     auth = excluded.auth,
		     user_id = excluded.user_id,
		     email = excluded.email`,
		sub.Endpoint, sub.P256dh, sub.Auth, sub.UserID, sub.Email,
	)
	if err != nil {
		return fmt.Errorf("saving push subscription: %w", err)
	}
	return nil
}

// ListPushSubscriptions returns every registered endpoint.
func ListPushSubscriptions(ctx context.Context, db *sql.DB) ([]PushSubscription, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, endpoint, p256dh, auth, user_id, email, created_at
		 FROM push_subscriptions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []PushSubscription
	for rows.Next() {
		var s PushSubscription
		if err := rows.Scan(&s.ID, &s.Endpoint, &s.P256dh, &s.Auth, &s.UserID, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning push subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// DeletePushSubscription removes an endpoint, e.g. after the push service
// reported it gone.
func DeletePushSubscription(ctx context.Context, db *sql.DB, endpoint string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return fmt.Errorf("deleting push subscription: %w", err)
	}
	return nil
}

// DeleteUserPushSubscriptions removes every endpoint of a user.
func DeleteUserPushSubscriptions(ctx context.Context, db *sql.DB, userID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting push subscriptions of user %d: %w", userID, err)
	}
	return nil
}
