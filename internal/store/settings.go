package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Setting keys.
const (
	KeyJWTSecret    = "jwt_secret"
	KeySealKey      = "seal_key"
	KeyVAPIDPublic  = "vapid_public_key"
	KeyVAPIDPrivate = "vapid_private_key"
)

// GetJWTSecret retrieves the session cookie signing secret, generating and
// storing one on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return getOrCreateSecret(ctx, db, KeyJWTSecret)
}

// GetSealKey retrieves the key that encrypts backend tokens at rest,
// generating and storing one on first use.
func GetSealKey(ctx context.Context, db *sql.DB) (string, error) {
	return getOrCreateSecret(ctx, db, KeySealKey)
}

// getOrCreateSecret uses INSERT OR IGNORE + re-SELECT to avoid a TOCTOU race
// on concurrent startup.
func getOrCreateSecret(ctx context.Context, db *sql.DB, key string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}
	return getOrCreate(ctx, db, key, hex.EncodeToString(buf))
}

func getOrCreate(ctx context.Context, db *sql.DB, key, candidate string) (string, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}

// GetSetting returns a setting, or "" if it is unset.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting, replacing any previous value.
func SetSetting(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// GetVAPIDKeys returns the stored Web Push key pair. When none is stored,
// generate is called once and its keys persisted.
func GetVAPIDKeys(ctx context.Context, db *sql.DB, generate func() (private, public string, err error)) (public, private string, err error) {
	private, err = GetSetting(ctx, db, KeyVAPIDPrivate)
	if err != nil {
		return "", "", err
	}
	public, err = GetSetting(ctx, db, KeyVAPIDPublic)
	if err != nil {
		return "", "", err
	}
	if private != "" && public != "" {
		return public, private, nil
	}

	candPriv, candPub, err := generate()
	if err != nil {
		return "", "", fmt.Errorf("generating vapid keys: %w", err)
	}
	if private, err = getOrCreate(ctx, db, KeyVAPIDPrivate, candPriv); err != nil {
		return "", "", err
	}
	if public, err = getOrCreate(ctx, db, KeyVAPIDPublic, candPub); err != nil {
		return "", "", err
	}
	return public, private, nil
}
