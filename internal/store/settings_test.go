package store

import (
	"context"
	"testing"

	"github.com/erazemk/auberge/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestGetSealKey_IndependentOfJWTSecret(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	jwtSecret, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	sealKey, err := GetSealKey(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if sealKey == jwtSecret {
		t.Fatal("seal key must differ from jwt secret")
	}
}

func TestSetting_RoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetSetting(ctx, database, "missing")
	if err != nil || v != "" {
		t.Fatalf("GetSetting(missing) = %q, %v", v, err)
	}

	if err := SetSetting(ctx, database, "k", "one"); err != nil {
		t.Fatal(err)
	}
	if err := SetSetting(ctx, database, "k", "two"); err != nil {
		t.Fatal(err)
	}
	v, err = GetSetting(ctx, database, "k")
	if err != nil || v != "two" {
		t.Fatalf("GetSetting(k) = %q, %v", v, err)
	}
}

func TestGetVAPIDKeys_GeneratesOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	calls := 0
	gen := func() (string, string, error) {
		calls++
		return "priv", "pub", nil
	}

	pub, priv, err := GetVAPIDKeys(ctx, database, gen)
	if err != nil {
		t.Fatal(err)
	}
	if pub != "pub" || priv != "priv" {
		t.Fatalf("got pub=%q priv=%q", pub, priv)
	}

	if _, _, err := GetVAPIDKeys(ctx, database, gen); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("generator called %d times, want 1", calls)
	}
}
