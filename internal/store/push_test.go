package store

import (
	"context"
	"testing"

	"github.com/erazemk/auberge/internal/db"
)

func TestPushSubscription_UpsertListDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	sub := PushSubscription{Endpoint: "https://push.test/a", P256dh: "k1", Auth: "a1", UserID: 1, Email: "a@test"}
	if err := SavePushSubscription(ctx, database, sub); err != nil {
		t.Fatal(err)
	}
	sub.P256dh = "k2"
	if err := SavePushSubscription(ctx, database, sub); err != nil {
		t.Fatal(err)
	}
	if err := SavePushSubscription(ctx, database, PushSubscription{Endpoint: "https://push.test/b", P256dh: "k", Auth: "a", UserID: 2}); err != nil {
		t.Fatal(err)
	}

	subs, err := ListPushSubscriptions(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
	if subs[0].P256dh != "k2" {
		t.Fatalf("upsert did not replace keys: %+v", subs[0])
	}

	if err := DeletePushSubscription(ctx, database, "https://push.test/a"); err != nil {
		t.Fatal(err)
	}
	if err := DeleteUserPushSubscriptions(ctx, database, 2); err != nil {
		t.Fatal(err)
	}
	subs, err = ListPushSubscriptions(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected no subscriptions, got %d", len(subs))
	}
}
