package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auberge/internal/chat"
	"github.com/erazemk/auberge/internal/db"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/store"
)

func browserKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

func TestNotify_DeliversAndPrunesGoneSubscriptions(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "vapid "))
		if strings.HasSuffix(r.URL.Path, "/gone") {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	database := db.NewTestDB(t)
	ctx := context.Background()

	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	n := New(database, Config{PublicKey: pub, PrivateKey: priv, Subscriber: "ops@auberge.test"})

	for _, path := range []string{"/ok", "/gone"} {
		p256dh, auth := browserKeys(t)
		require.NoError(t, n.Subscribe(ctx, store.PushSubscription{
			Endpoint: srv.URL + path, P256dh: p256dh, Auth: auth, UserID: 1,
		}))
	}

	sent, err := n.Notify(ctx, Payload{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(2), hits.Load())

	subs, err := store.ListPushSubscriptions(ctx, database)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, srv.URL+"/ok", subs[0].Endpoint)
}

func TestNotify_NotConfigured(t *testing.T) {
	n := New(db.NewTestDB(t), Config{})
	assert.False(t, n.Enabled())
	_, err := n.Notify(context.Background(), Payload{Title: "t"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSubscribe_RejectsIncomplete(t *testing.T) {
	n := New(db.NewTestDB(t), Config{})
	err := n.Subscribe(context.Background(), store.PushSubscription{Endpoint: "https://push.test/x"})
	assert.Error(t, err)
}

func TestChatPayload(t *testing.T) {
	p := ChatPayload(chat.Alert{
		Conversation: model.Conversation{ID: 12, UserName: "Léa", LastMessage: "Bonjour,\n  une chambre ?"},
		New:          2,
	})
	assert.Equal(t, "2 nouveaux messages de Léa", p.Title)
	assert.Equal(t, "Bonjour, une chambre ?", p.Body)
	assert.Equal(t, "/admin/chat?conversation=12", p.URL)
	assert.Equal(t, "conversation-12", p.Tag)

	p = ChatPayload(chat.Alert{Conversation: model.Conversation{ID: 3, UserEmail: "x@test"}, New: 1})
	assert.Equal(t, "Nouveau message de x@test", p.Title)
}
