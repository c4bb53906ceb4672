// Package notify delivers Web Push notifications to the back-office staff
// that subscribed from their browser.
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/erazemk/auberge/internal/chat"
	"github.com/erazemk/auberge/internal/content"
	"github.com/erazemk/auberge/internal/metrics"
	"github.com/erazemk/auberge/internal/store"
)

// DefaultTTL is how long the push service keeps an undelivered notification.
const DefaultTTL = 3600

// ErrNotConfigured is returned when no VAPID key pair is available.
var ErrNotConfigured = errors.New("web push is not configured")

// Config holds the VAPID identity used to sign push requests.
type Config struct {
	PublicKey  string
	PrivateKey string
	Subscriber string // contact e-mail or https URL
	TTL        int
	HTTPClient *http.Client
}

// Payload is the JSON document the service worker receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Notifier sends payloads to every stored subscription.
type Notifier struct {
	db  *sql.DB
	cfg Config
}

// New creates a notifier. Without a key pair every send fails with
// ErrNotConfigured.
func New(db *sql.DB, cfg Config) *Notifier {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Notifier{db: db, cfg: cfg}
}

// Enabled reports whether a VAPID key pair is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.PublicKey != "" && n.cfg.PrivateKey != ""
}

// PublicKey returns the application server key browsers subscribe with.
func (n *Notifier) PublicKey() string {
	return n.cfg.PublicKey
}

// Subscribe stores a browser subscription.
func (n *Notifier) Subscribe(ctx context.Context, sub store.PushSubscription) error {
	if sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
		return fmt.Errorf("incomplete subscription")
	}
	return store.SavePushSubscription(ctx, n.db, sub)
}

// Unsubscribe forgets a browser subscription.
func (n *Notifier) Unsubscribe(ctx context.Context, endpoint string) error {
	return store.DeletePushSubscription(ctx, n.db, endpoint)
}

// Notify sends p to every subscription and returns how many deliveries the
// push services accepted. Subscriptions reported gone are deleted.
func (n *Notifier) Notify(ctx context.Context, p Payload) (int, error) {
	if !n.Enabled() {
		return 0, ErrNotConfigured
	}

	body, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("encoding payload: %w", err)
	}

	subs, err := store.ListPushSubscriptions(ctx, n.db)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range subs {
		outcome := n.send(ctx, body, sub)
		metrics.IncrementPush(outcome)
		if outcome == "sent" {
			sent++
		}
	}
	return sent, nil
}

func (n *Notifier) send(ctx context.Context, body []byte, sub store.PushSubscription) string {
	opts := &webpush.Options{
		Subscriber:      n.cfg.Subscriber,
		VAPIDPublicKey:  n.cfg.PublicKey,
		VAPIDPrivateKey: n.cfg.PrivateKey,
		TTL:             n.cfg.TTL,
		Urgency:         webpush.UrgencyHigh,
	}
	if n.cfg.HTTPClient != nil {
		opts.HTTPClient = n.cfg.HTTPClient
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, opts)
	if err != nil {
		slog.Warn("push delivery failed", "endpoint", sub.Endpoint, "error", err)
		return "error"
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if err := store.DeletePushSubscription(ctx, n.db, sub.Endpoint); err != nil {
			slog.Error("deleting expired push subscription", "error", err)
		}
		slog.Info("push subscription expired", "email", sub.Email, "status", resp.StatusCode)
		return "expired"
	case resp.StatusCode >= 300:
		slog.Warn("push service rejected notification", "endpoint", sub.Endpoint, "status", resp.StatusCode)
		return "rejected"
	}
	return "sent"
}

// ChatAlerts turns monitor alerts into one notification per conversation.
// It matches the chat.Monitor callback signature.
func (n *Notifier) ChatAlerts(ctx context.Context, alerts []chat.Alert) {
	for _, a := range alerts {
		if _, err := n.Notify(ctx, ChatPayload(a)); err != nil {
			slog.Warn("notifying chat alert", "conversation", a.Conversation.ID, "error", err)
			return
		}
	}
}

// ChatPayload builds the notification for a chat alert.
func ChatPayload(a chat.Alert) Payload {
	who := a.Conversation.UserName
	if who == "" {
		who = a.Conversation.UserEmail
	}
	title := fmt.Sprintf("Nouveau message de %s", who)
	if a.New > 1 {
		title = fmt.Sprintf("%d nouveaux messages de %s", a.New, who)
	}
	return Payload{
		Title: title,
		Body:  content.Excerpt(a.Conversation.LastMessage, 120),
		URL:   fmt.Sprintf("/admin/chat?conversation=%d", a.Conversation.ID),
		Tag:   fmt.Sprintf("conversation-%d", a.Conversation.ID),
	}
}
