package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/auberge/internal/store"
)

// jsonResponse writes v as JSON with the given status.
func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}

// PushKey handles GET /admin/push/key.
func (s *Server) PushKey(w http.ResponseWriter, r *http.Request) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		jsonError(w, http.StatusNotFound, "push notifications are disabled")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"public_key": s.Notifier.PublicKey()})
}

// pushSubscription is the browser's PushSubscription.toJSON().
type pushSubscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// PushSubscribe handles POST /admin/push/subscribe.
func (s *Server) PushSubscribe(w http.ResponseWriter, r *http.Request) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		jsonError(w, http.StatusNotFound, "push notifications are disabled")
		return
	}

	var req pushSubscription
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid subscription")
		return
	}

	viewer := GetViewer(r.Context())
	err := s.Notifier.Subscribe(r.Context(), store.PushSubscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
		UserID:   viewer.Session.UserID,
		Email:    viewer.Session.Email,
	})
	if err != nil {
		slog.Warn("failed to save push subscription", "error", err)
		jsonError(w, http.StatusBadRequest, "invalid subscription")
		return
	}
	slog.Info("push subscription saved", "user", viewer.Session.Email)
	w.WriteHeader(http.StatusNoContent)
}

// PushUnsubscribe handles POST /admin/push/unsubscribe.
func (s *Server) PushUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req pushSubscription
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&req); err != nil || req.Endpoint == "" {
		jsonError(w, http.StatusBadRequest, "invalid subscription")
		return
	}
	if s.Notifier == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.Notifier.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		slog.Error("failed to delete push subscription", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
