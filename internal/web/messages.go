package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/inbox"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

// MessagesPage handles GET /admin/messages.
func (s *Server) MessagesPage(w http.ResponseWriter, r *http.Request) {
	box := inbox.New(GetViewer(r.Context()).Client)
	pd := pageData(w, r, "Messages")
	if err := box.Load(r.Context(), loader.Visible); err != nil {
		slog.Warn("failed to load contact messages", "error", apiclient.Message(err))
		pd.Error = "Impossible de charger les messages."
	}

	q := r.URL.Query()
	s.Templates.Render(w, "messages.html", &struct {
		PageData
		Messages   []model.ContactMessage
		Unread     int
		Query      string
		UnreadOnly bool
	}{
		PageData:   pd,
		Messages:   box.Filter(q.Get("q"), q.Get("unread") == "1"),
		Unread:     box.Unread(),
		Query:      q.Get("q"),
		UnreadOnly: q.Get("unread") == "1",
	})
}

// MessageReadSubmit handles POST /admin/messages/{id}/read.
func (s *Server) MessageReadSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := inbox.New(GetViewer(r.Context()).Client).MarkRead(r.Context(), id); err != nil {
		slog.Warn("failed to mark message read", "message", id, "error", apiclient.Message(err))
		done(w, r, "/admin/messages", err, "")
		return
	}
	done(w, r, "/admin/messages", nil, "")
}
