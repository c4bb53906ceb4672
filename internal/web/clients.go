package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/clients"
	"github.com/erazemk/auberge/internal/model"
)

// ClientsPage handles GET /admin/clients (admin only).
func (s *Server) ClientsPage(w http.ResponseWriter, r *http.Request) {
	dir := clients.NewDirectory(GetViewer(r.Context()).Client)
	pd := pageData(w, r, "Clients")
	if err := dir.Load(r.Context()); err != nil {
		slog.Warn("failed to load users", "error", apiclient.Message(err))
		pd.Error = "Impossible de charger les clients."
	}

	q := r.URL.Query()
	s.Templates.Render(w, "clients.html", &struct {
		PageData
		Users []model.User
		Roles []string
		Query string
		Role  string
	}{
		PageData: pd,
		Users:    dir.Filter(q.Get("q"), q.Get("role")),
		Roles:    []string{model.RoleUser, model.RoleStaff, model.RoleAdmin},
		Query:    q.Get("q"),
		Role:     q.Get("role"),
	})
}
