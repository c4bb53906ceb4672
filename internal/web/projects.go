package web

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/projects"
	"github.com/erazemk/auberge/internal/uploads"
)

// pathID parses a numeric path segment.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// ProjectsPage handles GET /admin/projects.
func (s *Server) ProjectsPage(w http.ResponseWriter, r *http.Request) {
	board := projects.NewBoard(GetViewer(r.Context()).Client)
	pd := pageData(w, r, "Projets")
	if err := board.Load(r.Context(), loader.Visible); err != nil {
		slog.Warn("failed to load projects", "error", apiclient.Message(err))
		pd.Error = "Impossible de charger les projets."
	}

	q := r.URL.Query()
	s.Templates.Render(w, "projects.html", &struct {
		PageData
		Projects []model.Project
		Statuses []string
		Query    string
		Status   string
	}{
		PageData: pd,
		Projects: board.Filter(q.Get("q"), q.Get("status")),
		Statuses: model.ProjectStatuses,
		Query:    q.Get("q"),
		Status:   q.Get("status"),
	})
}

// ProjectDetailPage handles GET /admin/projects/{id}.
func (s *Server) ProjectDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	board := projects.NewBoard(GetViewer(r.Context()).Client)
	project, err := board.LoadOne(r.Context(), id)
	if apiclient.IsNotFound(err) {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}
	pd := pageData(w, r, "Projet")
	if err != nil {
		slog.Warn("failed to load project", "project", id, "error", apiclient.Message(err))
		pd.Error = "Impossible de charger le projet."
	} else {
		pd.Title = project.Title
	}

	s.Templates.Render(w, "project_detail.html", &struct {
		PageData
		Project   model.Project
		Completed int
		Statuses  []string
	}{
		PageData:  pd,
		Project:   project,
		Completed: project.CompletedMilestones(),
		Statuses:  model.ProjectStatuses,
	})
}

// MilestoneToggleSubmit handles POST /admin/projects/{id}/milestones/{mid}/toggle.
func (s *Server) MilestoneToggleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	mid, ok2 := pathID(r, "mid")
	if !ok || !ok2 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/admin/projects/%d", id)

	viewer := GetViewer(r.Context())
	board := projects.NewBoard(viewer.Client)
	if _, err := board.LoadOne(r.Context(), id); err != nil {
		done(w, r, back, err, "")
		return
	}

	m, err := board.ToggleMilestone(r.Context(), id, mid)
	if err != nil {
		slog.Warn("failed to toggle milestone", "project", id, "milestone", mid, "error", apiclient.Message(err))
		done(w, r, back, err, "")
		return
	}
	slog.Info("milestone toggled", "user", viewer.Session.Email, "project", id, "milestone", mid, "completed", m.Completed)
	done(w, r, back, nil, "Jalon mis à jour.")
}

// ProjectStatusSubmit handles POST /admin/projects/{id}/status.
func (s *Server) ProjectStatusSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/admin/projects/%d", id)

	viewer := GetViewer(r.Context())
	board := projects.NewBoard(viewer.Client)
	status := r.FormValue("status")
	if _, err := board.UpdateStatus(r.Context(), id, status); err != nil {
		slog.Warn("failed to update project status", "project", id, "error", apiclient.Message(err))
		done(w, r, back, err, "")
		return
	}
	slog.Info("project status updated", "user", viewer.Session.Email, "project", id, "status", status)
	done(w, r, back, nil, "Statut mis à jour.")
}

// ProjectFileSubmit handles POST /admin/projects/{id}/files (multipart, field "file").
func (s *Server) ProjectFileSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/admin/projects/%d", id)

	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxSize+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		done(w, r, back, uploads.ErrEmpty, "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		done(w, r, back, uploads.ErrTooLarge, "")
		return
	}

	prepared, err := uploads.Prepare(header.Filename, data)
	if err != nil {
		done(w, r, back, err, "")
		return
	}

	viewer := GetViewer(r.Context())
	board := projects.NewBoard(viewer.Client)
	f, err := board.AttachFile(r.Context(), id, prepared.Name, prepared.MIME, prepared.Data)
	if err != nil {
		slog.Warn("failed to attach file", "project", id, "error", apiclient.Message(err))
		done(w, r, back, err, "")
		return
	}
	slog.Info("project file attached", "user", viewer.Session.Email, "project", id, "file", f.Name)
	done(w, r, back, nil, "Fichier ajouté.")
}
