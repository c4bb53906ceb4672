package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/ettle/strcase"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/auth"
	"github.com/erazemk/auberge/internal/content"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/notify"
	"github.com/erazemk/auberge/internal/projects"
	webembed "github.com/erazemk/auberge/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// badgeClass turns a badge into CSS classes, e.g. "badge badge-in-progress tone-info".
func badgeClass(kind, status string, b model.Badge) string {
	return fmt.Sprintf("badge badge-%s-%s tone-%s", kind, strcase.ToKebab(status), b.Tone)
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleIn":            model.RoleIn,
		"projectBadge":      model.ProjectBadge,
		"orderBadge":        model.OrderBadge,
		"paymentBadge":      model.PaymentBadge,
		"reservationBadge":  model.ReservationBadge,
		"productBadge":      model.ProductBadge,
		"conversationBadge": model.ConversationBadge,
		"roleBadge":         model.RoleBadge,
		"milestoneBadge": func(m model.Milestone) model.Badge {
			return projects.MilestoneBadge(m, time.Now())
		},
		"badgeClass": badgeClass,
		"markdown":   content.Render,
		"excerpt":    content.Excerpt,
		"date": func(t model.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("02.01.2006")
		},
		"datetime": func(t model.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("02.01.2006 15:04")
		},
		"money": func(v float64) string {
			return fmt.Sprintf("%.2f €", v)
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	// Read layout.
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"dashboard.html",
		"projects.html",
		"project_detail.html",
		"reservations.html",
		"orders.html",
		"order_detail.html",
		"inventory.html",
		"messages.html",
		"clients.html",
		"chat.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with a non-200 status.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Path    string
	User    *model.User
	Error   string
	Success string
	Loading bool
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	JWTSecret string
	Sealer    *auth.Sealer
	API       *apiclient.Client
	Notifier  *notify.Notifier
	Polling   Polling
	Throttle  *LoginThrottle
}

// Polling holds the live update periods.
type Polling struct {
	Chat          time.Duration
	Conversations time.Duration
	Dashboard     time.Duration
}
