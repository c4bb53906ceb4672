package web

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/auth"
	"github.com/erazemk/auberge/internal/metrics"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/notify"
	webembed "github.com/erazemk/auberge/web"
)

// Config holds the dependencies of the web router.
type Config struct {
	DB        *sql.DB
	JWTSecret string
	Sealer    *auth.Sealer
	API       *apiclient.Client
	Notifier  *notify.Notifier // optional
	Polling   Polling

	LoginMaxAttempts int
	LoginLockout     time.Duration
}

// NewRouter creates the back-office router with all routes registered.
// Background work started by the router stops when ctx ends.
func NewRouter(ctx context.Context, cfg Config) (http.Handler, error) {
	if cfg.DB == nil || cfg.Sealer == nil || cfg.API == nil || cfg.JWTSecret == "" {
		return nil, errors.New("web: db, sealer, api client and jwt secret are required")
	}

	if cfg.LoginMaxAttempts <= 0 {
		cfg.LoginMaxAttempts = 5
	}
	if cfg.LoginLockout <= 0 {
		cfg.LoginLockout = 15 * time.Minute
	}

	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        cfg.DB,
		Templates: templates,
		JWTSecret: cfg.JWTSecret,
		Sealer:    cfg.Sealer,
		API:       cfg.API,
		Notifier:  cfg.Notifier,
		Polling:   cfg.Polling,
		Throttle:  NewLoginThrottle(ctx, cfg.LoginMaxAttempts, cfg.LoginLockout),
	}

	mux := http.NewServeMux()
	staff := s.RequireRoles(model.BackOffice...)
	admin := s.RequireRoles(model.RoleAdmin)
	page := func(h http.HandlerFunc) http.Handler { return staff(h) }

	// Static assets and probes.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	})

	// Back-office routes.
	mux.Handle("GET /admin", page(s.Dashboard))
	mux.Handle("GET /admin/events", page(s.DashboardEvents))
	mux.Handle("GET /admin/dashboard/revenue", page(s.RevenueChart))

	mux.Handle("GET /admin/projects", page(s.ProjectsPage))
	mux.Handle("GET /admin/projects/{id}", page(s.ProjectDetailPage))
	mux.Handle("POST /admin/projects/{id}/status", page(s.ProjectStatusSubmit))
	mux.Handle("POST /admin/projects/{id}/files", page(s.ProjectFileSubmit))
	mux.Handle("POST /admin/projects/{id}/milestones/{mid}/toggle", page(s.MilestoneToggleSubmit))

	mux.Handle("GET /admin/reservations", page(s.ReservationsPage))
	mux.Handle("POST /admin/reservations/{id}/status", page(s.ReservationStatusSubmit))

	mux.Handle("GET /admin/orders", page(s.OrdersPage))
	mux.Handle("GET /admin/orders/{id}", page(s.OrderDetailPage))
	mux.Handle("POST /admin/orders/{id}/status", page(s.OrderStatusSubmit))
	mux.Handle("POST /admin/orders/{id}/tracking", page(s.OrderTrackingSubmit))

	mux.Handle("GET /admin/inventory", page(s.InventoryPage))
	mux.Handle("POST /admin/inventory/{id}/adjust", page(s.StockAdjustSubmit))

	mux.Handle("GET /admin/messages", page(s.MessagesPage))
	mux.Handle("POST /admin/messages/{id}/read", page(s.MessageReadSubmit))

	mux.Handle("GET /admin/clients", admin(http.HandlerFunc(s.ClientsPage)))

	mux.Handle("GET /admin/chat", page(s.ChatPage))
	mux.Handle("GET /admin/chat/ws", page(s.ChatSocket))
	mux.Handle("POST /admin/chat/{id}/messages", page(s.ChatMessageSubmit))
	mux.Handle("POST /admin/chat/{id}/close", page(s.ChatCloseSubmit))

	mux.Handle("GET /admin/push/key", page(s.PushKey))
	mux.Handle("POST /admin/push/subscribe", page(s.PushSubscribe))
	mux.Handle("POST /admin/push/unsubscribe", page(s.PushUnsubscribe))

	return mux, nil
}
