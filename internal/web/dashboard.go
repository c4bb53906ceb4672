package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/dashboard"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/metrics"
)

// Dashboard handles GET /admin.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	viewer := GetViewer(r.Context())
	overview := dashboard.NewOverview(viewer.Client, s.Polling.Dashboard)

	data, err := overview.Load(r.Context(), loader.Visible)
	pd := pageData(w, r, "Tableau de bord")
	if err != nil {
		slog.Error("failed to load dashboard", "error", err)
		pd.Error = "Impossible de charger le tableau de bord."
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Data dashboard.Data
	}{
		PageData: pd,
		Data:     data,
	})
}

// dashboardEvent is the live summary pushed to an open dashboard.
type dashboardEvent struct {
	ActiveReservations  int       `json:"active_reservations"`
	PendingReservations int       `json:"pending_reservations"`
	Orders              int       `json:"orders"`
	PendingOrders       int       `json:"pending_orders"`
	Revenue             string    `json:"revenue"`
	UnreadConversations int       `json:"unread_conversations"`
	LowStock            int       `json:"low_stock"`
	Upcoming            int       `json:"upcoming"`
	Degraded            []string  `json:"degraded"`
	LoadedAt            time.Time `json:"loaded_at"`
}

func newDashboardEvent(d dashboard.Data) dashboardEvent {
	unread := 0
	for _, c := range d.UnreadConversations {
		unread += c.UnreadAdmin
	}
	return dashboardEvent{
		ActiveReservations:  d.ReservationStats.Active,
		PendingReservations: d.ReservationStats.Pending,
		Orders:              d.OrderStats.Count,
		PendingOrders:       d.OrderStats.Pending,
		Revenue:             fmt.Sprintf("%.2f €", d.OrderStats.Revenue),
		UnreadConversations: unread,
		LowStock:            len(d.LowStock),
		Upcoming:            len(d.Upcoming),
		Degraded:            d.Degraded,
		LoadedAt:            d.LoadedAt,
	}
}

// DashboardEvents handles GET /admin/events. It streams a dashboard summary
// as server-sent events, refreshed every dashboard interval.
func (s *Server) DashboardEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Error("event stream not supported", "error", err)
		return
	}

	metrics.LiveConnections.WithLabelValues("sse").Inc()
	defer metrics.LiveConnections.WithLabelValues("sse").Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates := make(chan dashboard.Data, 1)
	overview := dashboard.NewOverview(GetViewer(ctx).Client, s.Polling.Dashboard)
	overview.OnChange(func(d dashboard.Data) { offer(updates, d) })
	overview.StartRefresh(ctx)
	defer overview.StopRefresh()

	go func() {
		if _, err := overview.Load(ctx, loader.Silent); err != nil && ctx.Err() == nil {
			slog.Warn("initial dashboard load failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-updates:
			payload, err := json.Marshal(newDashboardEvent(d))
			if err != nil {
				slog.Error("failed to encode dashboard event", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", payload); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// RevenueChart handles GET /admin/dashboard/revenue.
func (s *Server) RevenueChart(w http.ResponseWriter, r *http.Request) {
	viewer := GetViewer(r.Context())
	orders, err := viewer.Client.ListOrders(r.Context(), apiclient.ListOptions{Limit: 100})
	if err != nil {
		slog.Warn("failed to list orders for revenue chart", "error", apiclient.Message(err))
		http.Error(w, "revenue unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboard.RenderRevenueChart(w, orders); err != nil {
		slog.Error("failed to render revenue chart", "error", err)
	}
}

// offer replaces any pending value in ch with v, so a slow reader only ever
// sees the latest state.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
