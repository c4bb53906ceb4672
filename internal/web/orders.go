package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/orders"
)

// OrdersPage handles GET /admin/orders.
func (s *Server) OrdersPage(w http.ResponseWriter, r *http.Request) {
	desk := orders.NewDesk(GetViewer(r.Context()).Client)
	pd := pageData(w, r, "Commandes")
	report, err := desk.Load(r.Context(), loader.Visible)
	if err != nil {
		slog.Warn("failed to load orders", "error", apiclient.Message(err))
		pd.Error = "Impossible de charger les commandes."
	}

	q := r.URL.Query()
	f := orders.Filter{Query: q.Get("q"), Status: q.Get("status"), PaymentStatus: q.Get("payment")}
	s.Templates.Render(w, "orders.html", &struct {
		PageData
		Orders   []model.Order
		Stats    model.OrderStats
		Degraded bool
		Statuses []string
		Payments []string
		Filter   orders.Filter
	}{
		PageData: pd,
		Orders:   desk.Filter(f),
		Stats:    desk.Stats(),
		Degraded: !report.OK(),
		Statuses: model.OrderStatuses,
		Payments: model.PaymentStatuses,
		Filter:   f,
	})
}

// OrderDetailPage handles GET /admin/orders/{id}.
func (s *Server) OrderDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	desk := orders.NewDesk(GetViewer(r.Context()).Client)
	order, err := desk.Get(r.Context(), id)
	if apiclient.IsNotFound(err) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	pd := pageData(w, r, "Commande")
	if err != nil {
		slog.Warn("failed to load order", "order", id, "error", apiclient.Message(err))
		pd.Error = "Impossible de charger la commande."
	} else {
		pd.Title = "Commande " + order.Number
	}

	s.Templates.Render(w, "order_detail.html", &struct {
		PageData
		Order    model.Order
		Statuses []string
	}{
		PageData: pd,
		Order:    order,
		Statuses: model.OrderStatuses,
	})
}

// OrderStatusSubmit handles POST /admin/orders/{id}/status.
func (s *Server) OrderStatusSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/admin/orders/%d", id)

	viewer := GetViewer(r.Context())
	status := r.FormValue("status")
	if _, err := orders.NewDesk(viewer.Client).UpdateStatus(r.Context(), id, status); err != nil {
		slog.Warn("failed to update order status", "order", id, "error", apiclient.Message(err))
		done(w, r, back, err, "")
		return
	}
	slog.Info("order status updated", "user", viewer.Session.Email, "order", id, "status", status)
	done(w, r, back, nil, "Commande mise à jour.")
}

// OrderTrackingSubmit handles POST /admin/orders/{id}/tracking.
func (s *Server) OrderTrackingSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/admin/orders/%d", id)

	viewer := GetViewer(r.Context())
	order, err := orders.NewDesk(viewer.Client).SetTrackingNumber(r.Context(), id, r.FormValue("tracking_number"))
	if err != nil {
		slog.Warn("failed to save tracking number", "order", id, "error", apiclient.Message(err))
		done(w, r, back, err, "")
		return
	}
	slog.Info("tracking number saved", "user", viewer.Session.Email, "order", id, "tracking", order.TrackingNumber)
	done(w, r, back, nil, "Numéro de suivi enregistré.")
}
