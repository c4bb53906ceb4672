package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/reservations"
)

// ReservationsPage handles GET /admin/reservations.
func (s *Server) ReservationsPage(w http.ResponseWriter, r *http.Request) {
	ledger := reservations.NewLedger(GetViewer(r.Context()).Client)
	pd := pageData(w, r, "Réservations")
	report, err := ledger.Load(r.Context(), loader.Visible)
	if err != nil {
		slog.Warn("failed to load reservations", "error", apiclient.Message(err))
		pd.Error = "Impossible de charger les réservations."
	}

	q := r.URL.Query()
	f := reservations.Filter{Query: q.Get("q"), Status: q.Get("status")}
	if t, err := time.ParseInLocation(time.DateOnly, q.Get("from"), time.Local); err == nil {
		f.From = t
	}
	if t, err := time.ParseInLocation(time.DateOnly, q.Get("to"), time.Local); err == nil {
		f.To = t
	}

	s.Templates.Render(w, "reservations.html", &struct {
		PageData
		Reservations []model.Reservation
		Stats        model.ReservationStats
		Degraded     bool
		Statuses     []string
		Query        string
		Status       string
		From         string
		To           string
	}{
		PageData:     pd,
		Reservations: ledger.Filter(f),
		Stats:        ledger.Stats(),
		Degraded:     !report.OK(),
		Statuses:     model.ReservationStatuses,
		Query:        f.Query,
		Status:       f.Status,
		From:         q.Get("from"),
		To:           q.Get("to"),
	})
}

// ReservationStatusSubmit handles POST /admin/reservations/{id}/status.
func (s *Server) ReservationStatusSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	viewer := GetViewer(r.Context())
	ledger := reservations.NewLedger(viewer.Client)
	status := r.FormValue("status")
	if _, err := ledger.UpdateStatus(r.Context(), id, status); err != nil {
		slog.Warn("failed to update reservation", "reservation", id, "error", apiclient.Message(err))
		done(w, r, "/admin/reservations", err, "")
		return
	}
	slog.Info("reservation status updated", "user", viewer.Session.Email, "reservation", id, "status", status)
	done(w, r, "/admin/reservations", nil, "Réservation mise à jour.")
}
