// Package reservations manages hotel room bookings.
package reservations

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/filter"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

var ErrInvalidStatus = errors.New("invalid reservation status")

// Backend is the part of the API the ledger needs.
type Backend interface {
	ListReservations(ctx context.Context, opts apiclient.ListOptions) ([]model.Reservation, error)
	ReservationStats(ctx context.Context) (model.ReservationStats, error)
	UpdateReservationStatus(ctx context.Context, id int64, status string) (model.Reservation, error)
}

// Ledger holds the loaded reservations. It is safe for concurrent use.
type Ledger struct {
	backend Backend

	mu           sync.Mutex
	reservations []model.Reservation
	stats        model.ReservationStats
	loading      bool
}

// NewLedger creates an empty ledger.
func NewLedger(backend Backend) *Ledger {
	return &Ledger{backend: backend}
}

// Load fetches reservations and stats. Stats degrade to zero counts.
func (l *Ledger) Load(ctx context.Context, mode loader.Mode) (loader.Report, error) {
	if mode == loader.Visible {
		l.setLoading(true)
		defer l.setLoading(false)
	}
	var (
		list  []model.Reservation
		stats model.ReservationStats
	)
	ld := loader.New("reservations")
	loader.Required(ld, "reservations", &list, func(ctx context.Context) ([]model.Reservation, error) {
		return l.backend.ListReservations(ctx, apiclient.ListOptions{})
	})
	loader.Section(ld, "stats", &stats, l.backend.ReservationStats, model.ReservationStats{Active: 0, Pending: 0})
	report, err := ld.Run(ctx)
	if err != nil {
		return report, err
	}
	l.mu.Lock()
	l.reservations = list
	l.stats = stats
	l.mu.Unlock()
	return report, nil
}

func (l *Ledger) setLoading(v bool) {
	l.mu.Lock()
	l.loading = v
	l.mu.Unlock()
}

// Loading reports whether a visible load is in progress.
func (l *Ledger) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Reservations returns a copy of the list.
func (l *Ledger) Reservations() []model.Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.reservations)
}

// Stats returns the last loaded stats.
func (l *Ledger) Stats() model.ReservationStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// UpdateStatus changes a reservation's status and splices the result.
func (l *Ledger) UpdateStatus(ctx context.Context, id int64, status string) (model.Reservation, error) {
	if !slices.Contains(model.ReservationStatuses, status) {
		return model.Reservation{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	r, err := l.backend.UpdateReservationStatus(ctx, id, status)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("updating reservation %d: %w", id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.reservations {
		if l.reservations[i].ID != id {
			continue
		}
		if r.ID == 0 {
			l.reservations[i].Status = status
			return l.reservations[i], nil
		}
		l.reservations[i] = r
	}
	if r.ID == 0 {
		r = model.Reservation{ID: id, Status: status}
	}
	return r, nil
}

// Filter narrows the reservation list. From and To select stays that
// overlap the range; zero values leave that side open.
type Filter struct {
	Query  string
	Status string
	From   time.Time
	To     time.Time
}

// Filter returns the reservations matching f.
func (l *Ledger) Filter(f Filter) []model.Reservation {
	q := filter.Parse(f.Query)
	l.mu.Lock()
	defer l.mu.Unlock()
	return filter.Apply(l.reservations, func(r model.Reservation) bool {
		if f.Status != "" && r.Status != f.Status {
			return false
		}
		if !f.From.IsZero() && !r.CheckOut.IsZero() && r.CheckOut.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && !r.CheckIn.IsZero() && r.CheckIn.After(f.To) {
			return false
		}
		return q.Match(r.GuestName, r.GuestEmail, r.Room)
	})
}

// Upcoming returns the confirmed or pending stays starting within window of now.
func Upcoming(list []model.Reservation, now time.Time, window time.Duration) []model.Reservation {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	out := filter.Apply(list, func(r model.Reservation) bool {
		if r.Status != model.ReservationConfirmed && r.Status != model.ReservationPending {
			return false
		}
		return !r.CheckIn.Before(today) && r.CheckIn.Before(now.Add(window))
	})
	slices.SortFunc(out, func(a, b model.Reservation) int {
		return a.CheckIn.Compare(b.CheckIn.Time)
	})
	return out
}
