// Package dashboard assembles the back-office home page: headline stats,
// recent activity and a revenue chart.
package dashboard

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
	"github.com/erazemk/auberge/internal/poller"
	"github.com/erazemk/auberge/internal/reservations"
)

const (
	recentOrders   = 10
	upcomingWindow = 7 * 24 * time.Hour
)

// Backend is the part of the API the dashboard reads.
type Backend interface {
	ReservationStats(ctx context.Context) (model.ReservationStats, error)
	OrderStats(ctx context.Context) (model.OrderStats, error)
	ListOrders(ctx context.Context, opts apiclient.ListOptions) ([]model.Order, error)
	ListConversations(ctx context.Context, opts apiclient.ListOptions) ([]model.Conversation, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	ListReservations(ctx context.Context, opts apiclient.ListOptions) ([]model.Reservation, error)
}

// Data is one dashboard load.
type Data struct {
	ReservationStats    model.ReservationStats
	OrderStats          model.OrderStats
	RecentOrders        []model.Order
	UnreadConversations []model.Conversation
	LowStock            []model.Product
	Upcoming            []model.Reservation
	Degraded            []string
	LoadedAt            time.Time
}

// Overview loads the dashboard and keeps it fresh. It is safe for concurrent use.
type Overview struct {
	backend   Backend
	now       func() time.Time
	refresher *poller.Poller

	mu       sync.Mutex
	data     Data
	loading  bool
	onChange func(Data)
}

// NewOverview creates a dashboard refreshing every interval once started.
func NewOverview(backend Backend, interval time.Duration) *Overview {
	o := &Overview{backend: backend, now: time.Now}
	o.refresher = poller.New(interval, func(ctx context.Context) error {
		_, err := o.Load(ctx, loader.Silent)
		return err
	}).WithName("dashboard")
	return o
}

// OnChange registers fn to receive every completed load.
func (o *Overview) OnChange(fn func(Data)) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

// Load fetches every section in parallel. Each section falls back to an
// empty value on failure, so Load itself only fails when ctx does.
func (o *Overview) Load(ctx context.Context, mode loader.Mode) (Data, error) {
	if mode == loader.Visible {
		o.setLoading(true)
		defer o.setLoading(false)
	}

	var d Data
	var upcoming []model.Reservation
	l := loader.New("dashboard")
	loader.Section(l, "reservation_stats", &d.ReservationStats, o.backend.ReservationStats, model.ReservationStats{})
	loader.Section(l, "order_stats", &d.OrderStats, o.backend.OrderStats, model.OrderStats{})
	loader.Section(l, "recent_orders", &d.RecentOrders, func(ctx context.Context) ([]model.Order, error) {
		return o.backend.ListOrders(ctx, apiclient.ListOptions{Limit: recentOrders})
	}, []model.Order{})
	loader.Section(l, "unread_conversations", &d.UnreadConversations, func(ctx context.Context) ([]model.Conversation, error) {
		convs, err := o.backend.ListConversations(ctx, apiclient.ListOptions{Status: model.ConversationActive})
		if err != nil {
			return nil, err
		}
		return slices.DeleteFunc(convs, func(c model.Conversation) bool { return c.UnreadAdmin == 0 }), nil
	}, []model.Conversation{})
	loader.Section(l, "low_stock", &d.LowStock, o.backend.LowStock, []model.Product{})
	loader.Section(l, "upcoming", &upcoming, func(ctx context.Context) ([]model.Reservation, error) {
		return o.backend.ListReservations(ctx, apiclient.ListOptions{})
	}, []model.Reservation{})

	report, err := l.Run(ctx)
	if err != nil {
		return Data{}, err
	}
	if ctx.Err() != nil {
		return Data{}, ctx.Err()
	}

	now := o.now()
	d.Upcoming = reservations.Upcoming(upcoming, now, upcomingWindow)
	if len(d.RecentOrders) > recentOrders {
		d.RecentOrders = d.RecentOrders[:recentOrders]
	}
	for name := range report.Degraded {
		d.Degraded = append(d.Degraded, name)
	}
	slices.Sort(d.Degraded)
	d.LoadedAt = now

	o.mu.Lock()
	o.data = d
	fn := o.onChange
	o.mu.Unlock()
	if fn != nil {
		fn(d)
	}
	return d, nil
}

func (o *Overview) setLoading(v bool) {
	o.mu.Lock()
	o.loading = v
	o.mu.Unlock()
}

// Loading reports whether a visible load is in progress.
func (o *Overview) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// Data returns the last completed load.
func (o *Overview) Data() Data {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.data
}

// StartRefresh reloads the dashboard silently every interval.
func (o *Overview) StartRefresh(ctx context.Context) {
	o.refresher.Start(ctx)
}

// StopRefresh stops the background refresh.
func (o *Overview) StopRefresh() {
	o.refresher.Stop()
}
