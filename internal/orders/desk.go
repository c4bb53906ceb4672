// Package orders manages café e-commerce orders.
package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/filter"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

var (
	ErrInvalidStatus = errors.New("invalid order status")
	ErrEmptyTracking = errors.New("tracking number is empty")
)

// Backend is the part of the API the order desk needs.
type Backend interface {
	ListOrders(ctx context.Context, opts apiclient.ListOptions) ([]model.Order, error)
	OrderStats(ctx context.Context) (model.OrderStats, error)
	GetOrder(ctx context.Context, id int64) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (model.Order, error)
	SetTrackingNumber(ctx context.Context, id int64, tracking string) (model.Order, error)
}

// Desk holds the loaded orders. It is safe for concurrent use.
type Desk struct {
	backend Backend

	mu      sync.Mutex
	orders  []model.Order
	stats   model.OrderStats
	loading bool
}

// NewDesk creates an empty desk.
func NewDesk(backend Backend) *Desk {
	return &Desk{backend: backend}
}

// Load fetches orders and stats. Stats degrade to zero.
func (d *Desk) Load(ctx context.Context, mode loader.Mode) (loader.Report, error) {
	if mode == loader.Visible {
		d.setLoading(true)
		defer d.setLoading(false)
	}
	var (
		orders []model.Order
		stats  model.OrderStats
	)
	l := loader.New("orders")
	loader.Required(l, "orders", &orders, func(ctx context.Context) ([]model.Order, error) {
		return d.backend.ListOrders(ctx, apiclient.ListOptions{})
	})
	loader.Section(l, "stats", &stats, d.backend.OrderStats, model.OrderStats{})
	report, err := l.Run(ctx)
	if err != nil {
		return report, err
	}
	d.mu.Lock()
	d.orders = orders
	d.stats = stats
	d.mu.Unlock()
	return report, nil
}

func (d *Desk) setLoading(v bool) {
	d.mu.Lock()
	d.loading = v
	d.mu.Unlock()
}

// Loading reports whether a visible load is in progress.
func (d *Desk) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// Orders returns a copy of the order list.
func (d *Desk) Orders() []model.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.orders)
}

// Stats returns the last loaded stats.
func (d *Desk) Stats() model.OrderStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Get fetches one order and splices it.
func (d *Desk) Get(ctx context.Context, id int64) (model.Order, error) {
	o, err := d.backend.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("loading order %d: %w", id, err)
	}
	d.splice(o)
	return o, nil
}

// UpdateStatus changes an order's status after checking it is a known one.
func (d *Desk) UpdateStatus(ctx context.Context, id int64, status string) (model.Order, error) {
	if !slices.Contains(model.OrderStatuses, status) {
		return model.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	o, err := d.backend.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return model.Order{}, fmt.Errorf("updating order %d: %w", id, err)
	}
	if o.ID == 0 {
		return d.patch(id, func(o *model.Order) { o.Status = status }), nil
	}
	d.splice(o)
	return o, nil
}

// SetTrackingNumber saves the carrier tracking number of an order.
func (d *Desk) SetTrackingNumber(ctx context.Context, id int64, tracking string) (model.Order, error) {
	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return model.Order{}, ErrEmptyTracking
	}
	o, err := d.backend.SetTrackingNumber(ctx, id, tracking)
	if err != nil {
		return model.Order{}, fmt.Errorf("saving tracking number of order %d: %w", id, err)
	}
	if o.ID == 0 {
		return d.patch(id, func(o *model.Order) { o.TrackingNumber = tracking }), nil
	}
	if o.TrackingNumber == "" {
		o.TrackingNumber = tracking
	}
	d.splice(o)
	return o, nil
}

// patch applies fn to the cached order when the backend confirmed a change
// without returning the order.
func (d *Desk) patch(id int64, fn func(*model.Order)) model.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.orders {
		if d.orders[i].ID == id {
			fn(&d.orders[i])
			return d.orders[i]
		}
	}
	o := model.Order{ID: id}
	fn(&o)
	return o
}

func (d *Desk) splice(o model.Order) {
	if o.ID == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.orders {
		if d.orders[i].ID == o.ID {
			d.orders[i] = o
			return
		}
	}
	d.orders = append(d.orders, o)
}

// Filter narrows the order list.
type Filter struct {
	Query         string
	Status        string
	PaymentStatus string
}

// Filter returns the orders matching f.
func (d *Desk) Filter(f Filter) []model.Order {
	q := filter.Parse(f.Query)
	d.mu.Lock()
	defer d.mu.Unlock()
	return filter.Apply(d.orders, func(o model.Order) bool {
		if f.Status != "" && o.Status != f.Status {
			return false
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			return false
		}
		return q.Match(o.Number, o.CustomerName, o.CustomerEmail, o.TrackingNumber)
	})
}
