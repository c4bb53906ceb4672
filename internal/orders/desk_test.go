package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

type fakeBackend struct {
	orders    []model.Order
	statsErr  error
	updateErr error
	calls     []string
	// emptyReply makes mutations succeed without echoing the order.
	emptyReply bool
}

func (f *fakeBackend) ListOrders(ctx context.Context, opts apiclient.ListOptions) ([]model.Order, error) {
	return f.orders, nil
}

func (f *fakeBackend) OrderStats(ctx context.Context) (model.OrderStats, error) {
	if f.statsErr != nil {
		return model.OrderStats{}, f.statsErr
	}
	return model.OrderStats{Count: len(f.orders), Pending: 1, Revenue: 42}, nil
}

func (f *fakeBackend) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{}, &apiclient.APIError{Status: 404}
}

func (f *fakeBackend) UpdateOrderStatus(ctx context.Context, id int64, status string) (model.Order, error) {
	f.calls = append(f.calls, "status:"+status)
	if f.updateErr != nil {
		return model.Order{}, f.updateErr
	}
	if f.emptyReply {
		return model.Order{}, nil
	}
	o, _ := f.GetOrder(ctx, id)
	o.Status = status
	return o, nil
}

func (f *fakeBackend) SetTrackingNumber(ctx context.Context, id int64, tracking string) (model.Order, error) {
	f.calls = append(f.calls, "tracking:"+tracking)
	if f.emptyReply {
		return model.Order{}, nil
	}
	o, _ := f.GetOrder(ctx, id)
	o.TrackingNumber = tracking
	return o, nil
}

func newDesk(t *testing.T, f *fakeBackend) *Desk {
	t.Helper()
	if f.orders == nil {
		f.orders = []model.Order{
			{ID: 1, Number: "CMD-1001", CustomerName: "Léa Moreau", Status: model.OrderPending, PaymentStatus: model.PaymentPaid},
			{ID: 2, Number: "CMD-1002", CustomerName: "Hugo Bernard", Status: model.OrderShipped, PaymentStatus: model.PaymentPaid},
			{ID: 3, Number: "CMD-1003", CustomerName: "Chloé Petit", Status: model.OrderPending, PaymentStatus: model.PaymentFailed},
		}
	}
	d := NewDesk(f)
	_, err := d.Load(context.Background(), loader.Visible)
	require.NoError(t, err)
	return d
}

func TestStatsFallBackToZero(t *testing.T) {
	d := newDesk(t, &fakeBackend{statsErr: errors.New("stats down")})
	assert.Equal(t, model.OrderStats{}, d.Stats())
	assert.Len(t, d.Orders(), 3)
}

func TestUpdateStatusValidatesEnum(t *testing.T) {
	f := &fakeBackend{}
	d := newDesk(t, f)

	_, err := d.UpdateStatus(context.Background(), 1, "teleported")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, f.calls)

	o, err := d.UpdateStatus(context.Background(), 1, model.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, o.Status)
	assert.Equal(t, model.OrderConfirmed, d.Orders()[0].Status)
}

func TestUpdateStatusFailureLeavesOrder(t *testing.T) {
	f := &fakeBackend{updateErr: &apiclient.APIError{Status: 409, Message: "déjà expédiée"}}
	d := newDesk(t, f)
	_, err := d.UpdateStatus(context.Background(), 2, model.OrderCancelled)
	require.Error(t, err)
	assert.Equal(t, "déjà expédiée", apiclient.Message(err))
	assert.Equal(t, model.OrderShipped, d.Orders()[1].Status)
}

func TestSetTrackingNumberCallsBackend(t *testing.T) {
	f := &fakeBackend{}
	d := newDesk(t, f)

	_, err := d.SetTrackingNumber(context.Background(), 2, "  ")
	assert.ErrorIs(t, err, ErrEmptyTracking)

	o, err := d.SetTrackingNumber(context.Background(), 2, " 6A12345678 ")
	require.NoError(t, err)
	assert.Equal(t, "6A12345678", o.TrackingNumber)
	assert.Equal(t, []string{"tracking:6A12345678"}, f.calls)
	assert.Equal(t, "6A12345678", d.Orders()[1].TrackingNumber)
}

func TestMutationsWithEmptyReply(t *testing.T) {
	f := &fakeBackend{emptyReply: true}
	d := newDesk(t, f)

	o, err := d.UpdateStatus(context.Background(), 1, model.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, "CMD-1001", o.Number)
	assert.Equal(t, model.OrderConfirmed, o.Status)
	assert.Equal(t, model.OrderConfirmed, d.Orders()[0].Status)

	o, err = d.SetTrackingNumber(context.Background(), 2, "6A12345678")
	require.NoError(t, err)
	assert.Equal(t, "CMD-1002", o.Number)
	assert.Equal(t, "6A12345678", d.Orders()[1].TrackingNumber)
	assert.Len(t, d.Orders(), 3)
}

func TestFilter(t *testing.T) {
	d := newDesk(t, &fakeBackend{})
	assert.Len(t, d.Filter(Filter{Status: model.OrderPending}), 2)
	assert.Len(t, d.Filter(Filter{Status: model.OrderPending, PaymentStatus: model.PaymentPaid}), 1)
	assert.Len(t, d.Filter(Filter{Query: "chloe"}), 1)
	assert.Len(t, d.Filter(Filter{Query: "cmd-100"}), 3)
}

func TestGetSplices(t *testing.T) {
	d := newDesk(t, &fakeBackend{})
	_, err := d.Get(context.Background(), 99)
	assert.True(t, apiclient.IsNotFound(err))
	o, err := d.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "CMD-1003", o.Number)
}
