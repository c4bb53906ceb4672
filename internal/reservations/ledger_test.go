package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

func day(d int) model.Time {
	return model.At(time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC))
}

type fakeBackend struct {
	statsErr error
	list     []model.Reservation
	updates  int
	// emptyReply makes updates succeed without echoing the reservation.
	emptyReply bool
}

func (f *fakeBackend) ListReservations(ctx context.Context, opts apiclient.ListOptions) ([]model.Reservation, error) {
	return f.list, nil
}

func (f *fakeBackend) ReservationStats(ctx context.Context) (model.ReservationStats, error) {
	if f.statsErr != nil {
		return model.ReservationStats{}, f.statsErr
	}
	return model.ReservationStats{Active: 1, Pending: 1}, nil
}

func (f *fakeBackend) UpdateReservationStatus(ctx context.Context, id int64, status string) (model.Reservation, error) {
	f.updates++
	if f.emptyReply {
		return model.Reservation{}, nil
	}
	for _, r := range f.list {
		if r.ID == id {
			r.Status = status
			return r, nil
		}
	}
	return model.Reservation{}, errors.New("not found")
}

func newLedger(t *testing.T, f *fakeBackend) *Ledger {
	t.Helper()
	f.list = []model.Reservation{
		{ID: 1, GuestName: "Anaïs Roux", Room: "Suite Lavande", CheckIn: day(3), CheckOut: day(6), Status: model.ReservationConfirmed},
		{ID: 2, GuestName: "Marc Blanc", Room: "Chambre 4", CheckIn: day(10), CheckOut: day(12), Status: model.ReservationPending},
		{ID: 3, GuestName: "Zoé Lambert", Room: "Chambre 2", CheckIn: day(20), CheckOut: day(25), Status: model.ReservationCancelled},
	}
	l := NewLedger(f)
	_, err := l.Load(context.Background(), loader.Visible)
	require.NoError(t, err)
	return l
}

func TestStatsFallback(t *testing.T) {
	l := newLedger(t, &fakeBackend{statsErr: errors.New("down")})
	assert.Equal(t, model.ReservationStats{Active: 0, Pending: 0}, l.Stats())
	assert.Len(t, l.Reservations(), 3)
}

func TestUpdateStatus(t *testing.T) {
	f := &fakeBackend{}
	l := newLedger(t, f)

	_, err := l.UpdateStatus(context.Background(), 2, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Zero(t, f.updates)

	r, err := l.UpdateStatus(context.Background(), 2, model.ReservationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, r.Status)
	assert.Equal(t, model.ReservationConfirmed, l.Reservations()[1].Status)
}

func TestUpdateStatusEmptyReply(t *testing.T) {
	f := &fakeBackend{emptyReply: true}
	l := newLedger(t, f)

	r, err := l.UpdateStatus(context.Background(), 2, model.ReservationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, "Marc Blanc", r.GuestName)
	assert.Equal(t, model.ReservationConfirmed, r.Status)
	assert.Equal(t, model.ReservationConfirmed, l.Reservations()[1].Status)
	assert.Len(t, l.Reservations(), 3)
}

func TestFilter(t *testing.T) {
	l := newLedger(t, &fakeBackend{})
	from := time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	assert.Len(t, l.Filter(Filter{}), 3)
	assert.Len(t, l.Filter(Filter{Query: "anais"}), 1)
	assert.Len(t, l.Filter(Filter{Query: "chambre"}), 2)
	assert.Len(t, l.Filter(Filter{Status: model.ReservationCancelled}), 1)

	got := l.Filter(Filter{From: from, To: to})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestUpcoming(t *testing.T) {
	l := newLedger(t, &fakeBackend{})
	now := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	got := Upcoming(l.Reservations(), now, 14*24*time.Hour)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestUpcomingUsesLocalMidnight(t *testing.T) {
	paris := time.FixedZone("CEST", 2*60*60)
	// 00:30 local is still the previous day in UTC.
	checkIn := model.At(time.Date(2025, 7, 3, 0, 30, 0, 0, paris))
	list := []model.Reservation{{ID: 1, CheckIn: checkIn, Status: model.ReservationConfirmed}}

	now := time.Date(2025, 7, 3, 10, 0, 0, 0, paris)
	got := Upcoming(list, now, 24*time.Hour)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}
