package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/auberge/internal/model"
)

// ListReservations returns the reservations of the configured hotel.
func (c *Client) ListReservations(ctx context.Context, opts ListOptions) ([]model.Reservation, error) {
	v := opts.values()
	if c.hotelID != "" {
		v.Set("hotel_id", c.hotelID)
	}
	var res []model.Reservation
	if err := c.do(ctx, http.MethodGet, "/admin/reservations", withQuery("/admin/reservations", v), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ReservationStats returns the active and pending counts.
func (c *Client) ReservationStats(ctx context.Context) (model.ReservationStats, error) {
	v := ListOptions{}.values()
	if c.hotelID != "" {
		v.Set("hotel_id", c.hotelID)
	}
	var stats model.ReservationStats
	path := withQuery("/admin/reservations/stats", v)
	if err := c.do(ctx, http.MethodGet, "/admin/reservations/stats", path, nil, &stats); err != nil {
		return model.ReservationStats{}, err
	}
	return stats, nil
}

// UpdateReservationStatus changes a reservation's status.
func (c *Client) UpdateReservationStatus(ctx context.Context, id int64, status string) (model.Reservation, error) {
	req := struct {
		Status string `json:"status"`
	}{status}
	var r model.Reservation
	path := fmt.Sprintf("/admin/reservations/%d", id)
	if err := c.do(ctx, http.MethodPatch, "/admin/reservations/{id}", path, req, &r); err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}
