package model

// Reservation is a hotel room booking.
type Reservation struct {
	ID         int64   `json:"id"`
	HotelID    string  `json:"hotel_id,omitempty"`
	GuestName  string  `json:"guest_name"`
	GuestEmail string  `json:"guest_email"`
	GuestPhone string  `json:"guest_phone,omitempty"`
	Room       string  `json:"room"`
	CheckIn    Time    `json:"check_in"`
	CheckOut   Time    `json:"check_out"`
	Guests     int     `json:"guests"`
	TotalPrice float64 `json:"total_price"`
	Status     string  `json:"status"`
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  Time    `json:"created_at"`
}

// ReservationStats summarises reservations for the dashboard.
type ReservationStats struct {
	Active  int `json:"active"`
	Pending int `json:"pending"`
}

// Reservation statuses.
const (
	ReservationPending    = "pending"
	ReservationConfirmed  = "confirmed"
	ReservationCheckedIn  = "checked_in"
	ReservationCheckedOut = "checked_out"
	ReservationCancelled  = "cancelled"
)

// ReservationStatuses lists every valid reservation status.
var ReservationStatuses = []string{
	ReservationPending, ReservationConfirmed, ReservationCheckedIn,
	ReservationCheckedOut, ReservationCancelled,
}

// Nights returns the length of stay.
func (r Reservation) Nights() int {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return 0
	}
	return int(r.CheckOut.Sub(r.CheckIn.Time).Hours() / 24)
}
