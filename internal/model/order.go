package model

// Order is a café e-commerce order.
type Order struct {
	ID             int64       `json:"id"`
	Number         string      `json:"order_number"`
	CustomerName   string      `json:"customer_name"`
	CustomerEmail  string      `json:"customer_email"`
	Items          []OrderItem `json:"items"`
	Subtotal       float64     `json:"subtotal"`
	Tax            float64     `json:"tax"`
	Shipping       float64     `json:"shipping"`
	Total          float64     `json:"total"`
	Status         string      `json:"status"`
	PaymentStatus  string      `json:"payment_status"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
	CreatedAt      Time        `json:"created_at"`
}

// OrderItem is one line of an order or cart.
type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Cart is a customer's pending basket.
type Cart struct {
	ID    int64       `json:"id"`
	Items []OrderItem `json:"items"`
	Total float64     `json:"total"`
}

// OrderStats summarises orders for the dashboard.
type OrderStats struct {
	Count   int     `json:"count"`
	Pending int     `json:"pending"`
	Revenue float64 `json:"revenue"`
}

// Order statuses.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderPreparing = "preparing"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
	OrderRefunded  = "refunded"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{
	OrderPending, OrderConfirmed, OrderPreparing, OrderShipped,
	OrderDelivered, OrderCancelled, OrderRefunded,
}

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// PaymentStatuses lists every valid payment status.
var PaymentStatuses = []string{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}

// ItemCount sums the quantities of all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
