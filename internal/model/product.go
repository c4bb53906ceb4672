package model

// Product is a café catalogue entry with its stock level.
type Product struct {
	ID                int64   `json:"id"`
	SKU               string  `json:"sku"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	CategoryID        int64   `json:"category_id"`
	Price             float64 `json:"price"`
	StockQuantity     int     `json:"stock_quantity"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	Status            string  `json:"status"`
	ImageURL          string  `json:"image_url,omitempty"`
}

// Product statuses.
const (
	ProductDraft    = "draft"
	ProductActive   = "active"
	ProductArchived = "archived"
)

// DefaultLowStockThreshold applies when the backend sends no threshold.
const DefaultLowStockThreshold = 5

// LowStock reports whether the product is at or below its threshold.
func (p Product) LowStock() bool {
	threshold := p.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return p.StockQuantity <= threshold
}

// Category groups products in the catalogue.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// StockMovement is one recorded stock adjustment.
type StockMovement struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt Time   `json:"created_at"`
}
