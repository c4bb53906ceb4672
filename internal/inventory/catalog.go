// Package inventory holds the café product catalogue and stock levels.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/erazemk/auberge/internal/filter"
	"github.com/erazemk/auberge/internal/loader"
	"github.com/erazemk/auberge/internal/model"
)

var (
	ErrZeroDelta       = errors.New("stock adjustment must not be zero")
	ErrNegativeStock   = errors.New("stock cannot go below zero")
	ErrProductNotFound = errors.New("product not found")
)

// Backend is the part of the API the catalogue needs.
type Backend interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	AdjustStock(ctx context.Context, productID int64, delta int, reason string) (model.Product, error)
	StockMovements(ctx context.Context, productID int64) ([]model.StockMovement, error)
}

// Catalog is the loaded catalogue. It is safe for concurrent use.
type Catalog struct {
	backend Backend

	mu         sync.Mutex
	products   []model.Product
	categories []model.Category
	lowStock   []model.Product
	loading    bool
}

// NewCatalog creates an empty catalogue.
func NewCatalog(backend Backend) *Catalog {
	return &Catalog{backend: backend}
}

// Load fetches products, categories and low-stock alerts in parallel.
// Categories and alerts degrade to empty lists.
func (c *Catalog) Load(ctx context.Context, mode loader.Mode) (loader.Report, error) {
	if mode == loader.Visible {
		c.setLoading(true)
		defer c.setLoading(false)
	}
	var (
		products   []model.Product
		categories []model.Category
		lowStock   []model.Product
	)
	l := loader.New("inventory")
	loader.Required(l, "products", &products, c.backend.ListProducts)
	loader.Section(l, "categories", &categories, c.backend.ListCategories, []model.Category{})
	loader.Section(l, "low_stock", &lowStock, c.backend.LowStock, []model.Product{})
	report, err := l.Run(ctx)
	if err != nil {
		return report, err
	}

	c.mu.Lock()
	c.products = products
	c.categories = categories
	c.lowStock = lowStock
	c.mu.Unlock()
	return report, nil
}

func (c *Catalog) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// Loading reports whether a visible load is in progress.
func (c *Catalog) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Products returns a copy of the product list.
func (c *Catalog) Products() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.products)
}

// Categories returns a copy of the category list.
func (c *Catalog) Categories() []model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.categories)
}

// LowStock returns the products flagged by the backend as low on stock.
func (c *Catalog) LowStock() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lowStock)
}

// CategoryName resolves a category id.
func (c *Catalog) CategoryName(id int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return ""
}

// Adjust changes a product's stock by delta. Zero deltas and adjustments that
// would drive stock negative are rejected before any backend call.
func (c *Catalog) Adjust(ctx context.Context, productID int64, delta int, reason string) (model.Product, error) {
	if delta == 0 {
		return model.Product{}, ErrZeroDelta
	}
	c.mu.Lock()
	idx := slices.IndexFunc(c.products, func(p model.Product) bool { return p.ID == productID })
	if idx < 0 {
		c.mu.Unlock()
		return model.Product{}, ErrProductNotFound
	}
	current := c.products[idx]
	c.mu.Unlock()

	if current.StockQuantity+delta < 0 {
		return model.Product{}, fmt.Errorf("%w: %d in stock, adjustment %d", ErrNegativeStock, current.StockQuantity, delta)
	}

	updated, err := c.backend.AdjustStock(ctx, productID, delta, reason)
	if err != nil {
		return model.Product{}, fmt.Errorf("adjusting stock of product %d: %w", productID, err)
	}
	if updated.ID == 0 {
		updated = current
		updated.StockQuantity += delta
	}

	c.mu.Lock()
	for i := range c.products {
		if c.products[i].ID == productID {
			c.products[i] = updated
		}
	}
	c.lowStock = slices.DeleteFunc(c.lowStock, func(p model.Product) bool { return p.ID == productID })
	if updated.LowStock() {
		c.lowStock = append(c.lowStock, updated)
	}
	c.mu.Unlock()
	return updated, nil
}

// Movements returns the stock history of a product.
func (c *Catalog) Movements(ctx context.Context, productID int64) ([]model.StockMovement, error) {
	moves, err := c.backend.StockMovements(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("loading movements of product %d: %w", productID, err)
	}
	return moves, nil
}

// Filter narrows the product list.
type Filter struct {
	Query        string
	CategoryID   int64
	Status       string
	LowStockOnly bool
}

// Filter returns the products matching f.
func (c *Catalog) Filter(f Filter) []model.Product {
	q := filter.Parse(f.Query)
	c.mu.Lock()
	defer c.mu.Unlock()
	return filter.Apply(c.products, func(p model.Product) bool {
		switch {
		case f.CategoryID != 0 && p.CategoryID != f.CategoryID:
			return false
		case f.Status != "" && p.Status != f.Status:
			return false
		case f.LowStockOnly && !p.LowStock():
			return false
		}
		return q.Match(p.Name, p.SKU, p.Description)
	})
}
