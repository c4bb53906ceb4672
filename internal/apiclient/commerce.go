package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/auberge/internal/model"
)

// ListCategories returns the product categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := c.do(ctx, http.MethodGet, "/ecommerce/categories", "/ecommerce/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// ListOrders returns café orders, newest first.
func (c *Client) ListOrders(ctx context.Context, opts ListOptions) ([]model.Order, error) {
	var orders []model.Order
	path := withQuery("/ecommerce/orders", opts.values())
	if err := c.do(ctx, http.MethodGet, "/ecommerce/orders", path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder returns one order.
func (c *Client) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	var o model.Order
	path := fmt.Sprintf("/ecommerce/orders/%d", id)
	if err := c.do(ctx, http.MethodGet, "/ecommerce/orders/{id}", path, nil, &o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// OrderStats returns order count, pending count and revenue.
func (c *Client) OrderStats(ctx context.Context) (model.OrderStats, error) {
	var stats model.OrderStats
	if err := c.do(ctx, http.MethodGet, "/ecommerce/orders/stats", "/ecommerce/orders/stats", nil, &stats); err != nil {
		return model.OrderStats{}, err
	}
	return stats, nil
}

// UpdateOrderStatus changes an order's status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status string) (model.Order, error) {
	req := struct {
		Status string `json:"status"`
	}{status}
	var o model.Order
	path := fmt.Sprintf("/ecommerce/orders/%d/status", id)
	if err := c.do(ctx, http.MethodPatch, "/ecommerce/orders/{id}/status", path, req, &o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// SetTrackingNumber stores the carrier tracking number of an order.
func (c *Client) SetTrackingNumber(ctx context.Context, id int64, tracking string) (model.Order, error) {
	req := struct {
		TrackingNumber string `json:"tracking_number"`
	}{tracking}
	var o model.Order
	path := fmt.Sprintf("/ecommerce/orders/%d/tracking", id)
	if err := c.do(ctx, http.MethodPatch, "/ecommerce/orders/{id}/tracking", path, req, &o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// ListProducts returns the catalogue.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products", "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	path := fmt.Sprintf("/products/%d", id)
	if err := c.do(ctx, http.MethodGet, "/products/{id}", path, nil, &p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}
