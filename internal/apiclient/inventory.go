package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/auberge/internal/model"
)

// LowStock returns the products at or below their threshold.
func (c *Client) LowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/admin/inventory/low-stock", "/admin/inventory/low-stock", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// AdjustStock applies delta to a product's stock and returns the product.
func (c *Client) AdjustStock(ctx context.Context, productID int64, delta int, reason string) (model.Product, error) {
	req := struct {
		ProductID int64  `json:"product_id"`
		Delta     int    `json:"delta"`
		Reason    string `json:"reason,omitempty"`
	}{productID, delta, reason}
	var p model.Product
	if err := c.do(ctx, http.MethodPost, "/admin/inventory/adjust", "/admin/inventory/adjust", req, &p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// StockMovements returns the adjustment history of a product.
func (c *Client) StockMovements(ctx context.Context, productID int64) ([]model.StockMovement, error) {
	v := url.Values{}
	v.Set("product_id", strconv.FormatInt(productID, 10))
	var moves []model.StockMovement
	path := withQuery("/admin/inventory/movements", v)
	if err := c.do(ctx, http.MethodGet, "/admin/inventory/movements", path, nil, &moves); err != nil {
		return nil, err
	}
	return moves, nil
}
