package client

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, http.MethodGet, "orders/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("orders/%d/", id), nil, &o)
	return o, err
}

// CreateOrder places an order from the server-side cart.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	var o Order
	err := c.do(ctx, http.MethodPost, "orders/", req, &o)
	return o, err
}
