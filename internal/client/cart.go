package client

import (
	"context"
	"net/http"
)

// GetCart returns the signed-in user's server-side cart.
func (c *Client) GetCart(ctx context.Context) (Cart, error) {
	var cart Cart
	err := c.do(ctx, http.MethodGet, "carts/", nil, &cart)
	return cart, err
}

func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) (CartItem, error) {
	var item CartItem
	err := c.do(ctx, http.MethodPost, "carts/", AddToCartRequest{Product: productID, Quantity: quantity}, &item)
	return item, err
}

func (c *Client) ClearCart(ctx context.Context) (Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodDelete, "carts/clear/", nil, &msg)
	return msg, err
}
