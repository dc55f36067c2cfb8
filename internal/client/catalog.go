package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/example/ec-storefront/internal/domain/catalog"
)

func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	if err := c.do(ctx, http.MethodGet, "categories/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	if err := c.do(ctx, http.MethodGet, "products/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	var p catalog.Product
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("products/%d/", id), nil, &p)
	return p, err
}
