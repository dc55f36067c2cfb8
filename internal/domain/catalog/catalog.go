// Package catalog holds the product and category shapes served by the
// storefront API. Values are snapshots; the client never mutates them.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       Price    `json:"price"`
	Category    Category `json:"category"`
	// Image is nil when the product has no picture.
	Image *string `json:"image"`
}

// Price is a decimal amount that keeps the scale it was received with:
// "19.90" is written back as "19.90", not "19.9".
type Price struct {
	decimal.Decimal
}

func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return Price{Decimal: d}, nil
}

// RequirePrice is ParsePrice for literals; it panics on bad input.
func RequirePrice(s string) Price {
	return Price{Decimal: decimal.RequireFromString(s)}
}

// String formats the amount with as many decimal places as it carries.
func (p Price) String() string {
	if exp := p.Exponent(); exp < 0 {
		return p.StringFixed(-exp)
	}
	return p.Decimal.String()
}

// Equal compares amounts, ignoring scale.
func (p Price) Equal(other Price) bool {
	return p.Decimal.Equal(other.Decimal)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (p *Price) UnmarshalJSON(data []byte) error {
	return p.Decimal.UnmarshalJSON(data)
}

// ImageURL returns a pointer to url, or nil when url is empty.
func ImageURL(url string) *string {
	if url == "" {
		return nil
	}
	return &url
}

// FilterByCategory returns the products whose category id matches, keeping order.
func FilterByCategory(products []Product, categoryID int64) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category.ID == categoryID {
			out = append(out, p)
		}
	}
	return out
}
