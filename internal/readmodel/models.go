package readmodel

import (
	"time"

	"github.com/example/ec-storefront/internal/domain/catalog"
)

// UserReadModel is the read model for registered users
type UserReadModel struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"-"`
}

// CartItemReadModel represents an item in the cart
type CartItemReadModel struct {
	ID       int64           `json:"id"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// CartReadModel is the read model for a user's server-side cart
type CartReadModel struct {
	ID        int64               `json:"id"`
	User      int64               `json:"user"`
	CreatedAt string              `json:"created_at"`
	Items     []CartItemReadModel `json:"items"`
}

// OrderItemReadModel carries the price paid when the order was placed
type OrderItemReadModel struct {
	ID       int64           `json:"id"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Price    catalog.Price   `json:"price"`
}

// OrderReadModel is the read model for orders
type OrderReadModel struct {
	ID              int64                `json:"id"`
	User            int64                `json:"user"`
	CreatedAt       string               `json:"created_at"`
	UpdatedAt       string               `json:"updated_at"`
	ShippingAddress string               `json:"shipping_address"`
	PhoneNumber     string               `json:"phone_number"`
	PaymentMethod   string               `json:"payment_method"`
	Status          string               `json:"status"`
	Items           []OrderItemReadModel `json:"items"`
}

func (c CartReadModel) clone() CartReadModel {
	c.Items = append([]CartItemReadModel{}, c.Items...)
	return c
}

func (o OrderReadModel) clone() OrderReadModel {
	o.Items = append([]OrderItemReadModel{}, o.Items...)
	return o
}
