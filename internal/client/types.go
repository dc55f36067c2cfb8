package client

import (
	"github.com/example/ec-storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Message is the {success, message} body returned by the auth and cart-clear endpoints.
type Message struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AddToCartRequest struct {
	Product  int64 `json:"product"`
	Quantity int   `json:"quantity"`
}

type CartItem struct {
	ID       int64           `json:"id"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart is the server-side cart of the signed-in user.
type Cart struct {
	ID        int64      `json:"id"`
	User      int64      `json:"user"`
	CreatedAt string     `json:"created_at"`
	Items     []CartItem `json:"items"`
}

// OrderItem carries the price paid when the order was placed.
type OrderItem struct {
	ID       int64           `json:"id"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Price    catalog.Price   `json:"price"`
}

// Order is a server-side order.
type Order struct {
	ID              int64       `json:"id"`
	User            int64       `json:"user"`
	CreatedAt       string      `json:"created_at"`
	UpdatedAt       string      `json:"updated_at"`
	ShippingAddress string      `json:"shipping_address"`
	PhoneNumber     string      `json:"phone_number"`
	PaymentMethod   string      `json:"payment_method"`
	Status          string      `json:"status"`
	Items           []OrderItem `json:"items"`
}

// Total sums price paid times quantity over the items.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	PhoneNumber     string `json:"phone_number"`
	PaymentMethod   string `json:"payment_method"`
}
