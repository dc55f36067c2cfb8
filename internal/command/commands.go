package command

import "github.com/example/ec-storefront/internal/domain/catalog"

// Catalog Commands
type CreateCategory struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateProduct struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       catalog.Price `json:"price"`
	CategoryID  int64         `json:"category"`
	Image       string        `json:"image"`
}

// User Commands
type Register struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// Cart Commands
type AddToCart struct {
	UserID    int64 `json:"-"`
	ProductID int64 `json:"product"`
	Quantity  int   `json:"quantity"`
}

type ClearCart struct {
	UserID int64 `json:"-"`
}

// Order Commands
type PlaceOrder struct {
	UserID          int64  `json:"-"`
	ShippingAddress string `json:"shipping_address"`
	PhoneNumber     string `json:"phone_number"`
	PaymentMethod   string `json:"payment_method"`
}

type UpdateOrderStatus struct {
	UserID  int64  `json:"-"`
	OrderID int64  `json:"-"`
	Status  string `json:"status"`
}
