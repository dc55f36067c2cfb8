package command

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/domain/catalog"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/readmodel"
)

var (
	ErrInvalidName       = errors.New("name is required")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidOrderState = errors.New("invalid order status")
)

// ValidationErrors maps a request field to its problems, the shape the
// registration endpoint answers with on 400.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msgs := range v {
		parts = append(parts, field+": "+strings.Join(msgs, " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) add(field, msg string) {
	v[field] = append(v[field], msg)
}

type Handler struct {
	readStore *readmodel.Store
}

func NewHandler(readStore *readmodel.Store) *Handler {
	return &Handler{readStore: readStore}
}

// CreateCategory adds a catalog category
func (h *Handler) CreateCategory(cmd CreateCategory) (catalog.Category, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return catalog.Category{}, ErrInvalidName
	}
	c := h.readStore.PutCategory(catalog.Category{Name: cmd.Name, Description: cmd.Description})
	log.Printf("[Command] Category created: %d %s", c.ID, c.Name)
	return c, nil
}

// CreateProduct adds a product under an existing category
func (h *Handler) CreateProduct(cmd CreateProduct) (catalog.Product, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return catalog.Product{}, ErrInvalidName
	}
	if cmd.Price.IsNegative() {
		return catalog.Product{}, ErrInvalidPrice
	}
	category, ok := h.readStore.GetCategory(cmd.CategoryID)
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: %d", ErrCategoryNotFound, cmd.CategoryID)
	}

	p := h.readStore.PutProduct(catalog.Product{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Category:    category,
		Image:       catalog.ImageURL(cmd.Image),
	})
	log.Printf("[Command] Product created: %d %s", p.ID, p.Name)
	return p, nil
}

// Register validates and stores a new account
func (h *Handler) Register(cmd Register) (readmodel.UserReadModel, error) {
	verrs := ValidationErrors{}
	if strings.TrimSpace(cmd.Username) == "" {
		verrs.add("username", "This field is required.")
	}
	if _, err := mail.ParseAddress(cmd.Email); err != nil {
		verrs.add("email", "Enter a valid email address.")
	}
	switch err := auth.ValidateNewPassword(cmd.Password1, cmd.Password2); {
	case errors.Is(err, auth.ErrPasswordMismatch):
		verrs.add("password2", "Passwords do not match.")
	case errors.Is(err, auth.ErrPasswordTooShort):
		verrs.add("password1", "Password must be at least 8 characters.")
	}
	if len(verrs) > 0 {
		return readmodel.UserReadModel{}, verrs
	}

	hash, err := auth.HashPassword(cmd.Password1)
	if err != nil {
		return readmodel.UserReadModel{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := h.readStore.AddUser(readmodel.UserReadModel{
		Username:     cmd.Username,
		Email:        cmd.Email,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, readmodel.ErrUsernameTaken):
		return readmodel.UserReadModel{}, ValidationErrors{"username": {"A user with that username already exists."}}
	case errors.Is(err, readmodel.ErrEmailTaken):
		return readmodel.UserReadModel{}, ValidationErrors{"email": {"This email is already in use."}}
	case err != nil:
		return readmodel.UserReadModel{}, err
	}

	log.Printf("[Command] User registered: %d %s", u.ID, u.Username)
	return u, nil
}

// AddToCart adds quantity of a product to the user's cart, merging with an
// existing line for the same product
func (h *Handler) AddToCart(cmd AddToCart) (readmodel.CartItemReadModel, error) {
	if cmd.Quantity <= 0 {
		return readmodel.CartItemReadModel{}, ErrInvalidQuantity
	}
	product, ok := h.readStore.GetProduct(cmd.ProductID)
	if !ok {
		return readmodel.CartItemReadModel{}, fmt.Errorf("%w: %d", ErrProductNotFound, cmd.ProductID)
	}

	cart, err := h.readStore.UpdateCart(cmd.UserID, func(c *readmodel.CartReadModel) error {
		for i := range c.Items {
			if c.Items[i].Product.ID == product.ID {
				c.Items[i].Quantity += cmd.Quantity
				return nil
			}
		}
		c.Items = append(c.Items, readmodel.CartItemReadModel{Product: product, Quantity: cmd.Quantity})
		return nil
	})
	if err != nil {
		return readmodel.CartItemReadModel{}, err
	}

	for _, it := range cart.Items {
		if it.Product.ID == product.ID {
			return it, nil
		}
	}
	return readmodel.CartItemReadModel{}, fmt.Errorf("%w: %d", ErrProductNotFound, cmd.ProductID)
}

func (h *Handler) ClearCart(cmd ClearCart) error {
	_, err := h.readStore.UpdateCart(cmd.UserID, func(c *readmodel.CartReadModel) error {
		c.Items = []readmodel.CartItemReadModel{}
		return nil
	})
	return err
}

// PlaceOrder turns the user's cart into an order. Each item keeps the price
// the product had at this moment; the cart is emptied.
func (h *Handler) PlaceOrder(cmd PlaceOrder) (readmodel.OrderReadModel, error) {
	var items []readmodel.OrderItemReadModel
	_, err := h.readStore.UpdateCart(cmd.UserID, func(c *readmodel.CartReadModel) error {
		if len(c.Items) == 0 {
			return ErrEmptyCart
		}
		for _, it := range c.Items {
			items = append(items, readmodel.OrderItemReadModel{
				Product:  it.Product,
				Quantity: it.Quantity,
				Price:    it.Product.Price,
			})
		}
		c.Items = []readmodel.CartItemReadModel{}
		return nil
	})
	if err != nil {
		return readmodel.OrderReadModel{}, err
	}

	now := h.readStore.Now().UTC().Format(readmodel.TimeLayout)
	o := h.readStore.AddOrder(readmodel.OrderReadModel{
		User:            cmd.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
		ShippingAddress: cmd.ShippingAddress,
		PhoneNumber:     cmd.PhoneNumber,
		PaymentMethod:   cmd.PaymentMethod,
		Status:          string(order.StatusPending),
		Items:           items,
	})
	log.Printf("[Command] Order placed: %d for user %d (%d items)", o.ID, o.User, len(o.Items))
	return o, nil
}

// UpdateOrderStatus overwrites the status of one of the user's orders
func (h *Handler) UpdateOrderStatus(cmd UpdateOrderStatus) (readmodel.OrderReadModel, error) {
	status, err := order.ParseStatus(cmd.Status)
	if err != nil || cmd.Status == "" {
		return readmodel.OrderReadModel{}, fmt.Errorf("%w: %q", ErrInvalidOrderState, cmd.Status)
	}

	o, found, err := h.readStore.UpdateOrder(cmd.OrderID, func(o *readmodel.OrderReadModel) error {
		if o.User != cmd.UserID {
			return ErrOrderNotFound
		}
		o.Status = string(status)
		o.UpdatedAt = h.readStore.Now().UTC().Format(readmodel.TimeLayout)
		return nil
	})
	if !found {
		return readmodel.OrderReadModel{}, ErrOrderNotFound
	}
	return o, err
}
