package query

import (
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/domain/catalog"
	"github.com/example/ec-storefront/internal/readmodel"
)

type Handler struct {
	readStore *readmodel.Store
}

func NewHandler(readStore *readmodel.Store) *Handler {
	return &Handler{readStore: readStore}
}

// Catalog
func (h *Handler) ListCategories() []catalog.Category {
	return h.readStore.ListCategories()
}

// ListProducts returns every product, or only those in categoryID when it is non-zero.
func (h *Handler) ListProducts(categoryID int64) []catalog.Product {
	products := h.readStore.ListProducts()
	if categoryID == 0 {
		return products
	}
	return catalog.FilterByCategory(products, categoryID)
}

func (h *Handler) GetProduct(id int64) (catalog.Product, bool) {
	return h.readStore.GetProduct(id)
}

// Users

// Authenticate returns the user whose username and password match.
func (h *Handler) Authenticate(username, password string) (UserReadModel, bool) {
	u, ok := h.readStore.GetUserByUsername(username)
	if !ok || !auth.CheckPassword(password, u.PasswordHash) {
		return UserReadModel{}, false
	}
	return u, true
}

func (h *Handler) GetUser(id int64) (UserReadModel, bool) {
	return h.readStore.GetUser(id)
}

// Cart
func (h *Handler) GetCart(userID int64) CartReadModel {
	return h.readStore.GetCart(userID)
}

// Orders

// GetOrder returns order id if it belongs to userID. Orders of other users
// are reported as missing.
func (h *Handler) GetOrder(userID, id int64) (OrderReadModel, bool) {
	o, ok := h.readStore.GetOrder(id)
	if !ok || o.User != userID {
		return OrderReadModel{}, false
	}
	return o, true
}

func (h *Handler) ListOrdersByUser(userID int64) []OrderReadModel {
	return h.readStore.ListOrdersByUser(userID)
}
