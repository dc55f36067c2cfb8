package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Catalog Handlers

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListCategories())
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	for _, c := range h.queryHandler.ListCategories() {
		if c.ID == id {
			respondJSON(w, http.StatusOK, c)
			return
		}
	}
	respondJSONError(w, "Not found.", http.StatusNotFound)
}

// GetProducts lists products, optionally narrowed with ?category=<id>
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	var categoryID int64
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondJSONError(w, "Invalid category.", http.StatusBadRequest)
			return
		}
		categoryID = id
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts(categoryID))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, found := h.queryHandler.GetProduct(id)
	if !found {
		respondJSONError(w, "Not found.", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	respondJSON(w, http.StatusOK, h.queryHandler.GetCart(userID))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())

	item, err := h.cmdHandler.AddToCart(cmd)
	switch {
	case errors.Is(err, command.ErrInvalidQuantity):
		respondFieldErrors(w, command.ValidationErrors{"quantity": {"Ensure this value is greater than or equal to 1."}})
		return
	case errors.Is(err, command.ErrProductNotFound):
		respondFieldErrors(w, command.ValidationErrors{"product": {"Invalid pk - object does not exist."}})
		return
	case err != nil:
		log.Printf("[API] Error adding to cart: %v", err)
		respondJSONError(w, "Failed to add to cart", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.ClearCart{UserID: middleware.GetUserID(r.Context())}
	if err := h.cmdHandler.ClearCart(cmd); err != nil {
		log.Printf("[API] Error clearing cart: %v", err)
		respondJSONError(w, "Failed to clear cart", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Cart cleared."})
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	respondJSON(w, http.StatusOK, h.queryHandler.ListOrdersByUser(userID))
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o, found := h.queryHandler.GetOrder(middleware.GetUserID(r.Context()), id)
	if !found {
		respondJSONError(w, "Not found.", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// PlaceOrder creates an order from the caller's cart
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())

	o, err := h.cmdHandler.PlaceOrder(cmd)
	if errors.Is(err, command.ErrEmptyCart) {
		respondJSONError(w, "Cart is empty.", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("[API] Error placing order: %v", err)
		respondJSONError(w, "Failed to place order", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var cmd command.UpdateOrderStatus
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())
	cmd.OrderID = id

	o, err := h.cmdHandler.UpdateOrderStatus(cmd)
	switch {
	case errors.Is(err, command.ErrOrderNotFound):
		respondJSONError(w, "Not found.", http.StatusNotFound)
		return
	case errors.Is(err, command.ErrInvalidOrderState):
		respondFieldErrors(w, command.ValidationErrors{"status": {"\"" + cmd.Status + "\" is not a valid choice."}})
		return
	case err != nil:
		log.Printf("[API] Error updating order %d: %v", id, err)
		respondJSONError(w, "Failed to update order", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Helper functions

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Error encoding response: %v", err)
	}
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"detail": message})
}

func respondFieldErrors(w http.ResponseWriter, errs command.ValidationErrors) {
	respondJSON(w, http.StatusBadRequest, errs)
}

// pathID parses the {id} path segment, answering 404 when it is not a number
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondJSONError(w, "Not found.", http.StatusNotFound)
		return 0, false
	}
	return id, true
}
