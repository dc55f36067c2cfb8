package api

import (
	"log"
	"net/http"
	"time"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/auth"
)

// RouterConfig holds the dependencies of the API routes
type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
	Revocations  middleware.RevocationChecker
}

// NewRouter mounts the storefront API under /api/
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	h := cfg.Handlers
	a := cfg.AuthHandlers
	requireAuth := middleware.AuthMiddleware(cfg.JWTService, cfg.Revocations)
	protected := func(fn http.HandlerFunc) http.Handler {
		return requireAuth(fn)
	}

	// Public
	mux.HandleFunc("POST /api/register/{$}", a.Register)
	mux.HandleFunc("POST /api/login/{$}", a.Login)
	mux.HandleFunc("GET /api/categories/{$}", h.GetCategories)
	mux.HandleFunc("GET /api/categories/{id}/{$}", h.GetCategory)
	mux.HandleFunc("GET /api/products/{$}", h.GetProducts)
	mux.HandleFunc("GET /api/products/{id}/{$}", h.GetProduct)

	// Session required
	mux.Handle("POST /api/logout/{$}", protected(a.Logout))
	mux.Handle("GET /api/profile/{$}", protected(a.Profile))
	mux.Handle("GET /api/carts/{$}", protected(h.GetCart))
	mux.Handle("POST /api/carts/{$}", protected(h.AddToCart))
	mux.Handle("DELETE /api/carts/clear/{$}", protected(h.ClearCart))
	mux.Handle("GET /api/orders/{$}", protected(h.GetOrders))
	mux.Handle("POST /api/orders/{$}", protected(h.PlaceOrder))
	mux.Handle("GET /api/orders/{id}/{$}", protected(h.GetOrder))
	mux.Handle("PATCH /api/orders/{id}/{$}", protected(h.UpdateOrder))

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[API] %s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
	})
}
