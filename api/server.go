/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the storefront frontend

ROUTE GROUPS:
  /api/variants/*    Catalog and availability
  /api/locations/*   Stock-holding sites
  /api/stock         Receiving
  /api/cart/*        Session holds (reserve/release)
  /api/checkout/*    Order placement
  /api/orders/*      Placed orders

SECURITY NOTE:
  No authentication middleware. Session identifiers are supplied by
  the cart layer, which owns authentication - out of scope here.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/variants", func(r chi.Router) {
			r.Get("/", h.ListVariants)
			r.Post("/", h.CreateVariant)
			r.Get("/{sku}", h.GetVariant)
			r.Post("/{sku}/archive", h.ArchiveVariant)
			r.Get("/{sku}/availability", h.GetAvailability)
			r.Get("/{sku}/status", h.GetStockStatus)
			r.Get("/{sku}/stock", h.GetStockRecords)
		})

		// Location routes
		r.Route("/locations", func(r chi.Router) {
			r.Get("/", h.ListLocations)
			r.Post("/", h.CreateLocation)
		})

		// Receiving
		r.Post("/stock", h.ReceiveStock)

		// Cart routes
		r.Route("/cart/{session}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddToCart)
			r.Delete("/items", h.RemoveFromCart)
		})

		// Checkout / order routes
		r.Post("/checkout/{session}", h.PlaceOrder)
		r.Get("/orders/{id}", h.GetOrder)
		r.Get("/sessions/{session}/orders", h.ListSessionOrders)
	})

	return r
}
