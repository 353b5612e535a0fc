/*
handlers.go - HTTP API handlers for the stock engine

PURPOSE:
  Exposes the ledger and its use cases via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET    /api/variants                       List variants
    POST   /api/variants                       Create variant
    GET    /api/variants/{sku}                 Get variant
    POST   /api/variants/{sku}/archive         Soft-archive variant
    GET    /api/variants/{sku}/availability    Aggregate availability
    GET    /api/variants/{sku}/status          Stock-status bucket
    GET    /api/variants/{sku}/stock           Per-location records
    GET    /api/locations                      List locations
    POST   /api/locations                      Create location
    POST   /api/stock                          Receive stock

  Cart / Checkout:
    GET    /api/cart/{session}                 List held items
    POST   /api/cart/{session}/items           Add to cart (reserve)
    DELETE /api/cart/{session}/items           Remove (release)
    POST   /api/checkout/{session}             Place order
    GET    /api/orders/{id}                    Get order

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Insufficient stock, SKU conflicts
  - 500: Internal errors
  Insufficient stock is an expected outcome: the response names the
  SKU with the requested and available quantities, never a 5xx.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/catalog"
	"github.com/warp/stock-engine/checkout"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Catalog  *catalog.Catalog
	Status   *catalog.StatusReader
	Ledger   *inventory.Ledger
	Cart     *checkout.Cart
	Checkout *checkout.Checkout
}

// NewHandler wires the use cases over the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Catalog:  catalog.NewCatalog(store),
		Status:   catalog.NewStatusReader(store),
		Ledger:   inventory.NewLedger(store),
		Cart:     checkout.NewCart(store, store),
		Checkout: checkout.NewCheckout(store, store, store),
	}
}

// =============================================================================
// VARIANT HANDLERS
// =============================================================================

// ListVariants returns all variants.
func (h *Handler) ListVariants(w http.ResponseWriter, r *http.Request) {
	variants, err := h.Store.ListVariants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list variants", err)
		return
	}

	dtos := make([]VariantDTO, len(variants))
	for i, v := range variants {
		dtos[i] = toVariantDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateVariant registers a new SKU.
func (h *Handler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	var req CreateVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var price *decimal.Decimal
	if req.Price != "" {
		d, err := decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid price", err)
			return
		}
		price = &d
	}

	v, err := h.Catalog.CreateVariant(r.Context(), inventory.SKU(req.SKU), req.Name, price)
	if err != nil {
		if errors.Is(err, catalog.ErrSKUTaken) {
			writeError(w, http.StatusConflict, "SKU already in use", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to create variant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toVariantDTO(*v))
}

// GetVariant returns a single variant.
func (h *Handler) GetVariant(w http.ResponseWriter, r *http.Request) {
	sku := inventory.SKU(chi.URLParam(r, "sku"))

	v, err := h.Store.VariantBySKU(r.Context(), sku)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get variant", err)
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "Variant not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toVariantDTO(*v))
}

// ArchiveVariant soft-archives a variant.
func (h *Handler) ArchiveVariant(w http.ResponseWriter, r *http.Request) {
	sku := inventory.SKU(chi.URLParam(r, "sku"))

	if err := h.Catalog.ArchiveVariant(r.Context(), sku); err != nil {
		if errors.Is(err, catalog.ErrVariantNotFound) {
			writeError(w, http.StatusNotFound, "Variant not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to archive variant", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sku": string(sku), "archived": true})
}

// GetAvailability returns aggregate availability for a SKU.
// Unknown SKUs read as zero, matching the ledger contract.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	sku := inventory.SKU(chi.URLParam(r, "sku"))

	available, err := h.Ledger.AvailableQuantity(r.Context(), sku)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read availability", err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityDTO{SKU: string(sku), Available: available})
}

// GetStockStatus returns the display bucket for product pages.
func (h *Handler) GetStockStatus(w http.ResponseWriter, r *http.Request) {
	sku := inventory.SKU(chi.URLParam(r, "sku"))

	status, available, err := h.Status.Status(r.Context(), sku)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read stock status", err)
		return
	}
	writeJSON(w, http.StatusOK, StockStatusDTO{
		SKU:       string(sku),
		Status:    string(status),
		Available: available,
	})
}

// GetStockRecords returns per-location stock rows for a SKU.
func (h *Handler) GetStockRecords(w http.ResponseWriter, r *http.Request) {
	sku := inventory.SKU(chi.URLParam(r, "sku"))

	records, err := h.Store.RecordsForSKU(r.Context(), sku)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read stock records", err)
		return
	}

	dtos := make([]StockRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toStockRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LOCATION / RECEIVING HANDLERS
// =============================================================================

// ListLocations returns all locations.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Store.ListLocations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list locations", err)
		return
	}

	dtos := make([]LocationDTO, len(locations))
	for i, loc := range locations {
		dtos[i] = LocationDTO{
			ID:     string(loc.ID),
			Code:   loc.Code,
			Name:   loc.Name,
			Active: loc.Active,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLocation registers a stock-holding site.
func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	loc, err := h.Catalog.CreateLocation(r.Context(), req.Code, req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to create location", err)
		return
	}
	writeJSON(w, http.StatusCreated, LocationDTO{
		ID:     string(loc.ID),
		Code:   loc.Code,
		Name:   loc.Name,
		Active: loc.Active,
	})
}

// ReceiveStock provisions units at a location.
func (h *Handler) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	var req ReceiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := h.Catalog.Receive(r.Context(),
		inventory.SKU(req.SKU), inventory.LocationID(req.LocationID), req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, "Quantity must be positive", err)
		case errors.Is(err, catalog.ErrVariantNotFound), errors.Is(err, catalog.ErrLocationNotFound):
			writeError(w, http.StatusNotFound, "Unknown variant or location", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to receive stock", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sku":      req.SKU,
		"received": req.Quantity,
	})
}

// =============================================================================
// CART HANDLERS
// =============================================================================

// GetCart returns the session's held items.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	session := inventory.SessionID(chi.URLParam(r, "session"))

	holds, err := h.Cart.Items(r.Context(), session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read cart", err)
		return
	}

	dtos := make([]CartItemDTO, len(holds))
	for i, hold := range holds {
		dtos[i] = CartItemDTO{
			SKU:      string(hold.SKU),
			Quantity: hold.Quantity,
			HeldAt:   hold.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddToCart reserves stock for the session.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	session := inventory.SessionID(chi.URLParam(r, "session"))

	var req CartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := h.Cart.Add(r.Context(), session, inventory.SKU(req.SKU), req.Quantity)
	if err != nil {
		writeStockError(w, err, "Failed to add to cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sku":      req.SKU,
		"reserved": req.Quantity,
	})
}

// RemoveFromCart releases held stock for the session.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	session := inventory.SessionID(chi.URLParam(r, "session"))

	var req CartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := h.Cart.Remove(r.Context(), session, inventory.SKU(req.SKU), req.Quantity)
	if err != nil {
		writeStockError(w, err, "Failed to remove from cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sku":      req.SKU,
		"released": req.Quantity,
	})
}

// =============================================================================
// CHECKOUT / ORDER HANDLERS
// =============================================================================

// PlaceOrder runs the checkout protocol for the session.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	session := inventory.SessionID(chi.URLParam(r, "session"))

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Order has no line items", nil)
		return
	}

	lines := make([]checkout.LineItem, len(req.Items))
	for i, item := range req.Items {
		lines[i] = checkout.LineItem{SKU: inventory.SKU(item.SKU), Quantity: item.Quantity}
	}

	order, err := h.Checkout.PlaceOrder(r.Context(), session, lines)
	if err != nil {
		writeStockError(w, err, "Failed to place order")
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(*order))
}

// ListSessionOrders returns the session's placed orders.
func (h *Handler) ListSessionOrders(w http.ResponseWriter, r *http.Request) {
	session := inventory.SessionID(chi.URLParam(r, "session"))

	orders, err := h.Store.OrdersBySession(r.Context(), session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOrder returns a placed order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.Store.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*order))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStockError maps domain errors from the ledger and use cases to
// HTTP responses. Insufficient stock is 409 with a structured payload
// the storefront renders directly.
func writeStockError(w http.ResponseWriter, err error, fallback string) {
	var insufficient *inventory.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: "Insufficient stock",
			Code:  "insufficient_stock",
			Details: map[string]any{
				"sku":       string(insufficient.SKU),
				"requested": insufficient.Requested,
				"available": insufficient.Available,
			},
		})
	case errors.Is(err, inventory.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "Quantity must be positive", err)
	case errors.Is(err, inventory.ErrUnknownSKU):
		writeError(w, http.StatusNotFound, "Unknown SKU", err)
	default:
		writeError(w, http.StatusInternalServerError, fallback, err)
	}
}
