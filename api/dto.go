/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract,
  allowing field renaming and version evolution without breaking
  clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/stock-engine/checkout"
	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// VariantDTO represents a purchasable SKU in API responses.
type VariantDTO struct {
	ID        string `json:"id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Price     string `json:"price,omitempty"`
	Archived  bool   `json:"archived"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateVariantRequest is the request to create a variant.
type CreateVariantRequest struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Price string `json:"price,omitempty"` // decimal string; empty = no override
}

// LocationDTO represents a stock-holding site.
type LocationDTO struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// CreateLocationRequest is the request to create a location.
type CreateLocationRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ReceiveStockRequest is the request to provision stock.
type ReceiveStockRequest struct {
	SKU        string `json:"sku"`
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
}

// StockRecordDTO represents one (sku, location) stock row.
type StockRecordDTO struct {
	ID         string `json:"id"`
	SKU        string `json:"sku"`
	LocationID string `json:"location_id"`
	OnHand     int    `json:"on_hand"`
	Reserved   int    `json:"reserved"`
	Available  int    `json:"available"`
	Version    int64  `json:"version"`
}

// AvailabilityDTO is the aggregate availability for a SKU.
type AvailabilityDTO struct {
	SKU       string `json:"sku"`
	Available int    `json:"available"`
}

// StockStatusDTO is the display bucket for product pages.
type StockStatusDTO struct {
	SKU       string `json:"sku"`
	Status    string `json:"status"`
	Available int    `json:"available"`
}

// CartLineRequest adds or removes cart quantity.
type CartLineRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// CartItemDTO is one held line in a cart.
type CartItemDTO struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	HeldAt   string `json:"held_at"`
}

// CheckoutRequest places an order for the session.
type CheckoutRequest struct {
	Items []CartLineRequest `json:"items"`
}

// OrderDTO represents a placed order.
type OrderDTO struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Status    string         `json:"status"`
	Total     string         `json:"total"`
	CreatedAt string         `json:"created_at"`
	Items     []OrderItemDTO `json:"items"`
}

type OrderItemDTO struct {
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// ErrorResponse is the standard error response. For insufficient
// stock, Details carries {sku, requested, available}.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toVariantDTO(v inventory.Variant) VariantDTO {
	dto := VariantDTO{
		ID:        v.ID,
		SKU:       string(v.SKU),
		Name:      v.Name,
		Archived:  v.Archived,
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
	if v.Price != nil {
		dto.Price = v.Price.String()
	}
	return dto
}

func toStockRecordDTO(rec inventory.StockRecord) StockRecordDTO {
	return StockRecordDTO{
		ID:         rec.ID,
		SKU:        string(rec.SKU),
		LocationID: string(rec.LocationID),
		OnHand:     rec.OnHand,
		Reserved:   rec.Reserved,
		Available:  rec.Available(),
		Version:    rec.Version,
	}
}

func toOrderDTO(o checkout.Order) OrderDTO {
	dto := OrderDTO{
		ID:        o.ID,
		SessionID: string(o.SessionID),
		Status:    string(o.Status),
		Total:     o.Total.String(),
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
		Items:     make([]OrderItemDTO, len(o.Items)),
	}
	for i, item := range o.Items {
		dto.Items[i] = OrderItemDTO{
			SKU:       string(item.SKU),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
		}
	}
	return dto
}
