/*
Package inventory provides the core stock ledger engine.

PURPOSE:
  This package contains the types and algorithms for tracking physical
  stock across locations and for holding units against in-flight carts.
  Whether the caller is a storefront "add to cart" button or a checkout
  flow, the same engine answers availability queries and performs the
  reserve -> commit/release lifecycle.

KEY CONCEPTS IN THIS FILE (types.go):
  - StockRecord: One row per (SKU, location) with on-hand, reserved,
    and an optimistic-locking version counter
  - Variant: A purchasable SKU (catalog reference data)
  - Location: A stock-holding site (warehouse, store)
  - Hold: A logical reservation held by a cart session

DESIGN PRINCIPLES:
  1. Optimistic: No row locks. Writers detect conflicts via the
     version counter and re-read.
  2. Conservative: A mutation that would violate an invariant is
     rejected, never clamped.
  3. Type Safety: Strong typing for SKU/location/session identifiers
     prevents mixing them up.
  4. Integer quantities: Units are whole; money uses decimal.Decimal.

INVARIANTS (per StockRecord, after every mutation):
  0 <= Reserved <= OnHand
  Available = OnHand - Reserved >= 0
  Version strictly increases on every successful mutation.

SEE ALSO:
  - ledger.go: Reserve/commit/release state machine
  - store.go: Persistence interface with conditional updates
  - errors.go: Error taxonomy
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// SKU is the stable external identifier for a product variant.
// Callers are keyed by SKU, never by internal storage ids.
type SKU string

// LocationID identifies a stock-holding site.
type LocationID string

// SessionID identifies an unchecked-out cart for the lifetime of the cart.
type SessionID string

// =============================================================================
// VARIANT - Purchasable SKU (catalog reference data, read-only here)
// =============================================================================

type Variant struct {
	ID       string
	SKU      SKU
	Name     string
	Price    *decimal.Decimal // optional price override; nil = inherit
	Archived bool             // variants are soft-archived, never deleted
	CreatedAt time.Time
}

// =============================================================================
// LOCATION - Stock-holding site (static reference data)
// =============================================================================

type Location struct {
	ID     LocationID
	Code   string // unique human-stable code, e.g. "WH-EAST"
	Name   string
	Active bool
}

// =============================================================================
// STOCK RECORD - The core entity: one row per (SKU, location)
// =============================================================================

// StockRecord tracks physical units at one location.
//
// OnHand is the number of units physically present. Reserved is the
// number held by open carts or pending orders but not yet deducted.
// Version exists solely for optimistic concurrency control and carries
// no business meaning.
type StockRecord struct {
	ID         string
	SKU        SKU
	LocationID LocationID
	OnHand     int
	Reserved   int
	Version    int64
	UpdatedAt  time.Time
}

// Available returns OnHand - Reserved, clamped at zero for display.
// The clamp is read-side only; writes that would go negative are
// rejected, never repaired here.
func (r StockRecord) Available() int {
	avail := r.OnHand - r.Reserved
	if avail < 0 {
		return 0
	}
	return avail
}

// CanFulfill reports whether this single location can absorb a
// reservation of qty units on its own. Reservations are never split
// across locations.
func (r StockRecord) CanFulfill(qty int) bool {
	return r.OnHand-r.Reserved >= qty
}

// Valid reports whether the record satisfies the core invariant.
func (r StockRecord) Valid() bool {
	return r.OnHand >= 0 && r.Reserved >= 0 && r.Reserved <= r.OnHand
}

// =============================================================================
// HOLD - Logical reservation held by a cart session
// =============================================================================

// Hold associates a reserved quantity with a (SKU, session) pair.
// The aggregate Reserved counters on StockRecords remain the source of
// truth; holds exist so carts can be displayed and expired holds can
// be swept back to availability.
type Hold struct {
	ID        string
	SKU       SKU
	SessionID SessionID
	Quantity  int
	CreatedAt time.Time
}
