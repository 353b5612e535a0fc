/*
Package checkout orchestrates the cart and order-placement use cases.

PURPOSE:
  The inventory ledger never talks to the UI directly; this package is
  its only caller. Cart covers "add to cart" (availability check +
  reserve), Checkout covers "place order" (re-validate, create order,
  commit every reservation in one unit of work), and Sweeper returns
  abandoned holds to availability.

KEY TYPES IN THIS FILE (types.go):
  - LineItem: What the shopper wants (SKU + quantity)
  - Order / OrderItem: Created atomically with the stock deduction
  - HoldStore / OrderStore: Persistence ports implemented by sqlite
  - TxRunner: The atomic unit of work spanning orders and stock

SEE ALSO:
  - cart.go: Add-to-cart use case
  - order.go: Order placement use case
  - sweeper.go: Hold expiration
*/
package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// LINE ITEMS AND ORDERS
// =============================================================================

// LineItem is one requested (SKU, quantity) pair.
type LineItem struct {
	SKU      inventory.SKU
	Quantity int
}

type OrderStatus string

const (
	OrderPlaced OrderStatus = "placed"
)

// Order is created atomically with the final commit step. Item
// quantities always match the quantities committed against the ledger.
type Order struct {
	ID        string
	SessionID inventory.SessionID
	Status    OrderStatus
	Total     decimal.Decimal
	CreatedAt time.Time
	Items     []OrderItem
}

type OrderItem struct {
	ID        string
	OrderID   string
	SKU       inventory.SKU
	Quantity  int
	UnitPrice decimal.Decimal // zero when the variant has no price override
}

// =============================================================================
// PERSISTENCE PORTS
// =============================================================================

// HoldStore persists cart holds. Holds drive cart display and the
// expiration sweep only; the aggregate Reserved counters on stock
// records remain authoritative.
type HoldStore interface {
	SaveHold(ctx context.Context, h inventory.Hold) error
	DeleteHold(ctx context.Context, id string) error
	// DeleteHolds removes all holds for (session, sku).
	DeleteHolds(ctx context.Context, session inventory.SessionID, sku inventory.SKU) error
	HoldsBySession(ctx context.Context, session inventory.SessionID) ([]inventory.Hold, error)
	// ExpiredHolds returns holds created before the cutoff.
	ExpiredHolds(ctx context.Context, cutoff time.Time) ([]inventory.Hold, error)
}

// OrderWriter is the slice of order persistence available inside the
// checkout transaction.
type OrderWriter interface {
	SaveOrder(ctx context.Context, o Order) error
}

// OrderStore adds the read side used by the API.
type OrderStore interface {
	OrderWriter
	GetOrder(ctx context.Context, id string) (*Order, error)
}

// VariantReader resolves SKUs to catalog variants for pricing.
type VariantReader interface {
	VariantBySKU(ctx context.Context, sku inventory.SKU) (*inventory.Variant, error)
}

// TxRunner executes fn inside one database transaction, giving it a
// transactional view of both stock records and order persistence.
// Either the order and all stock deductions persist together, or none
// do - this is the property that keeps an order from existing without
// its stock ever being decremented (or vice versa).
type TxRunner interface {
	WithOrderTx(ctx context.Context, fn func(stock inventory.Store, orders OrderWriter) error) error
}
