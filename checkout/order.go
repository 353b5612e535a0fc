/*
order.go - Order placement use case

PURPOSE:
  The checkout-time protocol that must never oversell:
  1. Re-validate availability for EVERY line item; any shortfall
     aborts the whole order. No partial orders, ever.
  2. Create the Order and OrderItems.
  3. Commit every reservation (deduct on-hand, clear reserved).
  Steps 2-3 run inside one database transaction: a crash or error
  between order creation and stock deduction rolls both back.

WHY RE-VALIDATE:
  Reserve already ran at add-to-cart time, but a hold may have lapsed
  (expiration sweep) and the minimal design does not hard-bind a
  reservation row to an order. Checking again is cheap and defensive.

SEE ALSO:
  - types.go: TxRunner, the atomic unit of work
  - store/sqlite: WithOrderTx implementation
*/
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// CHECKOUT
// =============================================================================

// Checkout is the order placement use case.
type Checkout struct {
	tx       TxRunner
	holds    HoldStore
	variants VariantReader
	now      func() time.Time
}

// NewCheckout creates the checkout use case. variants may be nil when
// pricing is handled elsewhere; items then carry a zero unit price.
func NewCheckout(tx TxRunner, holds HoldStore, variants VariantReader) *Checkout {
	return &Checkout{
		tx:       tx,
		holds:    holds,
		variants: variants,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder creates an order for the session's line items and commits
// the matching reservations, all inside one transaction.
//
// Returns *inventory.InsufficientStockError naming the first SKU that
// cannot be covered; in that case no order exists and no stock moved.
func (c *Checkout) PlaceOrder(ctx context.Context, session inventory.SessionID, lines []LineItem) (*Order, error) {
	if len(lines) == 0 {
		return nil, errors.New("order has no line items")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("line %s: %w", line.SKU, inventory.ErrInvalidQuantity)
		}
	}

	// Resolve prices before entering the transaction; catalog data is
	// static relative to a checkout.
	prices := make(map[inventory.SKU]decimal.Decimal, len(lines))
	for _, line := range lines {
		prices[line.SKU] = c.priceFor(ctx, line.SKU)
	}

	order := &Order{
		ID:        uuid.NewString(),
		SessionID: session,
		Status:    OrderPlaced,
		CreatedAt: c.now(),
	}

	err := c.tx.WithOrderTx(ctx, func(stock inventory.Store, orders OrderWriter) error {
		ledger := inventory.NewLedger(stock)

		// Step 1: every line must pass before anything is written.
		for _, line := range lines {
			available, err := ledger.AvailableQuantity(ctx, line.SKU)
			if err != nil {
				return err
			}
			if available < line.Quantity {
				return &inventory.InsufficientStockError{
					SKU:       line.SKU,
					Requested: line.Quantity,
					Available: available,
				}
			}
		}

		// Step 2: build and persist the order.
		total := decimal.Zero
		order.Items = order.Items[:0]
		for _, line := range lines {
			price := prices[line.SKU]
			order.Items = append(order.Items, OrderItem{
				ID:        uuid.NewString(),
				OrderID:   order.ID,
				SKU:       line.SKU,
				Quantity:  line.Quantity,
				UnitPrice: price,
			})
			total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		order.Total = total

		if err := orders.SaveOrder(ctx, *order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// Step 3: deduct stock for every line. Any failure rolls the
		// order back with it.
		for _, line := range lines {
			if err := ledger.CommitReservation(ctx, line.SKU, line.Quantity, session); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Holds are advisory; clearing them after commit is best-effort.
	for _, line := range lines {
		if err := c.holds.DeleteHolds(ctx, session, line.SKU); err != nil {
			return order, fmt.Errorf("order placed but holds not cleared: %w", err)
		}
	}
	return order, nil
}

func (c *Checkout) priceFor(ctx context.Context, sku inventory.SKU) decimal.Decimal {
	if c.variants == nil {
		return decimal.Zero
	}
	v, err := c.variants.VariantBySKU(ctx, sku)
	if err != nil || v == nil || v.Price == nil {
		return decimal.Zero
	}
	return *v.Price
}
