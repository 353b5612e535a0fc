/*
cart.go - Add-to-cart use case

PURPOSE:
  Orchestrates the reservation half of the two-phase lifecycle:
  validate the request, check availability, ask the ledger to reserve,
  and record a hold for cart display and later expiration.

PROTOCOL (per add):
  1. Validate quantity > 0.
  2. Read available quantity; if short, fail with the known figure.
  3. Reserve; a false return means we lost a race since step 2 - the
     shopper sees the same "out of stock" message with a fresh figure.
  4. Record the hold.

  The gap between steps 2 and 3 is intentional: readers never block,
  and the stale-read case is caught by the reserve itself.

SEE ALSO:
  - inventory/ledger.go: Reserve semantics
  - order.go: The commit half at checkout time
*/
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// CART
// =============================================================================

// Cart is the add-to-cart use case. One instance serves all sessions.
type Cart struct {
	ledger *inventory.Ledger
	holds  HoldStore
	now    func() time.Time
}

// NewCart creates the cart use case over the given stock store.
func NewCart(store inventory.Store, holds HoldStore) *Cart {
	return &Cart{
		ledger: inventory.NewLedger(store),
		holds:  holds,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add holds qty units of sku for the session.
// Returns *inventory.InsufficientStockError when the stock cannot
// cover the request; the error carries the best-known available figure
// for user messaging.
func (c *Cart) Add(ctx context.Context, session inventory.SessionID, sku inventory.SKU, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}

	available, err := c.ledger.AvailableQuantity(ctx, sku)
	if err != nil {
		return err
	}
	if available < qty {
		return &inventory.InsufficientStockError{SKU: sku, Requested: qty, Available: available}
	}

	ok, err := c.ledger.Reserve(ctx, sku, qty, session)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race since the availability check. Re-read so the
		// shopper sees the current figure, not the stale one.
		available, readErr := c.ledger.AvailableQuantity(ctx, sku)
		if readErr != nil {
			available = 0
		}
		return &inventory.InsufficientStockError{SKU: sku, Requested: qty, Available: available}
	}

	hold := inventory.Hold{
		ID:        uuid.NewString(),
		SKU:       sku,
		SessionID: session,
		Quantity:  qty,
		CreatedAt: c.now(),
	}
	if err := c.holds.SaveHold(ctx, hold); err != nil {
		return fmt.Errorf("failed to record hold: %w", err)
	}
	return nil
}

// Remove releases qty units of sku held by the session and drops the
// matching holds. Releasing more than is held is floored at zero by
// the ledger, never an error.
func (c *Cart) Remove(ctx context.Context, session inventory.SessionID, sku inventory.SKU, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}

	if err := c.ledger.ReleaseReservation(ctx, sku, qty, session); err != nil {
		return err
	}
	return c.holds.DeleteHolds(ctx, session, sku)
}

// Items returns the session's current holds for cart display.
func (c *Cart) Items(ctx context.Context, session inventory.SessionID) ([]inventory.Hold, error) {
	return c.holds.HoldsBySession(ctx, session)
}
