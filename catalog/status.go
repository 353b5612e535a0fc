/*
status.go - Stock-status reader for product pages

PURPOSE:
  Product pages need a cheap, read-only "in stock" signal. This reader
  aggregates availability across locations and buckets it against a
  low-water mark. It never takes a lock and may be slightly stale by
  the time it renders - the reserve step, not this display, is what
  prevents oversell.
*/
package catalog

import (
	"context"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// STOCK STATUS
// =============================================================================

type Status string

const (
	StatusInStock    Status = "in_stock"
	StatusLowStock   Status = "low_stock"
	StatusOutOfStock Status = "out_of_stock"
)

// DefaultLowWater is the threshold at or below which a variant shows
// as low stock.
const DefaultLowWater = 5

// StatusReader answers "can this be bought right now" for display.
type StatusReader struct {
	ledger   *inventory.Ledger
	LowWater int
}

func NewStatusReader(store inventory.Store) *StatusReader {
	return &StatusReader{
		ledger:   inventory.NewLedger(store),
		LowWater: DefaultLowWater,
	}
}

// Status returns the display bucket and the available quantity.
// Unknown SKUs read as out of stock with zero available.
func (r *StatusReader) Status(ctx context.Context, sku inventory.SKU) (Status, int, error) {
	available, err := r.ledger.AvailableQuantity(ctx, sku)
	if err != nil {
		return StatusOutOfStock, 0, err
	}

	switch {
	case available <= 0:
		return StatusOutOfStock, 0, nil
	case available <= r.LowWater:
		return StatusLowStock, available, nil
	default:
		return StatusInStock, available, nil
	}
}
