/*
Package catalog manages reference data and stock provisioning.

PURPOSE:
  Variants and locations are the reference data the ledger reads but
  never owns. This package guarantees SKU uniqueness, soft-archives
  variants instead of deleting them, and provisions stock records when
  units are first received at a location.

RESPONSIBILITIES:
  - Variant lifecycle: create (unique SKU), archive. Never deleted.
  - Location lifecycle: create with unique code, activate/deactivate.
  - Receiving: create or top up the (SKU, location) stock record.
  - Stock status: the read-only "in stock" signal for product pages.

SEE ALSO:
  - status.go: Stock-status reader
  - inventory: StockRecord and the conditional-update contract
*/
package catalog

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
// ERRORS
// =============================================================================

var (
	// ErrSKUTaken is returned when creating a variant with an existing SKU.
	// SKUs are immutable once stock exists against them.
	ErrSKUTaken = errors.New("sku already in use")

	// ErrVariantNotFound is returned for lookups of unknown variants.
	ErrVariantNotFound = errors.New("variant not found")

	// ErrLocationNotFound is returned for lookups of unknown locations.
	ErrLocationNotFound = errors.New("location not found")
)

// =============================================================================
// PERSISTENCE PORTS
// =============================================================================

type VariantStore interface {
	SaveVariant(ctx context.Context, v inventory.Variant) error
	VariantBySKU(ctx context.Context, sku inventory.SKU) (*inventory.Variant, error)
	ListVariants(ctx context.Context) ([]inventory.Variant, error)
}

type LocationStore interface {
	SaveLocation(ctx context.Context, loc inventory.Location) error
	GetLocation(ctx context.Context, id inventory.LocationID) (*inventory.Location, error)
	ListLocations(ctx context.Context) ([]inventory.Location, error)
}

// Store is the combined persistence surface the catalog needs.
// store/sqlite implements all of it.
type Store interface {
	VariantStore
	LocationStore
	inventory.Store
}

// =============================================================================
// CATALOG
// =============================================================================

type Catalog struct {
	store Store
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// CreateVariant registers a new purchasable SKU. price may be nil
// (no override).
func (c *Catalog) CreateVariant(ctx context.Context, sku inventory.SKU, name string, price *decimal.Decimal) (*inventory.Variant, error) {
	if sku == "" {
		return nil, errors.New("sku must not be empty")
	}
	// VariantBySKU reports "unknown" as (nil, nil); an error here is a
	// real store failure.
	existing, err := c.store.VariantBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", sku, ErrSKUTaken)
	}

	v := inventory.Variant{
		ID:        uuid.NewString(),
		SKU:       sku,
		Name:      name,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.SaveVariant(ctx, v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ArchiveVariant soft-archives a variant. Its stock records and order
// history remain untouched.
func (c *Catalog) ArchiveVariant(ctx context.Context, sku inventory.SKU) error {
	v, err := c.store.VariantBySKU(ctx, sku)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("%s: %w", sku, ErrVariantNotFound)
	}
	v.Archived = true
	return c.store.SaveVariant(ctx, *v)
}

// CreateLocation registers a stock-holding site.
func (c *Catalog) CreateLocation(ctx context.Context, code, name string) (*inventory.Location, error) {
	if code == "" {
		return nil, errors.New("location code must not be empty")
	}
	loc := inventory.Location{
		ID:     inventory.LocationID(uuid.NewString()),
		Code:   code,
		Name:   name,
		Active: true,
	}
	if err := c.store.SaveLocation(ctx, loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// =============================================================================
// RECEIVING - Stock provisioning
// =============================================================================

// receiveAttempts bounds the conditional-update loop when topping up
// an existing record. Receiving contends with checkout traffic on the
// same rows, so it retries the same way the ledger does.
const receiveAttempts = 3

// Receive adds qty physical units of sku at the location, creating the
// stock record on first receipt.
func (c *Catalog) Receive(ctx context.Context, sku inventory.SKU, locationID inventory.LocationID, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}
	if v, err := c.store.VariantBySKU(ctx, sku); err != nil {
		return err
	} else if v == nil {
		return fmt.Errorf("%s: %w", sku, ErrVariantNotFound)
	}
	if loc, err := c.store.GetLocation(ctx, locationID); err != nil {
		return err
	} else if loc == nil {
		return fmt.Errorf("%s: %w", locationID, ErrLocationNotFound)
	}

	for attempt := 0; attempt < receiveAttempts; attempt++ {
		rec, err := c.store.GetRecord(ctx, sku, locationID)
		if errors.Is(err, inventory.ErrRecordNotFound) {
			createErr := c.store.CreateRecord(ctx, inventory.StockRecord{
				ID:         uuid.NewString(),
				SKU:        sku,
				LocationID: locationID,
				OnHand:     qty,
				Reserved:   0,
				Version:    1,
			})
			if errors.Is(createErr, inventory.ErrRecordExists) {
				continue // concurrent first receipt; fall through to top-up
			}
			return createErr
		}
		if err != nil {
			return err
		}

		ok, err := c.store.ConditionalUpdate(ctx, rec.ID, rec.Version, rec.OnHand+qty, rec.Reserved)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("receive for %s: %w", sku, inventory.ErrConcurrentModification)
}
