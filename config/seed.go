/*
seed.go - Startup seeding

Applies the optional seed block: locations and variants that don't
exist yet are created, and opening stock is provisioned only for
(sku, location) pairs with no stock record, so a restart never
double-counts inventory.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/catalog"
	"github.com/warp/stock-engine/inventory"
)

// Apply provisions the seed data. Existing reference data is skipped,
// not overwritten.
func (s *Seed) Apply(ctx context.Context, store catalog.Store) error {
	if s == nil {
		return nil
	}
	cat := catalog.NewCatalog(store)

	// Locations, keyed by code.
	existing, err := store.ListLocations(ctx)
	if err != nil {
		return err
	}
	byCode := make(map[string]inventory.Location, len(existing))
	for _, loc := range existing {
		byCode[loc.Code] = loc
	}
	for _, sl := range s.Locations {
		if _, ok := byCode[sl.Code]; ok {
			continue
		}
		loc, err := cat.CreateLocation(ctx, sl.Code, sl.Name)
		if err != nil {
			return fmt.Errorf("seed location %s: %w", sl.Code, err)
		}
		byCode[sl.Code] = *loc
		log.Printf("[Seed] Created location %s", sl.Code)
	}

	// Variants.
	for _, sv := range s.Variants {
		v, err := store.VariantBySKU(ctx, inventory.SKU(sv.SKU))
		if err != nil {
			return err
		}
		if v != nil {
			continue
		}
		var price *decimal.Decimal
		if sv.Price != "" {
			d, err := decimal.NewFromString(sv.Price)
			if err != nil {
				return fmt.Errorf("seed variant %s: bad price %q: %w", sv.SKU, sv.Price, err)
			}
			price = &d
		}
		if _, err := cat.CreateVariant(ctx, inventory.SKU(sv.SKU), sv.Name, price); err != nil {
			return fmt.Errorf("seed variant %s: %w", sv.SKU, err)
		}
		log.Printf("[Seed] Created variant %s", sv.SKU)
	}

	// Opening stock, only where no record exists yet.
	for _, ss := range s.Stock {
		loc, ok := byCode[ss.Location]
		if !ok {
			return fmt.Errorf("seed stock %s: unknown location code %s", ss.SKU, ss.Location)
		}
		_, err := store.GetRecord(ctx, inventory.SKU(ss.SKU), loc.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, inventory.ErrRecordNotFound) {
			return err
		}
		if err := cat.Receive(ctx, inventory.SKU(ss.SKU), loc.ID, ss.Quantity); err != nil {
			return fmt.Errorf("seed stock %s@%s: %w", ss.SKU, ss.Location, err)
		}
		log.Printf("[Seed] Provisioned %d x %s at %s", ss.Quantity, ss.SKU, ss.Location)
	}
	return nil
}
