package checkout_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/checkout"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func provision(t *testing.T, store *sqlite.Store, sku inventory.SKU, loc inventory.LocationID, onHand int) {
	t.Helper()
	require.NoError(t, store.CreateRecord(context.Background(), inventory.StockRecord{
		ID: uuid.NewString(), SKU: sku, LocationID: loc, OnHand: onHand,
	}))
}

func recordAt(t *testing.T, store *sqlite.Store, sku inventory.SKU, loc inventory.LocationID) inventory.StockRecord {
	t.Helper()
	rec, err := store.GetRecord(context.Background(), sku, loc)
	require.NoError(t, err)
	return *rec
}

// =============================================================================
// ADD TO CART
// =============================================================================

func TestCartAdd_ReservesStockAndRecordsHold(t *testing.T) {
	// GIVEN: 10 on hand
	// WHEN: The session adds 3 to its cart
	// THEN: 3 are reserved and a hold exists for cart display

	store := newTestStore(t)
	provision(t, store, "TEE-1", "loc-a", 10)
	cart := checkout.NewCart(store, store)

	err := cart.Add(context.Background(), "s1", "TEE-1", 3)
	require.NoError(t, err)

	rec := recordAt(t, store, "TEE-1", "loc-a")
	assert.Equal(t, 10, rec.OnHand)
	assert.Equal(t, 3, rec.Reserved)

	items, err := cart.Items(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, inventory.SKU("TEE-1"), items[0].SKU)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestCartAdd_InsufficientStock_ReportsAvailableFigure(t *testing.T) {
	// GIVEN: 10 on hand, 8 already reserved
	// WHEN: Adding 5
	// THEN: Declined with the known available figure, nothing reserved

	store := newTestStore(t)
	provision(t, store, "TEE-1", "loc-a", 10)
	cart := checkout.NewCart(store, store)
	require.NoError(t, cart.Add(context.Background(), "other", "TEE-1", 8))

	err := cart.Add(context.Background(), "s1", "TEE-1", 5)

	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, inventory.SKU("TEE-1"), insufficient.SKU)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)

	rec := recordAt(t, store, "TEE-1", "loc-a")
	assert.Equal(t, 8, rec.Reserved, "declined add must not reserve")

	items, err := cart.Items(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, items, "declined add must not record a hold")
}

func TestCartAdd_UnknownSKU_DeclinedAsZeroAvailable(t *testing.T) {
	store := newTestStore(t)
	cart := checkout.NewCart(store, store)

	err := cart.Add(context.Background(), "s1", "GHOST", 1)

	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Available)
}

func TestCartAdd_NonPositiveQuantity_Rejected(t *testing.T) {
	store := newTestStore(t)
	cart := checkout.NewCart(store, store)

	err := cart.Add(context.Background(), "s1", "TEE-1", 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

// =============================================================================
// REMOVE FROM CART
// =============================================================================

func TestCartRemove_ReleasesReservationAndDropsHolds(t *testing.T) {
	store := newTestStore(t)
	provision(t, store, "TEE-1", "loc-a", 10)
	cart := checkout.NewCart(store, store)
	require.NoError(t, cart.Add(context.Background(), "s1", "TEE-1", 3))

	err := cart.Remove(context.Background(), "s1", "TEE-1", 3)
	require.NoError(t, err)

	rec := recordAt(t, store, "TEE-1", "loc-a")
	assert.Equal(t, 10, rec.OnHand)
	assert.Equal(t, 0, rec.Reserved)

	items, err := cart.Items(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRemove_MoreThanHeld_FloorsAtZero(t *testing.T) {
	store := newTestStore(t)
	provision(t, store, "TEE-1", "loc-a", 10)
	cart := checkout.NewCart(store, store)
	require.NoError(t, cart.Add(context.Background(), "s1", "TEE-1", 2))

	err := cart.Remove(context.Background(), "s1", "TEE-1", 5)
	require.NoError(t, err)

	rec := recordAt(t, store, "TEE-1", "loc-a")
	assert.Equal(t, 0, rec.Reserved)
	assert.Equal(t, 10, rec.OnHand)
}
