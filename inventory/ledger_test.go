package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/inventory/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*inventory.Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return inventory.NewLedger(mem), mem
}

func seedRecord(t *testing.T, mem *store.Memory, id string, sku inventory.SKU, loc inventory.LocationID, onHand, reserved int) {
	t.Helper()
	err := mem.CreateRecord(context.Background(), inventory.StockRecord{
		ID:         id,
		SKU:        sku,
		LocationID: loc,
		OnHand:     onHand,
		Reserved:   reserved,
	})
	require.NoError(t, err)
}

func mustGet(t *testing.T, mem *store.Memory, sku inventory.SKU, loc inventory.LocationID) inventory.StockRecord {
	t.Helper()
	rec, err := mem.GetRecord(context.Background(), sku, loc)
	require.NoError(t, err)
	return *rec
}

// =============================================================================
// AVAILABILITY QUERIES
// =============================================================================

func TestAvailableQuantity_UnknownSKU_IsZeroNotError(t *testing.T) {
	// GIVEN: No stock records at all
	// WHEN: Querying availability for a SKU nobody provisioned
	// THEN: 0, nil - callers treat zero as "cannot fulfill"

	ledger, _ := newTestLedger(t)

	available, err := ledger.AvailableQuantity(context.Background(), "GHOST-SKU")
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestAvailableQuantity_SumsAcrossActiveLocations(t *testing.T) {
	// GIVEN: Stock at two active locations and one inactive
	// WHEN: Querying availability
	// THEN: Only active locations contribute

	ledger, mem := newTestLedger(t)
	mem.AddLocation(inventory.Location{ID: "loc-a", Code: "A", Active: true})
	mem.AddLocation(inventory.Location{ID: "loc-b", Code: "B", Active: true})
	mem.AddLocation(inventory.Location{ID: "loc-c", Code: "C", Active: false})

	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 3) // 7 available
	seedRecord(t, mem, "r2", "TEE-1", "loc-b", 4, 0)  // 4 available
	seedRecord(t, mem, "r3", "TEE-1", "loc-c", 50, 0) // inactive, ignored

	available, err := ledger.AvailableQuantity(context.Background(), "TEE-1")
	require.NoError(t, err)
	assert.Equal(t, 11, available)
}

func TestAvailableQuantity_ClampsNegativeForDisplay(t *testing.T) {
	// GIVEN: A corrupted row where reserved exceeds on-hand
	// WHEN: Querying availability
	// THEN: The row reads as 0, never negative; the row itself is untouched

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 2, 5)

	available, err := ledger.AvailableQuantity(context.Background(), "TEE-1")
	require.NoError(t, err)
	assert.Equal(t, 0, available)

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 2, rec.OnHand, "clamping is read-side only")
	assert.Equal(t, 5, rec.Reserved)
}

// =============================================================================
// RESERVE
// =============================================================================

func TestReserve_HoldsQuantity(t *testing.T) {
	// Scenario A: record (10, 0); reserve 3 -> true; record (10, 3);
	// availability drops to 7.

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 0)

	ok, err := ledger.Reserve(context.Background(), "TEE-1", 3, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 10, rec.OnHand)
	assert.Equal(t, 3, rec.Reserved)

	available, err := ledger.AvailableQuantity(context.Background(), "TEE-1")
	require.NoError(t, err)
	assert.Equal(t, 7, available)
}

func TestReserve_Insufficient_NoPartialEffects(t *testing.T) {
	// Scenario B: record (10, 8); reserve 5 -> false; record unchanged.

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 8)
	before := mustGet(t, mem, "TEE-1", "loc-a")

	ok, err := ledger.Reserve(context.Background(), "TEE-1", 5, "s2")
	require.NoError(t, err)
	assert.False(t, ok)

	after := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, before.OnHand, after.OnHand)
	assert.Equal(t, before.Reserved, after.Reserved)
	assert.Equal(t, before.Version, after.Version, "failed reserve must not advance the version")
}

func TestReserve_NeverSplitsAcrossLocations(t *testing.T) {
	// GIVEN: 3 available at one location, 4 at another (7 total)
	// WHEN: Reserving 6
	// THEN: false - no single location fits and reservations don't split

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 3, 0)
	seedRecord(t, mem, "r2", "TEE-1", "loc-b", 4, 0)

	ok, err := ledger.Reserve(context.Background(), "TEE-1", 6, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 0, mustGet(t, mem, "TEE-1", "loc-a").Reserved)
	assert.Equal(t, 0, mustGet(t, mem, "TEE-1", "loc-b").Reserved)
}

func TestReserve_FirstFit_SkipsExhaustedLocation(t *testing.T) {
	// GIVEN: First location fully reserved, second wide open
	// WHEN: Reserving 3
	// THEN: The hold lands on the second location

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 5, 5)
	seedRecord(t, mem, "r2", "TEE-1", "loc-b", 10, 0)

	ok, err := ledger.Reserve(context.Background(), "TEE-1", 3, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 5, mustGet(t, mem, "TEE-1", "loc-a").Reserved)
	assert.Equal(t, 3, mustGet(t, mem, "TEE-1", "loc-b").Reserved)
}

func TestReserve_NonPositiveQuantity_Rejected(t *testing.T) {
	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 0)

	for _, qty := range []int{0, -1} {
		ok, err := ledger.Reserve(context.Background(), "TEE-1", qty, "s1")
		assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
		assert.False(t, ok)
	}
}

func TestReserve_VersionAdvancesOnlyOnSuccess(t *testing.T) {
	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 5, 0)
	v0 := mustGet(t, mem, "TEE-1", "loc-a").Version

	ok, err := ledger.Reserve(context.Background(), "TEE-1", 2, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	v1 := mustGet(t, mem, "TEE-1", "loc-a").Version
	assert.Greater(t, v1, v0)

	ok, err = ledger.Reserve(context.Background(), "TEE-1", 100, "s1")
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, v1, mustGet(t, mem, "TEE-1", "loc-a").Version)
}

// =============================================================================
// RETRY BEHAVIOR
// =============================================================================

// contentiousStore wraps Memory and forces the first failUpdates
// conditional updates to report a lost race, simulating concurrent
// writers advancing the version between read and write.
type contentiousStore struct {
	*store.Memory
	mu          sync.Mutex
	failUpdates int
	attempts    int
}

func (c *contentiousStore) ConditionalUpdate(ctx context.Context, recordID string, expectedVersion int64, newOnHand, newReserved int) (bool, error) {
	c.mu.Lock()
	c.attempts++
	fail := c.failUpdates > 0
	if fail {
		c.failUpdates--
	}
	c.mu.Unlock()

	if fail {
		return false, nil
	}
	return c.Memory.ConditionalUpdate(ctx, recordID, expectedVersion, newOnHand, newReserved)
}

func TestReserve_RetriesThroughTransientConflicts(t *testing.T) {
	// GIVEN: The first two conditional updates lose their race
	// WHEN: Reserving with the default 3-attempt budget
	// THEN: The third attempt lands and the reserve succeeds

	mem := store.NewMemory()
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 0)
	cs := &contentiousStore{Memory: mem, failUpdates: 2}
	ledger := inventory.NewLedger(cs)

	ok, err := ledger.Reserve(context.Background(), "TEE-1", 3, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, cs.attempts)
	assert.Equal(t, 3, mustGet(t, mem, "TEE-1", "loc-a").Reserved)
}

func TestReserve_ExhaustedRetries_FailsClosed(t *testing.T) {
	// GIVEN: Every conditional update loses its race
	// WHEN: Reserving
	// THEN: false after exactly maxAttempts tries - treated the same
	// as insufficient stock, never an oversell risk

	mem := store.NewMemory()
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 0)
	cs := &contentiousStore{Memory: mem, failUpdates: 100}
	ledger := inventory.NewLedger(cs)

	ok, err := ledger.Reserve(context.Background(), "TEE-1", 3, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, inventory.DefaultMaxAttempts, cs.attempts)
	assert.Equal(t, 0, mustGet(t, mem, "TEE-1", "loc-a").Reserved)
}

// =============================================================================
// COMMIT
// =============================================================================

func TestCommit_DeductsOnHandAndClearsReserved(t *testing.T) {
	// Scenario C: after reserving 3 on (10, 0), committing 3 leaves (7, 0).

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 3)

	err := ledger.CommitReservation(context.Background(), "TEE-1", 3, "s1")
	require.NoError(t, err)

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 7, rec.OnHand)
	assert.Equal(t, 0, rec.Reserved)
}

func TestCommit_ConservesTotal(t *testing.T) {
	// onHand_before = onHand_after + committed, reserved drops by the
	// same amount.

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 5)
	before := mustGet(t, mem, "TEE-1", "loc-a")

	err := ledger.CommitReservation(context.Background(), "TEE-1", 2, "s1")
	require.NoError(t, err)

	after := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, before.OnHand, after.OnHand+2)
	assert.Equal(t, before.Reserved-2, after.Reserved)
	assert.Greater(t, after.Version, before.Version)
}

func TestCommit_FloorsReservedAtZero(t *testing.T) {
	// GIVEN: Only 1 unit still reserved (the rest was swept)
	// WHEN: Committing 3
	// THEN: OnHand drops by 3, reserved floors at 0 instead of -2

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 1)

	err := ledger.CommitReservation(context.Background(), "TEE-1", 3, "s1")
	require.NoError(t, err)

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 7, rec.OnHand)
	assert.Equal(t, 0, rec.Reserved)
}

func TestCommit_UnknownSKU_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	err := ledger.CommitReservation(context.Background(), "GHOST-SKU", 1, "s1")
	assert.ErrorIs(t, err, inventory.ErrUnknownSKU)
}

func TestCommit_InsufficientOnHand_Rejected(t *testing.T) {
	// GIVEN: 2 units on hand
	// WHEN: Committing 5
	// THEN: InsufficientStockError, record untouched - rejected, not clamped

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 2, 2)

	err := ledger.CommitReservation(context.Background(), "TEE-1", 5, "s1")

	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, inventory.SKU("TEE-1"), insufficient.SKU)
	assert.Equal(t, 5, insufficient.Requested)

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 2, rec.OnHand)
	assert.Equal(t, 2, rec.Reserved)
}

func TestCommit_NonPositiveQuantity_Rejected(t *testing.T) {
	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 3)

	err := ledger.CommitReservation(context.Background(), "TEE-1", 0, "s1")
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

// =============================================================================
// RELEASE
// =============================================================================

func TestRelease_ReturnsHeldQuantity(t *testing.T) {
	// Scenario E: (7, 3) release 3 -> (7, 0); releasing again floors at
	// 0 rather than going negative.

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 7, 3)

	err := ledger.ReleaseReservation(context.Background(), "TEE-1", 3, "s1")
	require.NoError(t, err)

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 7, rec.OnHand)
	assert.Equal(t, 0, rec.Reserved)

	// Double release: no-op, never negative, never an error.
	err = ledger.ReleaseReservation(context.Background(), "TEE-1", 3, "s1")
	require.NoError(t, err)

	rec = mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 7, rec.OnHand)
	assert.Equal(t, 0, rec.Reserved)
}

func TestRelease_OverRelease_FloorsAtZero(t *testing.T) {
	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 2)

	err := ledger.ReleaseReservation(context.Background(), "TEE-1", 5, "s1")
	require.NoError(t, err)

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 10, rec.OnHand, "release never touches on-hand")
	assert.Equal(t, 0, rec.Reserved)
}

func TestReserveThenRelease_IsReversible(t *testing.T) {
	// Reserve(q) then release(q) restores (onHand, reserved) with a
	// strictly greater version.

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 10, 0)
	before := mustGet(t, mem, "TEE-1", "loc-a")

	ok, err := ledger.Reserve(context.Background(), "TEE-1", 4, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	err = ledger.ReleaseReservation(context.Background(), "TEE-1", 4, "s1")
	require.NoError(t, err)

	after := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, before.OnHand, after.OnHand)
	assert.Equal(t, before.Reserved, after.Reserved)
	assert.Greater(t, after.Version, before.Version)
}

func TestRelease_UnknownSKU_Rejected(t *testing.T) {
	ledger, _ := newTestLedger(t)

	err := ledger.ReleaseReservation(context.Background(), "GHOST-SKU", 1, "s1")
	assert.ErrorIs(t, err, inventory.ErrUnknownSKU)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestReserve_TwoRacingCallers_ExactlyOneWins(t *testing.T) {
	// Scenario D: both callers see (5, 0) and reserve 5. Exactly one
	// succeeds; the loser re-reads, finds available=0, returns false.

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", 5, 0)

	results := make(chan bool, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(session inventory.SessionID) {
			defer wg.Done()
			ok, err := ledger.Reserve(context.Background(), "TEE-1", 5, session)
			assert.NoError(t, err)
			results <- ok
		}(inventory.SessionID(string(rune('a' + i))))
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.Equal(t, 5, rec.OnHand)
	assert.Equal(t, 5, rec.Reserved)
}

func TestReserve_ConcurrentDemandOverCapacity_NeverOversells(t *testing.T) {
	// Property: N parallel reserves summing to well over the available
	// k units succeed for a combined quantity <= k, and the record's
	// invariant holds afterwards.

	const available = 10
	const workers = 25

	ledger, mem := newTestLedger(t)
	seedRecord(t, mem, "r1", "TEE-1", "loc-a", available, 0)

	granted := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			qty := 1 + i%3 // 1..3, total demand far exceeds capacity
			ok, err := ledger.Reserve(context.Background(), "TEE-1", qty, "session")
			assert.NoError(t, err)
			if ok {
				granted <- qty
			}
		}(i)
	}
	wg.Wait()
	close(granted)

	total := 0
	for qty := range granted {
		total += qty
	}

	rec := mustGet(t, mem, "TEE-1", "loc-a")
	assert.LessOrEqual(t, total, available, "granted reservations must never exceed capacity")
	assert.Equal(t, total, rec.Reserved, "reserved counter must equal the sum of granted quantities")
	assert.True(t, rec.Valid(), "invariant 0 <= reserved <= onHand must hold")
}
