/*
ledger.go - The reservation state machine over stock records

PURPOSE:
  The Ledger is the single mutator of stock state. It implements the
  two-phase reserve -> commit/release lifecycle that spans "add to
  cart" and "place order", and the availability query product pages
  read from.

STATE MACHINE (per unit held against a cart):
  Available -> Reserved -> Committed (sale finalized)
                        -> Released  (returned to Available)

CONCURRENCY:
  Many request-handling workers call into the same rows. Correctness
  comes entirely from the store's conditional-update contract: of N
  concurrent writers against the same version, exactly one wins; the
  rest observe a stale version, re-read, and retry. The ledger bounds
  retries at maxAttempts and then fails conservatively - a false
  decline is always preferred over risking oversell.

LOCATION FIT:
  Reserve picks the FIRST location whose own available quantity covers
  the full request. Reservations are never split across locations even
  when the sum across locations would satisfy demand; splitting would
  require compensating rollback on partial failure.

FAILURE SEMANTICS:
  Reserve returning false means insufficient stock - an expected,
  non-exceptional outcome. Commit and Release return errors only for
  caller mistakes (unknown SKU, non-positive quantity) or exhausted
  retries; they never partially mutate state.

SEE ALSO:
  - store.go: Conditional update contract
  - checkout: The only callers of reserve/commit/release
*/
package inventory

import (
	"context"
	"fmt"
)

// =============================================================================
// LEDGER
// =============================================================================

// DefaultMaxAttempts bounds the re-read/retry loop around conditional
// updates. Contention windows on a single row are sub-millisecond, so
// a handful of attempts with no backoff is enough.
const DefaultMaxAttempts = 3

// Ledger exposes quantity queries and the reserve/commit/release
// transitions. It holds no state of its own; construct one per store
// (or per transaction, see checkout) and share freely across goroutines.
type Ledger struct {
	store       Store
	maxAttempts int
}

// NewLedger creates a ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, maxAttempts: DefaultMaxAttempts}
}

// NewLedgerWithRetries creates a ledger with a custom retry bound.
// Attempts below 1 are raised to 1 (a single try, no retry).
func NewLedgerWithRetries(store Store, maxAttempts int) *Ledger {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Ledger{store: store, maxAttempts: maxAttempts}
}

// =============================================================================
// QUERIES
// =============================================================================

// AvailableQuantity sums OnHand - Reserved across all active locations
// for the SKU. Unknown SKU yields 0, not an error - callers treat zero
// as "cannot fulfill". Each record's contribution is clamped at zero
// for display; a corrupted row is never silently repaired here.
func (l *Ledger) AvailableQuantity(ctx context.Context, sku SKU) (int, error) {
	records, err := l.store.RecordsForSKU(ctx, sku)
	if err != nil {
		return 0, fmt.Errorf("failed to load stock records: %w", err)
	}

	total := 0
	for _, rec := range records {
		total += rec.Available()
	}
	return total, nil
}

// =============================================================================
// RESERVE - Available -> Reserved
// =============================================================================

// Reserve holds qty units for the session against a single location.
//
// Returns (false, nil) when no single location can cover the request
// or when every attempt lost its version race - both are surfaced to
// the shopper as "out of stock", never as a system error. On success
// the chosen record's Reserved grows by qty and its version advances;
// on failure nothing changes.
func (l *Ledger) Reserve(ctx context.Context, sku SKU, qty int, session SessionID) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		records, err := l.store.RecordsForSKU(ctx, sku)
		if err != nil {
			return false, fmt.Errorf("failed to load stock records: %w", err)
		}

		// First-fit: the first location that can absorb the whole
		// request on its own.
		var target *StockRecord
		for i := range records {
			if records[i].CanFulfill(qty) {
				target = &records[i]
				break
			}
		}
		if target == nil {
			// No location fits. No record advanced, no partial effects.
			return false, nil
		}

		ok, err := l.store.ConditionalUpdate(ctx, target.ID, target.Version,
			target.OnHand, target.Reserved+qty)
		if err != nil {
			return false, fmt.Errorf("failed to reserve stock: %w", err)
		}
		if ok {
			return true, nil
		}
		// Lost the race: a concurrent writer advanced the version
		// between our read and write. Re-read and try again.
	}

	// Retry budget exhausted under contention. Treated the same as
	// insufficient stock: a false decline is safe, overselling is not.
	return false, nil
}

// =============================================================================
// COMMIT - Reserved -> Committed (sale finalized)
// =============================================================================

// CommitReservation converts a held quantity into a permanent
// deduction: OnHand -= qty, Reserved = max(Reserved-qty, 0), version
// advances. The quantity is passed explicitly; the aggregate counters,
// not per-session metadata, are authoritative.
//
// Must run inside the caller's unit of work when paired with order
// creation - construct the Ledger over the transactional store view so
// a rollback of the surrounding transaction rolls the deduction back
// with it.
func (l *Ledger) CommitReservation(ctx context.Context, sku SKU, qty int, session SessionID) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		records, err := l.store.RecordsForSKU(ctx, sku)
		if err != nil {
			return fmt.Errorf("failed to load stock records: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("commit for %s: %w", sku, ErrUnknownSKU)
		}

		target := pickCommitRecord(records, qty)
		if target == nil {
			// No record can absorb the deduction without going negative.
			return &InsufficientStockError{SKU: sku, Requested: qty, Available: totalOnHand(records)}
		}

		newReserved := target.Reserved - qty
		if newReserved < 0 {
			newReserved = 0 // reservation may have lapsed (sweep); floor, don't go negative
		}

		ok, err := l.store.ConditionalUpdate(ctx, target.ID, target.Version,
			target.OnHand-qty, newReserved)
		if err != nil {
			return fmt.Errorf("failed to commit reservation: %w", err)
		}
		if ok {
			return nil
		}
	}

	return fmt.Errorf("commit for %s: %w", sku, ErrConcurrentModification)
}

// pickCommitRecord chooses which record absorbs a deduction of qty.
// Prefer a record that still carries reservations (the common case:
// the one Reserve touched); fall back to any record with enough
// on-hand, since the hold may have been swept between cart and
// checkout. Returns nil when no record has qty units on hand.
func pickCommitRecord(records []StockRecord, qty int) *StockRecord {
	for i := range records {
		if records[i].Reserved > 0 && records[i].OnHand >= qty {
			return &records[i]
		}
	}
	for i := range records {
		if records[i].OnHand >= qty {
			return &records[i]
		}
	}
	return nil
}

func totalOnHand(records []StockRecord) int {
	total := 0
	for _, rec := range records {
		total += rec.OnHand
	}
	return total
}

// =============================================================================
// RELEASE - Reserved -> Available (no sale)
// =============================================================================

// ReleaseReservation returns a held quantity to availability without a
// sale: Reserved = max(Reserved-qty, 0), OnHand unchanged. Used for
// cart abandonment and the expiration sweep.
//
// Safe to invoke after arbitrary delay and safe to invoke twice for
// the same logical reservation: the floor at zero means a double
// release can never drive Reserved negative. When nothing is held the
// call is a no-op, not an error.
func (l *Ledger) ReleaseReservation(ctx context.Context, sku SKU, qty int, session SessionID) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		records, err := l.store.RecordsForSKU(ctx, sku)
		if err != nil {
			return fmt.Errorf("failed to load stock records: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("release for %s: %w", sku, ErrUnknownSKU)
		}

		var target *StockRecord
		for i := range records {
			if records[i].Reserved > 0 {
				target = &records[i]
				break
			}
		}
		if target == nil {
			// Nothing held anywhere: floor-at-zero no-op.
			return nil
		}

		newReserved := target.Reserved - qty
		if newReserved < 0 {
			newReserved = 0
		}

		ok, err := l.store.ConditionalUpdate(ctx, target.ID, target.Version,
			target.OnHand, newReserved)
		if err != nil {
			return fmt.Errorf("failed to release reservation: %w", err)
		}
		if ok {
			return nil
		}
	}

	return fmt.Errorf("release for %s: %w", sku, ErrConcurrentModification)
}
