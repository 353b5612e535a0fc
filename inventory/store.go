/*
store.go - Persistence interface for stock records

PURPOSE:
  Defines the interface between the ledger and the database. The Store
  provides durable storage and ONE concurrency primitive: the
  conditional update. Different implementations can use SQLite,
  PostgreSQL, or in-memory storage.

THE CONDITIONAL UPDATE CONTRACT:
  ConditionalUpdate writes new quantities only if the stored version
  still equals the version the caller read. On success the version is
  incremented by one. No explicit row locks are ever taken, so readers
  never block writers. This single primitive is what makes the
  reserve/commit/release protocol safe under concurrent checkouts.

NO CROSS-RECORD EFFECTS:
  A conditional update touches exactly one row. Multi-row atomicity
  (order creation + stock deduction) is layered on via TxStore.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - inventory/store: In-memory store for testing/dev

SEE ALSO:
  - ledger.go: The only writer of stock records
  - store/sqlite/sqlite.go: Concrete implementation
*/
package inventory

import "context"

// =============================================================================
// STORE - Stock record persistence with conditional updates
// =============================================================================

// Store handles persistence of stock records.
//
// Rows are mutated exclusively through ConditionalUpdate; there is no
// unconditional write path. Readers may observe slightly stale data
// between a read and a subsequent update attempt - the stale write is
// rejected by the version check rather than prevented by locking.
type Store interface {
	// RecordsForSKU returns all stock records for a SKU at active
	// locations, in stable location order. Unknown SKU returns an
	// empty slice, not an error.
	RecordsForSKU(ctx context.Context, sku SKU) ([]StockRecord, error)

	// GetRecord returns the record for (sku, location), or
	// ErrRecordNotFound.
	GetRecord(ctx context.Context, sku SKU, locationID LocationID) (*StockRecord, error)

	// CreateRecord provisions a new stock record (seed/receiving).
	// Returns ErrRecordExists if the (sku, location) pair already has one.
	CreateRecord(ctx context.Context, rec StockRecord) error

	// ConditionalUpdate writes newOnHand/newReserved to the record only
	// if its stored version still equals expectedVersion, incrementing
	// the version on success. Returns (false, nil) when the version no
	// longer matches - that is a lost race, not a storage failure.
	ConditionalUpdate(ctx context.Context, recordID string, expectedVersion int64, newOnHand, newReserved int) (bool, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic multi-row operations
// =============================================================================

// TxStore wraps Store with transaction support. Checkout uses this so
// order creation and stock deduction commit or roll back together.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
