/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence port in one place: stock records with
  conditional updates (inventory.Store/TxStore), catalog reference data
  (catalog.VariantStore/LocationStore), cart holds (checkout.HoldStore),
  and orders (checkout.OrderStore). In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

THE CONDITIONAL UPDATE:
  Optimistic locking is one statement:

    UPDATE stock_records SET on_hand=?, reserved=?, version=version+1
    WHERE id=? AND version=?

  Zero rows affected means a concurrent writer advanced the version
  first; the caller re-reads and retries. No SELECT FOR UPDATE, no row
  locks, so readers never block writers.

KEY TABLES:
  stock_records: One row per (sku, location) with on_hand, reserved,
                 version. CHECK constraints back up the invariant
                 0 <= reserved <= on_hand at the database level.
  variants:      Purchasable SKUs (unique sku, soft-archive flag)
  locations:     Stock-holding sites (unique code, active flag)
  cart_holds:    Session holds driving cart display and the sweep
  orders/order_items: Created atomically with stock deduction

ATOMIC CHECKOUT:
  WithOrderTx gives the checkout use case a transactional view of both
  stock records and order writes. Either the order and all deductions
  commit together or the whole unit of work rolls back.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/stock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := inventory.NewLedger(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/store.go: Interface definitions and the update contract
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/checkout"
	"github.com/warp/stock-engine/inventory"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time, and a ":memory:" path is
	// per-connection. A single pooled connection serves both.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Variants (purchasable SKUs, soft-archived, never deleted)
	CREATE TABLE IF NOT EXISTS variants (
		id TEXT PRIMARY KEY,
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		price TEXT,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Locations (static reference data)
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	-- Stock records: the core entity. One row per (sku, location).
	-- CHECK constraints are the database-level backstop for the
	-- invariant 0 <= reserved <= on_hand; the ledger rejects violating
	-- writes before they get here.
	CREATE TABLE IF NOT EXISTS stock_records (
		id TEXT PRIMARY KEY,
		sku TEXT NOT NULL,
		location_id TEXT NOT NULL,
		on_hand INTEGER NOT NULL CHECK (on_hand >= 0),
		reserved INTEGER NOT NULL CHECK (reserved >= 0 AND reserved <= on_hand),
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL,
		UNIQUE (sku, location_id)
	);

	CREATE INDEX IF NOT EXISTS idx_stock_records_sku
		ON stock_records(sku);

	-- Cart holds (advisory; aggregate reserved counters are authoritative)
	CREATE TABLE IF NOT EXISTS cart_holds (
		id TEXT PRIMARY KEY,
		sku TEXT NOT NULL,
		session_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cart_holds_session
		ON cart_holds(session_id);
	CREATE INDEX IF NOT EXISTS idx_cart_holds_created_at
		ON cart_holds(created_at);

	-- Orders (created atomically with the final commit step)
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		status TEXT NOT NULL,
		total TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id),
		sku TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order
		ON order_items(order_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is the slice of *sql.DB / *sql.Tx the row helpers need, so
// the same code serves both direct and transactional access.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// STOCK RECORD STORE (inventory.Store interface)
// =============================================================================

// RecordsForSKU returns stock records for the SKU at active locations,
// ordered by location code so first-fit is deterministic. Records at
// locations with no reference row are treated as active.
func (s *Store) RecordsForSKU(ctx context.Context, sku inventory.SKU) ([]inventory.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsForSKU(ctx, s.db, sku)
}

func (s *Store) recordsForSKU(ctx context.Context, q querier, sku inventory.SKU) ([]inventory.StockRecord, error) {
	query := `
		SELECT r.id, r.sku, r.location_id, r.on_hand, r.reserved, r.version, r.updated_at
		FROM stock_records r
		LEFT JOIN locations l ON l.id = r.location_id
		WHERE r.sku = ? AND (l.id IS NULL OR l.active)
		ORDER BY COALESCE(l.code, r.location_id) ASC
	`

	rows, err := q.QueryContext(ctx, query, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock records: %w", err)
	}
	defer rows.Close()

	var records []inventory.StockRecord
	for rows.Next() {
		rec, err := scanStockRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRecord returns the record for (sku, location), or ErrRecordNotFound.
func (s *Store) GetRecord(ctx context.Context, sku inventory.SKU, locationID inventory.LocationID) (*inventory.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRecord(ctx, s.db, sku, locationID)
}

func (s *Store) getRecord(ctx context.Context, q querier, sku inventory.SKU, locationID inventory.LocationID) (*inventory.StockRecord, error) {
	var rec inventory.StockRecord
	var updatedAt string

	err := q.QueryRowContext(ctx, `
		SELECT id, sku, location_id, on_hand, reserved, version, updated_at
		FROM stock_records WHERE sku = ? AND location_id = ?`,
		sku, locationID,
	).Scan(&rec.ID, &rec.SKU, &rec.LocationID, &rec.OnHand, &rec.Reserved, &rec.Version, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, inventory.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

// CreateRecord provisions a new stock record.
func (s *Store) CreateRecord(ctx context.Context, rec inventory.StockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createRecord(ctx, s.db, rec)
}

func (s *Store) createRecord(ctx context.Context, q querier, rec inventory.StockRecord) error {
	if rec.Version == 0 {
		rec.Version = 1
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO stock_records (id, sku, location_id, on_hand, reserved, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SKU, rec.LocationID, rec.OnHand, rec.Reserved, rec.Version,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return inventory.ErrRecordExists
		}
		return fmt.Errorf("failed to create stock record: %w", err)
	}
	return nil
}

// ConditionalUpdate is the sole concurrency primitive: the write lands
// only if the stored version still matches, and the version advances
// with it. Zero rows affected on an existing record means a lost race.
func (s *Store) ConditionalUpdate(ctx context.Context, recordID string, expectedVersion int64, newOnHand, newReserved int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conditionalUpdate(ctx, s.db, recordID, expectedVersion, newOnHand, newReserved)
}

func (s *Store) conditionalUpdate(ctx context.Context, q querier, recordID string, expectedVersion int64, newOnHand, newReserved int) (bool, error) {
	if newOnHand < 0 || newReserved < 0 || newReserved > newOnHand {
		return false, inventory.ErrInvalidQuantity
	}

	res, err := q.ExecContext(ctx, `
		UPDATE stock_records
		SET on_hand = ?, reserved = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		newOnHand, newReserved, time.Now().UTC().Format(time.RFC3339),
		recordID, expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update stock record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}

	// Distinguish a stale version from a missing row.
	var count int
	if err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stock_records WHERE id = ?", recordID,
	).Scan(&count); err != nil {
		return false, err
	}
	if count == 0 {
		return false, inventory.ErrRecordNotFound
	}
	return false, nil
}

func scanStockRecord(rows *sql.Rows) (inventory.StockRecord, error) {
	var rec inventory.StockRecord
	var updatedAt string

	err := rows.Scan(&rec.ID, &rec.SKU, &rec.LocationID, &rec.OnHand, &rec.Reserved, &rec.Version, &updatedAt)
	if err != nil {
		return rec, fmt.Errorf("failed to scan stock record: %w", err)
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return rec, nil
}

// =============================================================================
// TRANSACTIONAL STORE (inventory.TxStore, checkout.TxRunner)
// =============================================================================

// WithTx executes a function within a database transaction, giving it
// a transactional view of the stock records.
func (s *Store) WithTx(ctx context.Context, fn func(store inventory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStock{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// WithOrderTx executes fn with transactional views of both stock
// records and order persistence. This is the atomic unit of work the
// checkout protocol requires: order creation and stock deduction
// commit or roll back together.
func (s *Store) WithOrderTx(ctx context.Context, fn func(stock inventory.Store, orders checkout.OrderWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	stock := &txStock{tx: sqlTx, parent: s}
	orders := &txOrders{tx: sqlTx, parent: s}
	if err := fn(stock, orders); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStock struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStock) RecordsForSKU(ctx context.Context, sku inventory.SKU) ([]inventory.StockRecord, error) {
	return ts.parent.recordsForSKU(ctx, ts.tx, sku)
}

func (ts *txStock) GetRecord(ctx context.Context, sku inventory.SKU, locationID inventory.LocationID) (*inventory.StockRecord, error) {
	return ts.parent.getRecord(ctx, ts.tx, sku, locationID)
}

func (ts *txStock) CreateRecord(ctx context.Context, rec inventory.StockRecord) error {
	return ts.parent.createRecord(ctx, ts.tx, rec)
}

func (ts *txStock) ConditionalUpdate(ctx context.Context, recordID string, expectedVersion int64, newOnHand, newReserved int) (bool, error) {
	return ts.parent.conditionalUpdate(ctx, ts.tx, recordID, expectedVersion, newOnHand, newReserved)
}

type txOrders struct {
	tx     *sql.Tx
	parent *Store
}

func (to *txOrders) SaveOrder(ctx context.Context, o checkout.Order) error {
	return to.parent.saveOrder(ctx, to.tx, o)
}

// =============================================================================
// VARIANT STORE (catalog.VariantStore, checkout.VariantReader)
// =============================================================================

// SaveVariant inserts or updates a variant.
func (s *Store) SaveVariant(ctx context.Context, v inventory.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var price *string
	if v.Price != nil {
		p := v.Price.String()
		price = &p
	}

	query := `
		INSERT INTO variants (id, sku, name, price, archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			archived = excluded.archived
	`

	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.SKU, v.Name, price, v.Archived,
		v.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// VariantBySKU retrieves a variant, or nil when unknown.
func (s *Store) VariantBySKU(ctx context.Context, sku inventory.SKU) (*inventory.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v inventory.Variant
	var price sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, sku, name, price, archived, created_at FROM variants WHERE sku = ?",
		sku,
	).Scan(&v.ID, &v.SKU, &v.Name, &price, &v.Archived, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if price.Valid {
		if d, err := decimal.NewFromString(price.String); err == nil {
			v.Price = &d
		}
	}
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &v, nil
}

// ListVariants returns all variants, including archived ones.
func (s *Store) ListVariants(ctx context.Context) ([]inventory.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, sku, name, price, archived, created_at FROM variants ORDER BY sku",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []inventory.Variant
	for rows.Next() {
		var v inventory.Variant
		var price sql.NullString
		var createdAt string
		if err := rows.Scan(&v.ID, &v.SKU, &v.Name, &price, &v.Archived, &createdAt); err != nil {
			return nil, err
		}
		if price.Valid {
			if d, err := decimal.NewFromString(price.String); err == nil {
				v.Price = &d
			}
		}
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// =============================================================================
// LOCATION STORE (catalog.LocationStore)
// =============================================================================

// SaveLocation inserts or updates a location.
func (s *Store) SaveLocation(ctx context.Context, loc inventory.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO locations (id, code, name, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			active = excluded.active
	`

	_, err := s.db.ExecContext(ctx, query, loc.ID, loc.Code, loc.Name, loc.Active)
	return err
}

// GetLocation retrieves a location, or nil when unknown.
func (s *Store) GetLocation(ctx context.Context, id inventory.LocationID) (*inventory.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var loc inventory.Location
	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, name, active FROM locations WHERE id = ?",
		id,
	).Scan(&loc.ID, &loc.Code, &loc.Name, &loc.Active)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// ListLocations returns all locations ordered by code.
func (s *Store) ListLocations(ctx context.Context) ([]inventory.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, active FROM locations ORDER BY code",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []inventory.Location
	for rows.Next() {
		var loc inventory.Location
		if err := rows.Scan(&loc.ID, &loc.Code, &loc.Name, &loc.Active); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// =============================================================================
// HOLD STORE (checkout.HoldStore)
// =============================================================================

// SaveHold records a cart hold.
func (s *Store) SaveHold(ctx context.Context, h inventory.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_holds (id, sku, session_id, quantity, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.SKU, h.SessionID, h.Quantity,
		h.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// DeleteHold removes a single hold by id.
func (s *Store) DeleteHold(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_holds WHERE id = ?", id)
	return err
}

// DeleteHolds removes all holds for (session, sku).
func (s *Store) DeleteHolds(ctx context.Context, session inventory.SessionID, sku inventory.SKU) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_holds WHERE session_id = ? AND sku = ?", session, sku)
	return err
}

// HoldsBySession returns the session's holds, oldest first.
func (s *Store) HoldsBySession(ctx context.Context, session inventory.SessionID) ([]inventory.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryHolds(ctx,
		"SELECT id, sku, session_id, quantity, created_at FROM cart_holds WHERE session_id = ? ORDER BY created_at ASC",
		session)
}

// ExpiredHolds returns holds created before the cutoff.
func (s *Store) ExpiredHolds(ctx context.Context, cutoff time.Time) ([]inventory.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryHolds(ctx,
		"SELECT id, sku, session_id, quantity, created_at FROM cart_holds WHERE created_at < ? ORDER BY created_at ASC",
		cutoff.UTC().Format(time.RFC3339))
}

func (s *Store) queryHolds(ctx context.Context, query string, args ...any) ([]inventory.Hold, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holds: %w", err)
	}
	defer rows.Close()

	var holds []inventory.Hold
	for rows.Next() {
		var h inventory.Hold
		var createdAt string
		if err := rows.Scan(&h.ID, &h.SKU, &h.SessionID, &h.Quantity, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

// =============================================================================
// ORDER STORE (checkout.OrderStore)
// =============================================================================

// SaveOrder persists an order and its items. Outside WithOrderTx this
// is its own transaction; checkout always calls it through the
// transactional view instead.
func (s *Store) SaveOrder(ctx context.Context, o checkout.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.saveOrder(ctx, sqlTx, o); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) saveOrder(ctx context.Context, q querier, o checkout.Order) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, status, total, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.SessionID, o.Status, o.Total.String(),
		o.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err := q.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, sku, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			item.ID, o.ID, item.SKU, item.Quantity, item.UnitPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

// GetOrder retrieves an order with its items, or nil when unknown.
func (s *Store) GetOrder(ctx context.Context, id string) (*checkout.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var o checkout.Order
	var total, createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, session_id, status, total, created_at FROM orders WHERE id = ?",
		id,
	).Scan(&o.ID, &o.SessionID, &o.Status, &total, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	o.Total, _ = decimal.NewFromString(total)
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, order_id, sku, quantity, unit_price FROM order_items WHERE order_id = ? ORDER BY sku",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item checkout.OrderItem
		var unitPrice string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.SKU, &item.Quantity, &unitPrice); err != nil {
			return nil, err
		}
		item.UnitPrice, _ = decimal.NewFromString(unitPrice)
		o.Items = append(o.Items, item)
	}
	return &o, rows.Err()
}

// OrdersBySession returns the session's placed orders, newest first,
// without items.
func (s *Store) OrdersBySession(ctx context.Context, session inventory.SessionID) ([]checkout.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, status, total, created_at FROM orders WHERE session_id = ? ORDER BY created_at DESC",
		session,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []checkout.Order
	for rows.Next() {
		var o checkout.Order
		var total, createdAt string
		if err := rows.Scan(&o.ID, &o.SessionID, &o.Status, &total, &createdAt); err != nil {
			return nil, err
		}
		o.Total, _ = decimal.NewFromString(total)
		o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
