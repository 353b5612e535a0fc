// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements inventory.TxStore with real conditional-update
// semantics: version checks behave exactly as they do in SQLite, so
// concurrency tests against Memory exercise the same protocol.
type Memory struct {
	mu        sync.RWMutex
	records   map[string]inventory.StockRecord        // by record ID
	bySKU     map[inventory.SKU][]string              // record IDs in insertion order
	locations map[inventory.LocationID]inventory.Location
}

func NewMemory() *Memory {
	return &Memory{
		records:   make(map[string]inventory.StockRecord),
		bySKU:     make(map[inventory.SKU][]string),
		locations: make(map[inventory.LocationID]inventory.Location),
	}
}

// AddLocation registers a location. Records at locations never
// registered are treated as active (tests often skip location setup).
func (m *Memory) AddLocation(loc inventory.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.ID] = loc
}

func (m *Memory) RecordsForSKU(_ context.Context, sku inventory.SKU) ([]inventory.StockRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []inventory.StockRecord
	for _, id := range m.bySKU[sku] {
		rec := m.records[id]
		if loc, known := m.locations[rec.LocationID]; known && !loc.Active {
			continue
		}
		result = append(result, rec)
	}
	// Stable location order so first-fit is deterministic.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LocationID < result[j].LocationID
	})
	return result, nil
}

func (m *Memory) GetRecord(_ context.Context, sku inventory.SKU, locationID inventory.LocationID) (*inventory.StockRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.bySKU[sku] {
		rec := m.records[id]
		if rec.LocationID == locationID {
			return &rec, nil
		}
	}
	return nil, inventory.ErrRecordNotFound
}

func (m *Memory) CreateRecord(_ context.Context, rec inventory.StockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.bySKU[rec.SKU] {
		if m.records[id].LocationID == rec.LocationID {
			return inventory.ErrRecordExists
		}
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	rec.UpdatedAt = time.Now().UTC()
	m.records[rec.ID] = rec
	m.bySKU[rec.SKU] = append(m.bySKU[rec.SKU], rec.ID)
	return nil
}

// ConditionalUpdate applies the single concurrency primitive: write
// only if the stored version still matches, incrementing on success.
func (m *Memory) ConditionalUpdate(_ context.Context, recordID string, expectedVersion int64, newOnHand, newReserved int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[recordID]
	if !ok {
		return false, inventory.ErrRecordNotFound
	}
	if rec.Version != expectedVersion {
		return false, nil
	}
	if newOnHand < 0 || newReserved < 0 || newReserved > newOnHand {
		return false, inventory.ErrInvalidQuantity
	}

	rec.OnHand = newOnHand
	rec.Reserved = newReserved
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	m.records[recordID] = rec
	return true, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn with snapshot/rollback semantics. The memory
// store has no real transactions; a copy of the full record state (the
// records map and the bySKU index together, so a rolled-back create
// leaves no dangling index entry) stands in for the database rollback.
func (m *Memory) WithTx(ctx context.Context, fn func(inventory.Store) error) error {
	m.mu.Lock()
	records := make(map[string]inventory.StockRecord, len(m.records))
	for k, v := range m.records {
		records[k] = v
	}
	bySKU := make(map[inventory.SKU][]string, len(m.bySKU))
	for k, v := range m.bySKU {
		ids := make([]string, len(v))
		copy(ids, v)
		bySKU[k] = ids
	}
	locations := make(map[inventory.LocationID]inventory.Location, len(m.locations))
	for k, v := range m.locations {
		locations[k] = v
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.records = records
		m.bySKU = bySKU
		m.locations = locations
		m.mu.Unlock()
		return err
	}
	return nil
}
