/*
sweeper.go - Cart abandonment sweep

PURPOSE:
  A reservation that is never committed must eventually be released,
  or abandoned carts would pin stock forever. The sweeper periodically
  finds holds older than the TTL, releases the held quantity back to
  availability, and drops the hold.

DESIGN:
  - Background goroutine with a configurable check interval
  - Release is floor-at-zero idempotent, so sweeping a hold whose
    quantity was already committed or released cannot corrupt state
  - Hold deletion happens after the release; a crash in between leaves
    a hold that the next sweep re-releases harmlessly

USAGE:
  sweeper := checkout.NewSweeper(store, holdStore)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - inventory/ledger.go: ReleaseReservation idempotence
  - cart.go: Where holds are created
*/
package checkout

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// SWEEPER
// =============================================================================

// Sweeper releases expired cart holds back to availability.
type Sweeper struct {
	ledger        *inventory.Ledger
	holds         HoldStore
	CheckInterval time.Duration
	TTL           time.Duration

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweeper creates a sweeper with a 1 minute check interval and a
// 30 minute hold TTL.
func NewSweeper(store inventory.Store, holds HoldStore) *Sweeper {
	return &Sweeper{
		ledger:        inventory.NewLedger(store),
		holds:         holds,
		CheckInterval: 1 * time.Minute,
		TTL:           30 * time.Minute,
		stop:          make(chan bool),
	}
}

// Start begins the background sweep.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()

	log.Printf("[Sweeper] Started with check interval %v, hold TTL %v", s.CheckInterval, s.TTL)
}

// Stop stops the sweep and waits for the current pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.SweepOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

// SweepOnce releases every hold older than the TTL. Exposed for
// testing and admin triggering.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.TTL)

	expired, err := s.holds.ExpiredHolds(ctx, cutoff)
	if err != nil {
		log.Printf("[Sweeper] Error listing expired holds: %v", err)
		return
	}

	released := 0
	for _, hold := range expired {
		if err := s.ledger.ReleaseReservation(ctx, hold.SKU, hold.Quantity, hold.SessionID); err != nil {
			log.Printf("[Sweeper] Error releasing hold %s (%s): %v", hold.ID, hold.SKU, err)
			continue
		}
		if err := s.holds.DeleteHold(ctx, hold.ID); err != nil {
			log.Printf("[Sweeper] Error deleting hold %s: %v", hold.ID, err)
			continue
		}
		released++
	}

	if released > 0 {
		log.Printf("[Sweeper] Released %d expired holds", released)
	}
}
