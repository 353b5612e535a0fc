/*
errors.go - Centralized error types for the stock engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Use case packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Stock errors - Insufficient availability (expected, recoverable)
  2. Concurrency errors - Lost optimistic-locking races (retried)
  3. Input errors - Programmer/caller mistakes (never retried)

USAGE:
  Callers branch with errors.Is / errors.As:

    var insufficient *inventory.InsufficientStockError
    if errors.As(err, &insufficient) {
        // show remaining quantity to the user
    }

SEE ALSO:
  - ledger.go: Produces these errors
  - checkout: Translates them into API responses
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientStock is returned when a requested quantity exceeds
	// what is available. This is an expected outcome, not a system fault.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConcurrentModification is returned when a conditional update
	// lost its race against another writer. Retried internally; callers
	// only see it when the retry budget is exhausted.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrInvalidQuantity is returned for zero or negative quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrUnknownSKU is returned when a commit or release references a SKU
	// with no stock records. Availability queries treat unknown SKUs as
	// zero instead.
	ErrUnknownSKU = errors.New("unknown sku")

	// ErrRecordExists is returned when provisioning a (sku, location)
	// pair that already has a stock record.
	ErrRecordExists = errors.New("stock record already exists")

	// ErrRecordNotFound is returned when a referenced record doesn't exist.
	ErrRecordNotFound = errors.New("stock record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError names the SKU and the requested/available
// quantities so callers can surface a precise "out of stock" message.
type InsufficientStockError struct {
	SKU       SKU
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid caller input
// or an expected business outcome rather than a system fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrUnknownSKU) ||
		errors.Is(err, ErrRecordExists)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrUnknownSKU)
}
