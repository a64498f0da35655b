/*
errors.go - Centralized error types for the roster domain

ERROR CATEGORIES:
  1. Validation errors - bad ranges, missing fields, invalid rates. Reported
     before any write is attempted.
  2. Reference errors - worker/tier/shift not found. Reported at the point of
     failure; earlier writes in the same batch stay committed.
  3. Store errors - backend failures, wrapped with context and propagated
     as-is. No retry, no backoff.

A shift whose tier cannot be resolved during aggregation is NOT an error:
it contributes zero.

USAGE:
  if errors.Is(err, roster.ErrNotFound) { ... 404 ... }
*/
package roster

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned by Gateway updates and gets when the id is absent.
	ErrNotFound = errors.New("not found")

	// ErrWorkerNotFound, ErrTierNotFound and ErrShiftNotFound all match ErrNotFound.
	ErrWorkerNotFound = fmt.Errorf("worker %w", ErrNotFound)
	ErrTierNotFound   = fmt.Errorf("tier %w", ErrNotFound)
	ErrShiftNotFound  = fmt.Errorf("shift %w", ErrNotFound)

	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = fmt.Errorf("%w: invalid period: end before start", ErrValidation)

	// ErrPeriodTooLong is returned when a requested period exceeds the caller's limit.
	ErrPeriodTooLong = fmt.Errorf("%w: period too long", ErrValidation)

	// ErrInvalidRate is returned for a negative hourly rate.
	ErrInvalidRate = fmt.Errorf("%w: hourly rate must be non-negative", ErrValidation)

	// ErrInvalidColor is returned for a color that is not #RRGGBB.
	ErrInvalidColor = fmt.Errorf("%w: color must be #RRGGBB", ErrValidation)

	// ErrInvalidShiftTimes is returned when a shift does not end after it starts.
	ErrInvalidShiftTimes = fmt.Errorf("%w: shift end must be after start", ErrValidation)
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}
