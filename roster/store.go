/*
store.go - Record Store Gateway interfaces

PURPOSE:
  Defines the boundary between the domain logic and the record store. The
  gateway offers generic create/read/update/delete per collection (workers,
  tiers, schedules) keyed by opaque string ids, plus range queries on shift
  start times.

CONTRACT:
  - Create assigns the id and returns it
  - Update applies a patch; ErrNotFound (wrapped) when the id is absent
  - Delete is idempotent
  - No multi-record transactions. Callers that fan out writes must report
    partial failure themselves.
  - Last write wins. No optimistic concurrency control.

IMPLEMENTATIONS:
  - roster/store/memory.go:   in-memory (tests, dev)
  - store/sqldb/sqldb.go:     SQLite / PostgreSQL via sqlx
  - store/redisdoc/redis.go:  JSON documents in Redis hashes
*/
package roster

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"
)

// =============================================================================
// COLLECTIONS
// =============================================================================

type WorkerStore interface {
	ListWorkers(ctx context.Context) ([]Worker, error)
	GetWorker(ctx context.Context, id WorkerID) (Worker, error)
	CreateWorker(ctx context.Context, w Worker) (WorkerID, error)
	UpdateWorker(ctx context.Context, id WorkerID, patch WorkerPatch) error
	DeleteWorker(ctx context.Context, id WorkerID) error
}

type TierStore interface {
	ListTiers(ctx context.Context) ([]Tier, error)
	GetTier(ctx context.Context, id TierID) (Tier, error)
	CreateTier(ctx context.Context, t Tier) (TierID, error)
	UpdateTier(ctx context.Context, id TierID, patch TierPatch) error
	DeleteTier(ctx context.Context, id TierID) error
}

type ShiftStore interface {
	// ListShifts returns shifts matching q, ordered by StartTime.
	ListShifts(ctx context.Context, q ShiftQuery) ([]Shift, error)
	GetShift(ctx context.Context, id ShiftID) (Shift, error)
	CreateShift(ctx context.Context, s Shift) (ShiftID, error)
	UpdateShift(ctx context.Context, id ShiftID, patch ShiftPatch) error
	DeleteShift(ctx context.Context, id ShiftID) error
}

// Gateway is the full Record Store Gateway.
type Gateway interface {
	WorkerStore
	TierStore
	ShiftStore
}

// =============================================================================
// QUERIES
// =============================================================================

// ShiftQuery filters shifts. Zero fields do not filter.
// From/To is an inclusive range predicate on StartTime.
type ShiftQuery struct {
	WorkerID WorkerID
	From     *time.Time
	To       *time.Time
}

// InPeriod returns a query for shifts starting within p.
func InPeriod(p Period) ShiftQuery {
	from, to := p.Bounds()
	return ShiftQuery{From: &from, To: &to}
}

// ForWorker returns a query for every shift of a worker, regardless of date.
func ForWorker(id WorkerID) ShiftQuery {
	return ShiftQuery{WorkerID: id}
}

// Matches reports whether s satisfies the query. Backends that filter in
// process use it so every gateway agrees on the predicate.
func (q ShiftQuery) Matches(s Shift) bool {
	if q.WorkerID != "" && s.WorkerID != q.WorkerID {
		return false
	}
	start := Naive(s.StartTime)
	if q.From != nil && start.Before(Naive(*q.From)) {
		return false
	}
	if q.To != nil && start.After(Naive(*q.To)) {
		return false
	}
	return true
}

// SortWorkers orders workers by name, then id.
func SortWorkers(ws []Worker) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].Name == ws[j].Name {
			return ws[i].ID < ws[j].ID
		}
		return ws[i].Name < ws[j].Name
	})
}

// SortTiers orders tiers by name, then id.
func SortTiers(ts []Tier) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Name == ts[j].Name {
			return ts[i].ID < ts[j].ID
		}
		return ts[i].Name < ts[j].Name
	})
}

// =============================================================================
// RECORD VALIDATION - shared by gateways before writes
// =============================================================================

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateTier checks the Tier invariants.
func ValidateTier(t Tier) error {
	if t.Name == "" {
		return fmt.Errorf("%w: tier name is required", ErrValidation)
	}
	if t.HourlyRate.IsNegative() {
		return ErrInvalidRate
	}
	if !colorPattern.MatchString(t.Color) {
		return ErrInvalidColor
	}
	return nil
}

// ValidateShift checks the Shift invariants.
func ValidateShift(s Shift) error {
	if s.WorkerID == "" {
		return fmt.Errorf("%w: shift worker is required", ErrValidation)
	}
	if !s.EndTime.After(s.StartTime) {
		return ErrInvalidShiftTimes
	}
	return nil
}

// ValidateWorker checks the required worker fields.
func ValidateWorker(w Worker) error {
	if w.Name == "" || w.Position == "" {
		return fmt.Errorf("%w: name and position are required", ErrValidation)
	}
	return nil
}
