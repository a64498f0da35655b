/*
Package roster provides the domain model of the crew scheduler.

PURPOSE:
  Workers, pay tiers and shifts, plus the small set of helpers every other
  package needs to talk about them: identifiers, calendar days, patches for
  partial updates, and the Record Store Gateway interfaces.

KEY CONCEPTS IN THIS FILE (types.go):
  - Worker: a person that can be scheduled, optionally tiered
  - Tier:   a pay-rate category with a display color
  - Shift:  one worker's time block on one calendar day, carrying
            denormalized snapshots of the worker and tier at write time

DESIGN PRINCIPLES:
  1. Precision: rates, hours and costs use decimal.Decimal
  2. Explicit optionality: an empty TierID means "no tier"; optional numbers
     use decimal.NullDecimal
  3. Snapshots are values captured at write time and never auto-synced

SEE ALSO:
  - time.go:  Day, TimeOfDay and Period
  - store.go: Record Store Gateway interfaces
  - tiers.go: tier lookup and resolution policy
*/
package roster

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type TierID string
type ShiftID string

// IsZero reports whether the reference is unassigned.
func (id TierID) IsZero() bool { return id == "" }

// DefaultTierColor is used when a tier is created without a color.
const DefaultTierColor = "#3498db"

// =============================================================================
// WORKER
// =============================================================================

// Availability is a time-of-day window. Declared on workers, unused by estimates.
type Availability struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

type Worker struct {
	ID       WorkerID
	Name     string
	Position string
	Email    string
	Phone    string
	TierID   TierID

	// Tier is the deprecated parallel tier field. Every tier write keeps it
	// equal to TierID.
	Tier string

	// Availability maps weekday names ("monday") to ordered windows.
	Availability map[string][]Availability
}

// =============================================================================
// TIER
// =============================================================================

type Tier struct {
	ID         TierID
	Name       string
	HourlyRate decimal.Decimal
	Color      string
}

// =============================================================================
// SHIFT
// =============================================================================

type Shift struct {
	ID       ShiftID
	WorkerID WorkerID

	// Snapshots of the worker at creation time.
	WorkerName string
	Position   string

	StartTime time.Time
	EndTime   time.Time

	// Date is the calendar day the shift is assigned to (the day of StartTime).
	Date Day

	// Snapshots of the tier at creation or last reassignment.
	TierID     TierID
	TierColor  string
	HourlyRate decimal.NullDecimal

	// DurationInHours caches (EndTime - StartTime) in hours.
	DurationInHours decimal.NullDecimal

	Notes string
}

var hourSeconds = decimal.NewFromInt(3600)

// DurationHours returns (end - start) in hours, computed in whole seconds.
func DurationHours(start, end time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(end.Sub(start) / time.Second)).Div(hourSeconds)
}

// Hours returns the cached duration when it is set and non-negative, and the
// computed duration otherwise.
func (s Shift) Hours() decimal.Decimal {
	if s.DurationInHours.Valid && !s.DurationInHours.Decimal.IsNegative() {
		return s.DurationInHours.Decimal
	}
	return DurationHours(s.StartTime, s.EndTime)
}

// WithCachedDuration fills DurationInHours when it is not already cached.
func (s Shift) WithCachedDuration() Shift {
	if !s.DurationInHours.Valid {
		s.DurationInHours = decimal.NewNullDecimal(DurationHours(s.StartTime, s.EndTime))
	}
	return s
}

// StampTier overwrites the tier snapshot fields with t's current values.
func (s Shift) StampTier(t Tier) Shift {
	s.TierID = t.ID
	s.TierColor = t.Color
	s.HourlyRate = decimal.NewNullDecimal(t.HourlyRate)
	return s
}

// =============================================================================
// PATCHES - partial updates for Gateway.Update*
// =============================================================================

// WorkerPatch carries the fields to overwrite. Nil fields are left alone.
type WorkerPatch struct {
	Name         *string
	Position     *string
	Email        *string
	Phone        *string
	TierID       *TierID
	Tier         *string
	Availability map[string][]Availability
}

func (p WorkerPatch) Apply(w Worker) Worker {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Position != nil {
		w.Position = *p.Position
	}
	if p.Email != nil {
		w.Email = *p.Email
	}
	if p.Phone != nil {
		w.Phone = *p.Phone
	}
	if p.TierID != nil {
		w.TierID = *p.TierID
	}
	if p.Tier != nil {
		w.Tier = *p.Tier
	}
	if p.Availability != nil {
		w.Availability = p.Availability
	}
	return w
}

type TierPatch struct {
	Name       *string
	HourlyRate *decimal.Decimal
	Color      *string
}

func (p TierPatch) Apply(t Tier) Tier {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.HourlyRate != nil {
		t.HourlyRate = *p.HourlyRate
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	return t
}

type ShiftPatch struct {
	WorkerName      *string
	Position        *string
	StartTime       *time.Time
	EndTime         *time.Time
	TierID          *TierID
	TierColor       *string
	HourlyRate      *decimal.NullDecimal
	DurationInHours *decimal.NullDecimal
	Notes           *string
}

// Apply overwrites the set fields and re-derives Date from StartTime.
// Moving the shift refreshes the cached duration unless the patch sets it.
func (p ShiftPatch) Apply(s Shift) Shift {
	if p.WorkerName != nil {
		s.WorkerName = *p.WorkerName
	}
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.StartTime != nil {
		s.StartTime = Naive(*p.StartTime)
	}
	if p.EndTime != nil {
		s.EndTime = Naive(*p.EndTime)
	}
	if p.TierID != nil {
		s.TierID = *p.TierID
	}
	if p.TierColor != nil {
		s.TierColor = *p.TierColor
	}
	if p.HourlyRate != nil {
		s.HourlyRate = *p.HourlyRate
	}
	switch {
	case p.DurationInHours != nil:
		s.DurationInHours = *p.DurationInHours
	case p.StartTime != nil || p.EndTime != nil:
		s.DurationInHours = decimal.NewNullDecimal(DurationHours(s.StartTime, s.EndTime))
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	s.Date = DayOf(s.StartTime)
	return s
}

// TierStampPatch is the patch written by a tier reassignment.
func TierStampPatch(s Shift) ShiftPatch {
	return ShiftPatch{
		TierID:          &s.TierID,
		TierColor:       &s.TierColor,
		HourlyRate:      &s.HourlyRate,
		DurationInHours: &s.DurationInHours,
	}
}
