package staffing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/crew-scheduler/roster"
)

var (
	// ErrInvalidRange is returned when a multi-day request starts after it ends.
	ErrInvalidRange = fmt.Errorf("%w: invalid range: start date after end date", roster.ErrValidation)

	// ErrInvalidTimeRange is returned when the daily end time is not after the start time.
	ErrInvalidTimeRange = fmt.Errorf("%w: invalid time range: end time must be after start time", roster.ErrValidation)

	// ErrDurationOutOfBounds is returned when a daily shift is under 1 hour or over 24.
	ErrDurationOutOfBounds = fmt.Errorf("%w: shift duration must be between 1 and 24 hours", roster.ErrValidation)
)

const (
	MinShiftDuration = time.Hour
	MaxShiftDuration = 24 * time.Hour
)

// ShiftRequest schedules one worker on the same hours each day of a range.
// A zero EndDate means a single day.
type ShiftRequest struct {
	WorkerID  roster.WorkerID
	StartDate roster.Day
	EndDate   roster.Day
	StartTime roster.TimeOfDay
	EndTime   roster.TimeOfDay
	Notes     string
}

// Days returns the requested days, validating the range.
func (r ShiftRequest) Days() ([]roster.Day, error) {
	if r.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", roster.ErrValidation)
	}
	end := r.EndDate
	if end.IsZero() {
		end = r.StartDate
	}
	if r.StartDate.After(end) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidRange, r.StartDate, end)
	}
	return roster.Period{Start: r.StartDate, End: end}.Days(), nil
}

// Validate checks the request without touching any store.
func (r ShiftRequest) Validate() error {
	if r.WorkerID == "" {
		return fmt.Errorf("%w: worker is required", roster.ErrValidation)
	}
	if _, err := r.Days(); err != nil {
		return err
	}
	if r.EndTime <= r.StartTime {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, r.StartTime, r.EndTime)
	}
	d := time.Duration(r.EndTime-r.StartTime) * time.Minute
	if d < MinShiftDuration || d > MaxShiftDuration {
		return fmt.Errorf("%w: got %s", ErrDurationOutOfBounds, d)
	}
	return nil
}

// Expand turns a request into one shift per day, stamped with the worker's
// current name, position and tier. The tier color and rate are stamped only
// when the worker's tier resolves.
func Expand(req ShiftRequest, worker roster.Worker, tiers roster.TierIndex) ([]roster.Shift, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	days, _ := req.Days()

	tier, hasTier := tiers.Lookup(worker.TierID)

	shifts := make([]roster.Shift, 0, len(days))
	for _, day := range days {
		s := roster.Shift{
			WorkerID:   worker.ID,
			WorkerName: worker.Name,
			Position:   worker.Position,
			StartTime:  day.At(req.StartTime),
			EndTime:    day.At(req.EndTime),
			Date:       day,
			TierID:     worker.TierID,
			Notes:      req.Notes,
		}
		if hasTier {
			s = s.StampTier(tier)
		}
		s.DurationInHours = decimal.NewNullDecimal(roster.DurationHours(s.StartTime, s.EndTime))
		shifts = append(shifts, s)
	}
	return shifts, nil
}
