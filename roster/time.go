package roster

import (
	"fmt"
	"time"
)

// All times are naive wall-clock values. Offsets on input are dropped, not
// converted, and every Time produced here lives in time.UTC purely as a carrier.

const (
	DayLayout       = "2006-01-02"
	MonthLayout     = "2006-01"
	TimestampLayout = "2006-01-02T15:04:05"
)

// =============================================================================
// TIMESTAMPS
// =============================================================================

var timestampLayouts = []string{
	time.RFC3339Nano,
	TimestampLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Naive keeps t's wall clock to the whole second and drops its zone.
// Every backend stores timestamps at that precision.
func Naive(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// ParseTimestamp accepts ISO-8601 with or without an offset and returns the
// naive wall-clock time.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrValidation, s)
}

// FormatTimestamp renders t in the fixed layout used at store boundaries.
// The layout sorts lexically, which the SQL range predicates rely on.
func FormatTimestamp(t time.Time) string {
	return Naive(t).Format(TimestampLayout)
}

// =============================================================================
// DAY - a calendar date
// =============================================================================

type Day struct {
	Time time.Time
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the naive calendar date of t.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

func Today() Day { return DayOf(time.Now()) }

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: invalid date %q (use YYYY-MM-DD)", ErrValidation, s)
	}
	return DayOf(t), nil
}

func (d Day) Before(o Day) bool        { return d.Time.Before(o.Time) }
func (d Day) After(o Day) bool         { return d.Time.After(o.Time) }
func (d Day) Equal(o Day) bool         { return d.Time.Equal(o.Time) }
func (d Day) BeforeOrEqual(o Day) bool { return !d.After(o) }
func (d Day) AddDays(n int) Day        { return Day{Time: d.Time.AddDate(0, 0, n)} }
func (d Day) IsZero() bool             { return d.Time.IsZero() }
func (d Day) Weekday() time.Weekday    { return d.Time.Weekday() }
func (d Day) String() string           { return d.Time.Format(DayLayout) }

// At combines the day with a time of day.
func (d Day) At(tod TimeOfDay) time.Time {
	return d.Time.Add(time.Duration(tod) * time.Minute)
}

func (d Day) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// TIME OF DAY
// =============================================================================

// TimeOfDay is minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q (use HH:MM)", ErrValidation, s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()) }

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// PERIOD - inclusive range of days
// =============================================================================

type Period struct {
	Start Day
	End   Day
}

// NewPeriod validates that start is not after end.
func NewPeriod(start, end Day) (Period, error) {
	if start.After(end) {
		return Period{}, fmt.Errorf("%w: %s after %s", ErrInvalidPeriod, start, end)
	}
	return Period{Start: start, End: end}, nil
}

// MonthPeriod returns the calendar month containing year/month.
func MonthPeriod(year int, month time.Month) Period {
	start := NewDay(year, month, 1)
	return Period{Start: start, End: Day{Time: start.Time.AddDate(0, 1, -1)}}
}

// ParseMonth parses "YYYY-MM" into its month period.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid month %q (use YYYY-MM)", ErrValidation, s)
	}
	return MonthPeriod(t.Year(), t.Month()), nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Day) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Len returns the number of days in the period, both ends included.
func (p Period) Len() int {
	return int((p.End.Time.Unix()-p.Start.Time.Unix())/86400) + 1
}

// Days returns every day in the period, in order.
func (p Period) Days() []Day {
	var days []Day
	for current := p.Start; !current.After(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Bounds returns the first and last instants of the period, for range
// predicates on timestamps.
func (p Period) Bounds() (from, to time.Time) {
	return p.Start.Time, p.End.Time.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
