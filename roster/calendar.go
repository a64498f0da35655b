package roster

import (
	"fmt"
	"sort"
	"time"
)

// DaySchedule is one cell of the month grid.
type DaySchedule struct {
	Date   Day
	Shifts []Shift
}

// GroupByDay buckets shifts by the calendar day of their start time.
// Every day of p gets an entry, in order; shifts outside p are dropped.
// Within a day shifts are ordered by start time.
func GroupByDay(shifts []Shift, p Period) []DaySchedule {
	days := p.Days()
	out := make([]DaySchedule, len(days))
	pos := make(map[string]int, len(days))
	for i, d := range days {
		out[i] = DaySchedule{Date: d}
		pos[d.String()] = i
	}
	for _, s := range shifts {
		i, ok := pos[DayOf(s.StartTime).String()]
		if !ok {
			continue
		}
		out[i].Shifts = append(out[i].Shifts, s)
	}
	for i := range out {
		sortByStart(out[i].Shifts)
	}
	return out
}

func sortByStart(shifts []Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})
}

// SortShifts orders shifts by start time, then id.
func SortShifts(shifts []Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		if shifts[i].StartTime.Equal(shifts[j].StartTime) {
			return shifts[i].ID < shifts[j].ID
		}
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})
}

// FormatWorkingHours renders a duration label like "8h" or "7h 30m".
func FormatWorkingHours(start, end time.Time) string {
	minutes := int(end.Sub(start) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
