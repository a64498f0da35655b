package estimate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/estimate"
	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/roster/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	senior = roster.Tier{ID: "senior", Name: "Senior", HourlyRate: dec("50"), Color: "#AA0000"}
	junior = roster.Tier{ID: "junior", Name: "Junior", HourlyRate: dec("25"), Color: "#00AA00"}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func shift(id, worker, start, end string) roster.Shift {
	st, err := roster.ParseTimestamp(start)
	if err != nil {
		panic(err)
	}
	en, err := roster.ParseTimestamp(end)
	if err != nil {
		panic(err)
	}
	return roster.Shift{ID: roster.ShiftID(id), WorkerID: roster.WorkerID(worker), StartTime: st, EndTime: en}
}

func period(t *testing.T, from, to string) roster.Period {
	t.Helper()
	start, err := roster.ParseDay(from)
	require.NoError(t, err)
	end, err := roster.ParseDay(to)
	require.NoError(t, err)
	p, err := roster.NewPeriod(start, end)
	require.NoError(t, err)
	return p
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msg)
}

// =============================================================================
// DAILY SUMMARIES
// =============================================================================

func TestDailySummaries_SeniorEightHours(t *testing.T) {
	// GIVEN: Worker W on Senior at $50/hr with one 08:00-16:00 shift
	// WHEN: Summarizing that day
	// THEN: 8 hours, $400, all under Senior

	workers := []roster.Worker{{ID: "w", Name: "W", TierID: senior.ID}}
	shifts := []roster.Shift{shift("s1", "w", "2024-06-01T08:00", "2024-06-01T16:00")}

	days := estimate.DailySummaries(shifts, workers, []roster.Tier{senior, junior}, period(t, "2024-06-01", "2024-06-01"))

	require.Len(t, days, 1)
	assert.Equal(t, "2024-06-01", days[0].Date.String())
	assertDec(t, "8", days[0].TotalHours)
	assertDec(t, "400", days[0].TotalCost)
	require.Len(t, days[0].Tiers, 1)
	assertDec(t, "8", days[0].Tiers[senior.ID].Hours)
	assertDec(t, "400", days[0].Tiers[senior.ID].Cost)
}

func TestDailySummaries_OneEntryPerDayInOrder(t *testing.T) {
	// GIVEN: A 30-day range with shifts on only two days
	workers := []roster.Worker{{ID: "w", TierID: senior.ID}}
	shifts := []roster.Shift{
		shift("b", "w", "2024-06-20T08:00", "2024-06-20T10:00"),
		shift("a", "w", "2024-06-03T08:00", "2024-06-03T09:00"),
	}

	days := estimate.DailySummaries(shifts, workers, []roster.Tier{senior}, period(t, "2024-06-01", "2024-06-30"))

	// THEN: 30 summaries, chronological, empty days zeroed
	require.Len(t, days, 30)
	for i := 1; i < len(days); i++ {
		assert.True(t, days[i-1].Date.Before(days[i].Date))
	}
	assertDec(t, "0", days[0].TotalHours)
	assert.Empty(t, days[0].Tiers)
	assertDec(t, "1", days[2].TotalHours)
	assertDec(t, "100", days[19].TotalCost)
}

func TestDailySummaries_AcrossMonthBoundary(t *testing.T) {
	days := estimate.DailySummaries(nil, nil, nil, period(t, "2024-01-30", "2024-02-02"))

	require.Len(t, days, 4)
	assert.Equal(t, "2024-01-30", days[0].Date.String())
	assert.Equal(t, "2024-02-02", days[3].Date.String())
}

func TestDailySummaries_ShiftSnapshotWinsOverWorker(t *testing.T) {
	// GIVEN: Worker now on Junior, shift still stamped Senior
	workers := []roster.Worker{{ID: "w", TierID: junior.ID}}
	s := shift("s1", "w", "2024-06-01T08:00", "2024-06-01T12:00")
	s.TierID = senior.ID

	days := estimate.DailySummaries([]roster.Shift{s}, workers, []roster.Tier{senior, junior}, period(t, "2024-06-01", "2024-06-01"))

	// THEN: Billed under Senior
	_, hasJunior := days[0].Tiers[junior.ID]
	assert.False(t, hasJunior)
	assertDec(t, "200", days[0].Tiers[senior.ID].Cost)
}

func TestDailySummaries_RateSnapshotKeepsHistoricalCost(t *testing.T) {
	// GIVEN: Senior's rate was raised to $60 after the shift was stamped at $50
	raised := senior
	raised.HourlyRate = dec("60")
	s := shift("s1", "w", "2024-06-01T08:00", "2024-06-01T16:00")
	s = s.StampTier(senior)

	days := estimate.DailySummaries([]roster.Shift{s}, nil, []roster.Tier{raised}, period(t, "2024-06-01", "2024-06-01"))

	// THEN: The stamped rate is used
	assertDec(t, "400", days[0].TotalCost)
}

func TestDailySummaries_UnresolvedTierContributesZero(t *testing.T) {
	workers := []roster.Worker{
		{ID: "untiered"},
		{ID: "orphan", TierID: "deleted"},
		{ID: "ok", TierID: senior.ID},
	}
	dangling := shift("d", "ok", "2024-06-01T08:00", "2024-06-01T10:00")
	dangling.TierID = "deleted"

	shifts := []roster.Shift{
		shift("u", "untiered", "2024-06-01T08:00", "2024-06-01T10:00"),
		shift("o", "orphan", "2024-06-01T08:00", "2024-06-01T10:00"),
		shift("g", "ghost-worker", "2024-06-01T08:00", "2024-06-01T10:00"),
		dangling,
		shift("k", "ok", "2024-06-01T08:00", "2024-06-01T09:00"),
	}

	days := estimate.DailySummaries(shifts, workers, []roster.Tier{senior}, period(t, "2024-06-01", "2024-06-01"))

	// THEN: Only the resolvable shift counts; no error, no phantom tiers
	assertDec(t, "1", days[0].TotalHours)
	assertDec(t, "50", days[0].TotalCost)
	assert.Len(t, days[0].Tiers, 1)
}

func TestDailySummaries_OverlappingShiftsAreSummed(t *testing.T) {
	workers := []roster.Worker{{ID: "w", TierID: junior.ID}}
	shifts := []roster.Shift{
		shift("a", "w", "2024-06-01T08:00", "2024-06-01T12:00"),
		shift("b", "w", "2024-06-01T10:00", "2024-06-01T14:00"),
	}

	days := estimate.DailySummaries(shifts, workers, []roster.Tier{junior}, period(t, "2024-06-01", "2024-06-01"))

	assertDec(t, "8", days[0].TotalHours)
	assertDec(t, "200", days[0].TotalCost)
}

func TestDailySummaries_CachedDurationRules(t *testing.T) {
	workers := []roster.Worker{{ID: "w", TierID: senior.ID}}

	cached := shift("c", "w", "2024-06-01T08:00", "2024-06-01T16:00")
	cached.DurationInHours = decimal.NewNullDecimal(dec("7.5"))

	negative := shift("n", "w", "2024-06-02T08:00", "2024-06-02T10:00")
	negative.DurationInHours = decimal.NewNullDecimal(dec("-3"))

	days := estimate.DailySummaries([]roster.Shift{cached, negative}, workers, []roster.Tier{senior}, period(t, "2024-06-01", "2024-06-02"))

	assertDec(t, "7.5", days[0].TotalHours, "cached value is trusted")
	assertDec(t, "2", days[1].TotalHours, "negative cache falls back to timestamps")
}

func TestDailySummaries_DayIsStartDate(t *testing.T) {
	// An overnight shift belongs entirely to the day it starts
	workers := []roster.Worker{{ID: "w", TierID: junior.ID}}
	s := shift("night", "w", "2024-06-01T22:00", "2024-06-02T06:00")

	days := estimate.DailySummaries([]roster.Shift{s}, workers, []roster.Tier{junior}, period(t, "2024-06-01", "2024-06-02"))

	assertDec(t, "8", days[0].TotalHours)
	assertDec(t, "0", days[1].TotalHours)
}

// =============================================================================
// PERIOD TOTALS
// =============================================================================

func sampleDays(t *testing.T) []estimate.DailySummary {
	workers := []roster.Worker{{ID: "s", TierID: senior.ID}, {ID: "j", TierID: junior.ID}}
	shifts := []roster.Shift{
		shift("1", "s", "2024-06-01T08:00", "2024-06-01T16:00"),
		shift("2", "j", "2024-06-01T08:00", "2024-06-01T12:30"),
		shift("3", "j", "2024-06-02T09:15", "2024-06-02T17:00"),
		shift("4", "s", "2024-06-03T07:00", "2024-06-03T08:20"),
	}
	return estimate.DailySummaries(shifts, workers, []roster.Tier{senior, junior}, period(t, "2024-06-01", "2024-06-05"))
}

func TestPeriodTotals_EqualsSumOfDays(t *testing.T) {
	days := sampleDays(t)
	totals := estimate.PeriodTotals(days, []roster.Tier{senior, junior})

	hours, cost := decimal.Zero, decimal.Zero
	for _, d := range days {
		hours = hours.Add(d.TotalHours)
		cost = cost.Add(d.TotalCost)
	}
	assert.True(t, hours.Equal(totals.TotalHours))
	assert.True(t, cost.Equal(totals.TotalCost))

	tierHours := decimal.Zero
	for _, tt := range totals.Tiers {
		tierHours = tierHours.Add(tt.Hours)
	}
	assert.True(t, tierHours.Equal(totals.TotalHours))
}

func TestPeriodTotals_IdempotentAndOrderIndependent(t *testing.T) {
	days := sampleDays(t)
	tiers := []roster.Tier{senior, junior}

	first := estimate.PeriodTotals(days, tiers)
	second := estimate.PeriodTotals(days, tiers)

	reversed := make([]estimate.DailySummary, len(days))
	for i, d := range days {
		reversed[len(days)-1-i] = d
	}
	third := estimate.PeriodTotals(reversed, tiers)

	for _, other := range []estimate.Totals{second, third} {
		assert.Equal(t, first.TotalHours.String(), other.TotalHours.String())
		assert.Equal(t, first.TotalCost.String(), other.TotalCost.String())
		require.Len(t, other.Tiers, len(first.Tiers))
		for i := range first.Tiers {
			assert.Equal(t, first.Tiers[i].Hours.String(), other.Tiers[i].Hours.String())
			assert.Equal(t, first.Tiers[i].Cost.String(), other.Tiers[i].Cost.String())
		}
	}
}

func TestPeriodTotals_IncludesIdleTiers(t *testing.T) {
	idle := roster.Tier{ID: "idle", Name: "Trainee", HourlyRate: dec("15"), Color: "#000000"}
	totals := estimate.PeriodTotals(sampleDays(t), []roster.Tier{senior, junior, idle})

	require.Len(t, totals.Tiers, 3)
	assert.Equal(t, "Trainee", totals.Tiers[2].Name)
	assert.Equal(t, "#000000", totals.Tiers[2].Color)
	assertDec(t, "0", totals.Tiers[2].Hours)
	assertDec(t, "0", totals.Tiers[2].Cost)
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoad_FetchesPeriodFromGateway(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemory()

	tierID, err := gw.CreateTier(ctx, senior)
	require.NoError(t, err)
	workerID, err := gw.CreateWorker(ctx, roster.Worker{Name: "W", Position: "Cook", TierID: tierID})
	require.NoError(t, err)

	for _, s := range []roster.Shift{
		shift("", string(workerID), "2024-06-01T08:00", "2024-06-01T16:00"),
		shift("", string(workerID), "2024-07-01T08:00", "2024-07-01T16:00"),
	} {
		_, err := gw.CreateShift(ctx, s)
		require.NoError(t, err)
	}

	june, err := roster.ParseMonth("2024-06")
	require.NoError(t, err)

	report, err := estimate.Load(ctx, gw, june)
	require.NoError(t, err)

	assert.Len(t, report.Days, 30)
	assertDec(t, "8", report.Totals.TotalHours)
	assertDec(t, "400", report.Totals.TotalCost)
	require.Len(t, report.Totals.Tiers, 1)
	assert.Equal(t, "Senior", report.Totals.Tiers[0].Name)
}

type failingSource struct{ estimate.Source }

var errDown = errors.New("store unavailable")

func (failingSource) ListTiers(context.Context) ([]roster.Tier, error) { return nil, errDown }

func TestLoad_PropagatesStoreErrors(t *testing.T) {
	june, err := roster.ParseMonth("2024-06")
	require.NoError(t, err)

	_, err = estimate.Load(context.Background(), failingSource{}, june)
	assert.ErrorIs(t, err, errDown)
}
