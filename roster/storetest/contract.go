/*
Package storetest holds the contract every roster.Gateway backend must pass.

Backends call Run from their own _test.go files:

	func TestMemoryGateway(t *testing.T) {
		storetest.Run(t, func(t *testing.T) roster.Gateway { return store.NewMemory() })
	}
*/
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/roster"
)

// Factory returns a fresh, empty gateway for one subtest.
type Factory func(t *testing.T) roster.Gateway

func Run(t *testing.T, newGateway Factory) {
	t.Run("WorkerRoundTrip", func(t *testing.T) { testWorkerRoundTrip(t, newGateway(t)) })
	t.Run("WorkerUpdateMissing", func(t *testing.T) { testWorkerUpdateMissing(t, newGateway(t)) })
	t.Run("TierDefaultsAndValidation", func(t *testing.T) { testTierDefaults(t, newGateway(t)) })
	t.Run("TierDeleteDoesNotCascade", func(t *testing.T) { testTierDeleteNoCascade(t, newGateway(t)) })
	t.Run("ShiftRangeQuery", func(t *testing.T) { testShiftRange(t, newGateway(t)) })
	t.Run("ShiftPatchSnapshots", func(t *testing.T) { testShiftPatch(t, newGateway(t)) })
	t.Run("ShiftMoveRefreshesDuration", func(t *testing.T) { testShiftMove(t, newGateway(t)) })
	t.Run("TimestampsAtSecondPrecision", func(t *testing.T) { testTimestampPrecision(t, newGateway(t)) })
	t.Run("DeleteIsIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newGateway(t)) })
}

func ts(s string) time.Time {
	t, err := roster.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

func testWorkerRoundTrip(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()

	// GIVEN: A worker with availability windows
	id, err := gw.CreateWorker(ctx, roster.Worker{
		Name:     "Ada",
		Position: "Cook",
		Email:    "ada@example.com",
		TierID:   "senior",
		Tier:     "senior",
		Availability: map[string][]roster.Availability{
			"monday": {{Start: roster.NewTimeOfDay(8, 0), End: roster.NewTimeOfDay(12, 0)}},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// WHEN: Read back
	got, err := gw.GetWorker(ctx, id)
	require.NoError(t, err)

	// THEN: Every field survives
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "Cook", got.Position)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, roster.TierID("senior"), got.TierID)
	assert.Equal(t, "senior", got.Tier)
	require.Len(t, got.Availability["monday"], 1)
	assert.Equal(t, "12:00", got.Availability["monday"][0].End.String())

	// Patch only the tier
	junior := roster.TierID("junior")
	tierStr := "junior"
	require.NoError(t, gw.UpdateWorker(ctx, id, roster.WorkerPatch{TierID: &junior, Tier: &tierStr}))

	got, err = gw.GetWorker(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, junior, got.TierID)
	assert.Equal(t, "Ada", got.Name)

	all, err := gw.ListWorkers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testWorkerUpdateMissing(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()
	name := "x"

	err := gw.UpdateWorker(ctx, "missing", roster.WorkerPatch{Name: &name})
	assert.ErrorIs(t, err, roster.ErrNotFound)

	_, err = gw.GetWorker(ctx, "missing")
	assert.ErrorIs(t, err, roster.ErrWorkerNotFound)

	_, err = gw.CreateWorker(ctx, roster.Worker{Name: "No position"})
	assert.ErrorIs(t, err, roster.ErrValidation)
}

func testTierDefaults(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()

	id, err := gw.CreateTier(ctx, roster.Tier{Name: "Senior", HourlyRate: decimal.RequireFromString("50.25")})
	require.NoError(t, err)

	got, err := gw.GetTier(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, roster.DefaultTierColor, got.Color)
	assert.True(t, got.HourlyRate.Equal(decimal.RequireFromString("50.25")))

	_, err = gw.CreateTier(ctx, roster.Tier{Name: "Bad", HourlyRate: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, roster.ErrInvalidRate)

	neg := decimal.NewFromInt(-1)
	err = gw.UpdateTier(ctx, id, roster.TierPatch{HourlyRate: &neg})
	assert.ErrorIs(t, err, roster.ErrInvalidRate)

	rate := decimal.NewFromInt(55)
	require.NoError(t, gw.UpdateTier(ctx, id, roster.TierPatch{HourlyRate: &rate}))
	got, err = gw.GetTier(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.HourlyRate.Equal(rate))

	err = gw.UpdateTier(ctx, "missing", roster.TierPatch{HourlyRate: &rate})
	assert.ErrorIs(t, err, roster.ErrTierNotFound)
}

func testTierDeleteNoCascade(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()

	tierID, err := gw.CreateTier(ctx, roster.Tier{Name: "Temp", HourlyRate: decimal.NewFromInt(10), Color: "#112233"})
	require.NoError(t, err)
	workerID, err := gw.CreateWorker(ctx, roster.Worker{Name: "Bo", Position: "Host", TierID: tierID})
	require.NoError(t, err)

	require.NoError(t, gw.DeleteTier(ctx, tierID))

	w, err := gw.GetWorker(ctx, workerID)
	require.NoError(t, err)
	assert.Equal(t, tierID, w.TierID, "worker keeps the dangling reference")

	tiers, err := gw.ListTiers(ctx)
	require.NoError(t, err)
	assert.Empty(t, tiers)
}

func testShiftRange(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()

	// GIVEN: Shifts at the edges of June plus one in July, for two workers
	mk := func(worker roster.WorkerID, start, end string) roster.ShiftID {
		id, err := gw.CreateShift(ctx, roster.Shift{WorkerID: worker, StartTime: ts(start), EndTime: ts(end)})
		require.NoError(t, err)
		return id
	}
	first := mk("w1", "2024-06-01T00:00:00", "2024-06-01T08:00:00")
	last := mk("w2", "2024-06-30T22:00:00", "2024-07-01T02:00:00")
	july := mk("w1", "2024-07-01T08:00:00", "2024-07-01T12:00:00")

	june, err := roster.ParseMonth("2024-06")
	require.NoError(t, err)

	// WHEN: Querying June by start time
	got, err := gw.ListShifts(ctx, roster.InPeriod(june))
	require.NoError(t, err)

	// THEN: Both inclusive edges are in, July is out, ordered by start
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].ID)
	assert.Equal(t, last, got[1].ID)
	assert.Equal(t, "2024-06-30", got[1].Date.String())

	// Worker filter ignores dates
	mine, err := gw.ListShifts(ctx, roster.ForWorker("w1"))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, july, mine[1].ID)

	// Combined filter
	q := roster.InPeriod(june)
	q.WorkerID = "w2"
	both, err := gw.ListShifts(ctx, q)
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, last, both[0].ID)

	_, err = gw.CreateShift(ctx, roster.Shift{WorkerID: "w1", StartTime: ts("2024-06-02T08:00:00"), EndTime: ts("2024-06-02T08:00:00")})
	assert.ErrorIs(t, err, roster.ErrInvalidShiftTimes)
}

func testShiftPatch(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()

	id, err := gw.CreateShift(ctx, roster.Shift{
		WorkerID:   "w1",
		WorkerName: "Ada",
		Position:   "Cook",
		StartTime:  ts("2024-06-01T08:00:00"),
		EndTime:    ts("2024-06-01T16:00:00"),
		TierID:     "senior",
		TierColor:  "#AA0000",
		HourlyRate: decimal.NewNullDecimal(decimal.NewFromInt(50)),
		Notes:      "open",
	})
	require.NoError(t, err)

	got, err := gw.GetShift(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.DurationInHours.Valid, "no cache unless written")
	assert.True(t, got.HourlyRate.Decimal.Equal(decimal.NewFromInt(50)))

	// WHEN: Re-stamped with a new tier
	stamped := got.StampTier(roster.Tier{ID: "junior", Color: "#00AA00", HourlyRate: decimal.NewFromInt(25)}).WithCachedDuration()
	require.NoError(t, gw.UpdateShift(ctx, id, roster.TierStampPatch(stamped)))

	// THEN: Tier snapshot and cached duration change, the rest is untouched
	got, err = gw.GetShift(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, roster.TierID("junior"), got.TierID)
	assert.Equal(t, "#00AA00", got.TierColor)
	assert.True(t, got.HourlyRate.Decimal.Equal(decimal.NewFromInt(25)))
	require.True(t, got.DurationInHours.Valid)
	assert.True(t, got.DurationInHours.Decimal.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, "Ada", got.WorkerName)
	assert.Equal(t, "open", got.Notes)
	assert.Equal(t, "2024-06-01T08:00:00", roster.FormatTimestamp(got.StartTime))

	err = gw.UpdateShift(ctx, "missing", roster.TierStampPatch(stamped))
	assert.ErrorIs(t, err, roster.ErrShiftNotFound)
}

func testShiftMove(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()

	// GIVEN: A shift with a cached 8h duration
	sh := roster.Shift{WorkerID: "w1", StartTime: ts("2024-06-01T08:00:00"), EndTime: ts("2024-06-01T16:00:00")}
	id, err := gw.CreateShift(ctx, sh.WithCachedDuration())
	require.NoError(t, err)

	// WHEN: Moved to a 3h slot on the next day without touching the cache
	start, end := ts("2024-06-02T09:00:00"), ts("2024-06-02T12:00:00")
	require.NoError(t, gw.UpdateShift(ctx, id, roster.ShiftPatch{StartTime: &start, EndTime: &end}))

	// THEN: The stored cache and date follow the new times
	got, err := gw.GetShift(ctx, id)
	require.NoError(t, err)
	require.True(t, got.DurationInHours.Valid)
	assert.True(t, got.DurationInHours.Decimal.Equal(decimal.NewFromInt(3)), got.DurationInHours.Decimal.String())
	assert.True(t, got.Hours().Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "2024-06-02", got.Date.String())
}

func testTimestampPrecision(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()

	// GIVEN: Times with sub-second parts
	start := time.Date(2024, 6, 1, 8, 0, 0, 400_000_000, time.UTC)
	end := time.Date(2024, 6, 1, 9, 0, 0, 900_000_000, time.UTC)
	id, err := gw.CreateShift(ctx, roster.Shift{WorkerID: "w1", StartTime: start, EndTime: end})
	require.NoError(t, err)

	// THEN: Every backend returns whole seconds
	got, err := gw.GetShift(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(ts("2024-06-01T08:00:00")), got.StartTime.String())
	assert.True(t, got.EndTime.Equal(ts("2024-06-01T09:00:00")), got.EndTime.String())

	// Same for times written by a patch
	moved := time.Date(2024, 6, 1, 10, 0, 0, 600_000_000, time.UTC)
	require.NoError(t, gw.UpdateShift(ctx, id, roster.ShiftPatch{EndTime: &moved}))
	got, err = gw.GetShift(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.EndTime.Equal(ts("2024-06-01T10:00:00")), got.EndTime.String())
	assert.True(t, got.DurationInHours.Decimal.Equal(decimal.NewFromInt(2)))
}

func testDeleteIdempotent(t *testing.T, gw roster.Gateway) {
	ctx := context.Background()

	id, err := gw.CreateShift(ctx, roster.Shift{WorkerID: "w1", StartTime: ts("2024-06-01T08:00:00"), EndTime: ts("2024-06-01T09:00:00")})
	require.NoError(t, err)

	require.NoError(t, gw.DeleteShift(ctx, id))
	require.NoError(t, gw.DeleteShift(ctx, id))
	require.NoError(t, gw.DeleteWorker(ctx, "never-existed"))
	require.NoError(t, gw.DeleteTier(ctx, "never-existed"))

	_, err = gw.GetShift(ctx, id)
	assert.True(t, roster.IsNotFound(err))
}
