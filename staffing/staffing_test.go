package staffing_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/estimate"
	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/roster/store"
	"github.com/warp/crew-scheduler/staffing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var errWriteFailed = errors.New("write failed")

// flakyStore fails creates on the given days and updates of the given shifts.
type flakyStore struct {
	*store.Memory
	failDays   map[string]bool
	failShifts map[roster.ShiftID]bool
	creates    atomic.Int32
}

func newFlaky() *flakyStore {
	return &flakyStore{Memory: store.NewMemory(), failDays: map[string]bool{}, failShifts: map[roster.ShiftID]bool{}}
}

func (f *flakyStore) CreateShift(ctx context.Context, s roster.Shift) (roster.ShiftID, error) {
	f.creates.Add(1)
	if f.failDays[roster.DayOf(s.StartTime).String()] {
		return "", errWriteFailed
	}
	return f.Memory.CreateShift(ctx, s)
}

func (f *flakyStore) UpdateShift(ctx context.Context, id roster.ShiftID, p roster.ShiftPatch) error {
	if f.failShifts[id] {
		return errWriteFailed
	}
	return f.Memory.UpdateShift(ctx, id, p)
}

func day(t *testing.T, s string) roster.Day {
	t.Helper()
	d, err := roster.ParseDay(s)
	require.NoError(t, err)
	return d
}

func tod(t *testing.T, s string) roster.TimeOfDay {
	t.Helper()
	v, err := roster.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

type fixture struct {
	gw     *flakyStore
	svc    *staffing.Service
	senior roster.Tier
	junior roster.Tier
	worker roster.Worker
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	gw := newFlaky()

	senior := roster.Tier{ID: "senior", Name: "Senior", HourlyRate: decimal.NewFromInt(50), Color: "#AA0000"}
	junior := roster.Tier{ID: "junior", Name: "Junior", HourlyRate: decimal.NewFromInt(25), Color: "#00AA00"}
	for _, tier := range []roster.Tier{senior, junior} {
		_, err := gw.CreateTier(ctx, tier)
		require.NoError(t, err)
	}
	worker := roster.Worker{ID: "w", Name: "W", Position: "Cook", TierID: senior.ID, Tier: string(senior.ID)}
	_, err := gw.CreateWorker(ctx, worker)
	require.NoError(t, err)

	svc := staffing.NewService(gw, staffing.Config{Concurrency: 2, Logger: zerolog.Nop()})
	return fixture{gw: gw, svc: svc, senior: senior, junior: junior, worker: worker}
}

// =============================================================================
// EXPANSION
// =============================================================================

func TestExpand_ThreeDaysFourHoursEach(t *testing.T) {
	// GIVEN: 2024-06-03 to 2024-06-05, 08:00-12:00 daily
	// WHEN: Expanded
	// THEN: Exactly 3 shifts, each 4 hours, stamped with the worker's tier

	worker := roster.Worker{ID: "w", Name: "W", Position: "Cook", TierID: "senior"}
	tiers := roster.NewTierIndex([]roster.Tier{{ID: "senior", HourlyRate: decimal.NewFromInt(50), Color: "#AA0000"}})
	req := staffing.ShiftRequest{
		WorkerID:  "w",
		StartDate: day(t, "2024-06-03"),
		EndDate:   day(t, "2024-06-05"),
		StartTime: tod(t, "08:00"),
		EndTime:   tod(t, "12:00"),
		Notes:     "prep",
	}

	shifts, err := staffing.Expand(req, worker, tiers)
	require.NoError(t, err)

	require.Len(t, shifts, 3)
	for i, s := range shifts {
		assert.Equal(t, day(t, "2024-06-03").AddDays(i).String(), s.Date.String())
		assert.True(t, s.Hours().Equal(decimal.NewFromInt(4)))
		assert.True(t, s.DurationInHours.Valid)
		assert.Equal(t, roster.TierID("senior"), s.TierID)
		assert.Equal(t, "#AA0000", s.TierColor)
		assert.True(t, s.HourlyRate.Decimal.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, "W", s.WorkerName)
		assert.Equal(t, "Cook", s.Position)
		assert.Equal(t, "prep", s.Notes)
		assert.Equal(t, 8, s.StartTime.Hour())
		assert.Equal(t, 12, s.EndTime.Hour())
	}
}

func TestExpand_SingleDayWhenNoEndDate(t *testing.T) {
	req := staffing.ShiftRequest{WorkerID: "w", StartDate: day(t, "2024-06-03"), StartTime: tod(t, "09:00"), EndTime: tod(t, "17:30")}

	shifts, err := staffing.Expand(req, roster.Worker{ID: "w"}, roster.TierIndex{})
	require.NoError(t, err)

	require.Len(t, shifts, 1)
	assert.True(t, shifts[0].Hours().Equal(decimal.RequireFromString("8.5")))
	assert.False(t, shifts[0].HourlyRate.Valid, "untiered worker has no rate snapshot")
}

func TestExpand_ValidationErrors(t *testing.T) {
	base := staffing.ShiftRequest{WorkerID: "w", StartDate: day(t, "2024-06-03"), StartTime: tod(t, "08:00"), EndTime: tod(t, "12:00")}

	cases := []struct {
		name   string
		mutate func(r *staffing.ShiftRequest)
		want   error
	}{
		{"end date before start", func(r *staffing.ShiftRequest) { r.EndDate = day(t, "2024-06-01") }, staffing.ErrInvalidRange},
		{"equal times", func(r *staffing.ShiftRequest) { r.EndTime = r.StartTime }, staffing.ErrInvalidTimeRange},
		{"end before start time", func(r *staffing.ShiftRequest) { r.EndTime = tod(t, "07:00") }, staffing.ErrInvalidTimeRange},
		{"under an hour", func(r *staffing.ShiftRequest) { r.EndTime = tod(t, "08:59") }, staffing.ErrDurationOutOfBounds},
		{"missing worker", func(r *staffing.ShiftRequest) { r.WorkerID = "" }, roster.ErrValidation},
		{"missing date", func(r *staffing.ShiftRequest) { r.StartDate = roster.Day{} }, roster.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			shifts, err := staffing.Expand(req, roster.Worker{ID: "w"}, roster.TierIndex{})
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, roster.IsClientError(err))
			assert.Empty(t, shifts)
		})
	}
}

func TestExpand_ExactlyOneHourIsAllowed(t *testing.T) {
	req := staffing.ShiftRequest{WorkerID: "w", StartDate: day(t, "2024-06-03"), StartTime: tod(t, "08:00"), EndTime: tod(t, "09:00")}
	shifts, err := staffing.Expand(req, roster.Worker{ID: "w"}, roster.TierIndex{})
	require.NoError(t, err)
	assert.Len(t, shifts, 1)
}

// =============================================================================
// SCHEDULING
// =============================================================================

func TestScheduleShifts_CreatesOnePerDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.ScheduleShifts(ctx, staffing.ShiftRequest{
		WorkerID:  f.worker.ID,
		StartDate: day(t, "2024-06-03"),
		EndDate:   day(t, "2024-06-05"),
		StartTime: tod(t, "08:00"),
		EndTime:   tod(t, "12:00"),
	})
	require.NoError(t, err)
	assert.Len(t, res.ShiftIDs, 3)

	stored, err := f.gw.ListShifts(ctx, roster.ForWorker(f.worker.ID))
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, s := range stored {
		assert.Equal(t, f.senior.ID, s.TierID)
		assert.True(t, s.Hours().Equal(decimal.NewFromInt(4)))
	}
}

func TestScheduleShifts_InvalidRangeWritesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.ScheduleShifts(ctx, staffing.ShiftRequest{
		WorkerID:  f.worker.ID,
		StartDate: day(t, "2024-06-05"),
		EndDate:   day(t, "2024-06-03"),
		StartTime: tod(t, "08:00"),
		EndTime:   tod(t, "12:00"),
	})
	assert.ErrorIs(t, err, staffing.ErrInvalidRange)
	assert.Zero(t, f.gw.creates.Load())

	stored, err := f.gw.ListShifts(ctx, roster.ShiftQuery{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestScheduleShifts_UnknownWorker(t *testing.T) {
	f := setup(t)

	_, err := f.svc.ScheduleShifts(context.Background(), staffing.ShiftRequest{
		WorkerID:  "ghost",
		StartDate: day(t, "2024-06-03"),
		StartTime: tod(t, "08:00"),
		EndTime:   tod(t, "12:00"),
	})
	assert.ErrorIs(t, err, roster.ErrWorkerNotFound)
	assert.Zero(t, f.gw.creates.Load())
}

func TestScheduleShifts_PartialFailureKeepsOtherDays(t *testing.T) {
	// GIVEN: Day 3 of 5 fails to write
	f := setup(t)
	f.gw.failDays["2024-06-05"] = true
	ctx := context.Background()

	// WHEN: Scheduling 06-03..06-07
	res, err := f.svc.ScheduleShifts(ctx, staffing.ShiftRequest{
		WorkerID:  f.worker.ID,
		StartDate: day(t, "2024-06-03"),
		EndDate:   day(t, "2024-06-07"),
		StartTime: tod(t, "08:00"),
		EndTime:   tod(t, "12:00"),
	})

	// THEN: The failure is reported, every day was attempted, and the other four are committed
	require.Error(t, err)
	var batch *staffing.BatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, 5, batch.Attempted)
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, "2024-06-05", batch.Failed[0].Key)
	assert.ErrorIs(t, err, errWriteFailed)
	assert.True(t, staffing.IsPartial(err))
	assert.Equal(t, int32(5), f.gw.creates.Load())

	assert.Len(t, res.ShiftIDs, 4)
	stored, err := f.gw.ListShifts(ctx, roster.ForWorker(f.worker.ID))
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

// =============================================================================
// TIER REASSIGNMENT
// =============================================================================

func TestReassignWorkerTier_RestampsExistingShifts(t *testing.T) {
	// GIVEN: W on Senior ($50) with one 8-hour shift
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.ScheduleShifts(ctx, staffing.ShiftRequest{
		WorkerID: f.worker.ID, StartDate: day(t, "2024-06-01"), StartTime: tod(t, "08:00"), EndTime: tod(t, "16:00"),
	})
	require.NoError(t, err)

	june, err := roster.ParseMonth("2024-06")
	require.NoError(t, err)
	before, err := estimate.Load(ctx, f.gw, june)
	require.NoError(t, err)
	assert.True(t, before.Days[0].Tiers[f.senior.ID].Cost.Equal(decimal.NewFromInt(400)))

	// WHEN: Reassigned to Junior ($25)
	res, err := f.svc.ReassignWorkerTier(ctx, f.worker.ID, f.junior.ID)
	require.NoError(t, err)
	assert.Len(t, res.ShiftIDs, 1)

	// THEN: The worker and the historical shift move to Junior
	w, err := f.gw.GetWorker(ctx, f.worker.ID)
	require.NoError(t, err)
	assert.Equal(t, f.junior.ID, w.TierID)
	assert.Equal(t, string(f.junior.ID), w.Tier)

	after, err := estimate.Load(ctx, f.gw, june)
	require.NoError(t, err)
	day1 := after.Days[0]
	assert.True(t, day1.Tiers[f.junior.ID].Hours.Equal(decimal.NewFromInt(8)))
	assert.True(t, day1.Tiers[f.junior.ID].Cost.Equal(decimal.NewFromInt(200)))
	_, stillSenior := day1.Tiers[f.senior.ID]
	assert.False(t, stillSenior)

	for _, tt := range after.Totals.Tiers {
		if tt.TierID == f.senior.ID {
			assert.True(t, tt.Hours.IsZero())
		}
	}
}

func TestReassignWorkerTier_CachesMissingDuration(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	start, _ := roster.ParseTimestamp("2023-01-10T08:00:00")
	end, _ := roster.ParseTimestamp("2023-01-10T11:00:00")
	id, err := f.gw.CreateShift(ctx, roster.Shift{WorkerID: f.worker.ID, StartTime: start, EndTime: end})
	require.NoError(t, err)

	_, err = f.svc.ReassignWorkerTier(ctx, f.worker.ID, f.junior.ID)
	require.NoError(t, err)

	got, err := f.gw.GetShift(ctx, id)
	require.NoError(t, err)
	require.True(t, got.DurationInHours.Valid)
	assert.True(t, got.DurationInHours.Decimal.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "#00AA00", got.TierColor)
	assert.True(t, got.HourlyRate.Decimal.Equal(decimal.NewFromInt(25)))
}

func TestReassignWorkerTier_UnknownTierChangesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.ReassignWorkerTier(ctx, f.worker.ID, "platinum")
	assert.ErrorIs(t, err, roster.ErrTierNotFound)

	w, err := f.gw.GetWorker(ctx, f.worker.ID)
	require.NoError(t, err)
	assert.Equal(t, f.senior.ID, w.TierID)

	_, err = f.svc.ReassignWorkerTier(ctx, "ghost", f.junior.ID)
	assert.ErrorIs(t, err, roster.ErrWorkerNotFound)
}

func TestReassignWorkerTier_ReportsPartialFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.ScheduleShifts(ctx, staffing.ShiftRequest{
		WorkerID: f.worker.ID, StartDate: day(t, "2024-06-01"), EndDate: day(t, "2024-06-04"),
		StartTime: tod(t, "08:00"), EndTime: tod(t, "12:00"),
	})
	require.NoError(t, err)
	require.Len(t, res.ShiftIDs, 4)
	f.gw.failShifts[res.ShiftIDs[1]] = true

	out, err := f.svc.ReassignWorkerTier(ctx, f.worker.ID, f.junior.ID)

	var batch *staffing.BatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, 4, batch.Attempted)
	assert.Equal(t, 3, batch.Succeeded())
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, string(res.ShiftIDs[1]), batch.Failed[0].Key)
	assert.Len(t, out.ShiftIDs, 3)

	// The failed shift keeps its old stamp, the rest moved
	stored, err := f.gw.ListShifts(ctx, roster.ForWorker(f.worker.ID))
	require.NoError(t, err)
	for _, s := range stored {
		if s.ID == res.ShiftIDs[1] {
			assert.Equal(t, f.senior.ID, s.TierID)
		} else {
			assert.Equal(t, f.junior.ID, s.TierID)
		}
	}
}

// =============================================================================
// SNAPSHOT RE-SYNC
// =============================================================================

func TestResyncShiftSnapshots(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.ScheduleShifts(ctx, staffing.ShiftRequest{
		WorkerID: f.worker.ID, StartDate: day(t, "2024-06-01"), EndDate: day(t, "2024-06-02"),
		StartTime: tod(t, "08:00"), EndTime: tod(t, "12:00"),
	})
	require.NoError(t, err)

	// Renaming the worker does not touch existing shifts
	name, pos := "Wanda", "Head Cook"
	require.NoError(t, f.gw.UpdateWorker(ctx, f.worker.ID, roster.WorkerPatch{Name: &name, Position: &pos}))
	stored, err := f.gw.ListShifts(ctx, roster.ForWorker(f.worker.ID))
	require.NoError(t, err)
	assert.Equal(t, "W", stored[0].WorkerName)

	// Until re-synced explicitly
	res, err := f.svc.ResyncShiftSnapshots(ctx, f.worker.ID)
	require.NoError(t, err)
	assert.Len(t, res.ShiftIDs, 2)

	stored, err = f.gw.ListShifts(ctx, roster.ForWorker(f.worker.ID))
	require.NoError(t, err)
	for _, s := range stored {
		assert.Equal(t, "Wanda", s.WorkerName)
		assert.Equal(t, "Head Cook", s.Position)
		assert.Equal(t, f.senior.ID, s.TierID)
	}
}

func TestBatchError_Message(t *testing.T) {
	err := &staffing.BatchError{Op: "schedule", Attempted: 3, Failed: []staffing.ItemError{{Key: "2024-06-05", Err: errWriteFailed}}}
	assert.Equal(t, "schedule: 1 of 3 writes failed: 2024-06-05: write failed", err.Error())
	assert.Equal(t, 2, err.Succeeded())
}
