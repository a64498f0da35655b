/*
Package staffing implements the multi-record write operations.

PURPOSE:
  - ScheduleShifts: expand a (possibly multi-day) request into one shift per
    day and create each one
  - ReassignWorkerTier: move a worker to another tier and re-stamp every one
    of the worker's shifts, past and future
  - ResyncShiftSnapshots: copy a worker's current name and position onto all
    of the worker's shifts

FAN-OUT:
  The store has no multi-record transactions. Each operation issues its
  writes concurrently (bounded by Config.Concurrency), waits for every write
  to settle, then reports. Writes run detached from the caller's
  cancellation: once issued, a batch runs to completion. Failed writes are
  returned in a *BatchError; successful ones stay committed.

RETROACTIVE REASSIGNMENT:
  Shifts snapshot their tier so that later rate edits leave history alone.
  Reassigning a worker deliberately overrides that and rewrites the cost
  attribution of all of the worker's shifts, including past ones.
*/
package staffing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/warp/crew-scheduler/metrics"
	"github.com/warp/crew-scheduler/roster"
)

const DefaultConcurrency = 8

type Config struct {
	// Concurrency bounds in-flight writes per operation. Zero means DefaultConcurrency.
	Concurrency int
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

type Service struct {
	store       roster.Gateway
	concurrency int
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

func NewService(store roster.Gateway, cfg Config) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Service{
		store:       store,
		concurrency: cfg.Concurrency,
		log:         cfg.Logger.With().Str("component", "staffing").Logger(),
		metrics:     cfg.Metrics,
	}
}

// BatchResult lists the records written by an operation. On partial failure
// it is returned together with a *BatchError and holds the successful writes.
type BatchResult struct {
	ShiftIDs []roster.ShiftID
}

// =============================================================================
// SCHEDULING
// =============================================================================

// ScheduleShifts creates one shift per requested day. Validation happens
// before any write; a failing day does not undo the others.
func (s *Service) ScheduleShifts(ctx context.Context, req ShiftRequest) (BatchResult, error) {
	if err := req.Validate(); err != nil {
		return BatchResult{}, err
	}
	worker, err := s.store.GetWorker(ctx, req.WorkerID)
	if err != nil {
		return BatchResult{}, err
	}
	tiers, err := s.workerTier(ctx, worker)
	if err != nil {
		return BatchResult{}, err
	}
	shifts, err := Expand(req, worker, tiers)
	if err != nil {
		return BatchResult{}, err
	}

	ids := make([]roster.ShiftID, len(shifts))
	batchErr := s.fanOut(ctx, "schedule", len(shifts),
		func(i int) string { return shifts[i].Date.String() },
		func(ctx context.Context, i int) error {
			id, err := s.store.CreateShift(ctx, shifts[i])
			ids[i] = id
			return err
		})

	result := BatchResult{ShiftIDs: compact(ids)}
	event := s.log.Info()
	if batchErr != nil {
		event = s.log.Warn().Err(batchErr)
	}
	event.Str("worker_id", string(worker.ID)).
		Int("requested", len(shifts)).
		Int("created", len(result.ShiftIDs)).
		Msg("shifts scheduled")

	if batchErr != nil {
		return result, batchErr
	}
	return result, nil
}

// workerTier looks up the worker's current tier. A dangling tier is not an
// error here: the shifts are created without a rate snapshot.
func (s *Service) workerTier(ctx context.Context, w roster.Worker) (roster.TierIndex, error) {
	if w.TierID.IsZero() {
		return roster.TierIndex{}, nil
	}
	t, err := s.store.GetTier(ctx, w.TierID)
	if err != nil {
		if roster.IsNotFound(err) {
			return roster.TierIndex{}, nil
		}
		return nil, err
	}
	return roster.NewTierIndex([]roster.Tier{t}), nil
}

// =============================================================================
// TIER REASSIGNMENT
// =============================================================================

// ReassignWorkerTier sets the worker's tier and re-stamps every one of the
// worker's shifts with the tier's id, color and current rate, caching each
// shift's duration when missing.
func (s *Service) ReassignWorkerTier(ctx context.Context, workerID roster.WorkerID, tierID roster.TierID) (BatchResult, error) {
	if tierID.IsZero() {
		return BatchResult{}, fmt.Errorf("%w: tier is required", roster.ErrValidation)
	}
	tier, err := s.store.GetTier(ctx, tierID)
	if err != nil {
		return BatchResult{}, err
	}
	if _, err := s.store.GetWorker(ctx, workerID); err != nil {
		return BatchResult{}, err
	}

	legacy := string(tier.ID)
	if err := s.store.UpdateWorker(ctx, workerID, roster.WorkerPatch{TierID: &tier.ID, Tier: &legacy}); err != nil {
		return BatchResult{}, fmt.Errorf("update worker tier: %w", err)
	}

	shifts, err := s.store.ListShifts(ctx, roster.ForWorker(workerID))
	if err != nil {
		return BatchResult{}, fmt.Errorf("list worker shifts: %w", err)
	}

	updated := make([]roster.ShiftID, len(shifts))
	batchErr := s.fanOut(ctx, "reassign", len(shifts),
		func(i int) string { return string(shifts[i].ID) },
		func(ctx context.Context, i int) error {
			stamped := shifts[i].WithCachedDuration().StampTier(tier)
			if err := s.store.UpdateShift(ctx, stamped.ID, roster.TierStampPatch(stamped)); err != nil {
				return err
			}
			updated[i] = stamped.ID
			return nil
		})

	result := BatchResult{ShiftIDs: compact(updated)}
	event := s.log.Info()
	if batchErr != nil {
		event = s.log.Warn().Err(batchErr)
	}
	event.Str("worker_id", string(workerID)).
		Str("tier_id", string(tier.ID)).
		Int("shifts", len(shifts)).
		Int("restamped", len(result.ShiftIDs)).
		Msg("worker tier reassigned")

	if batchErr != nil {
		return result, batchErr
	}
	return result, nil
}

// =============================================================================
// SNAPSHOT RE-SYNC
// =============================================================================

// ResyncShiftSnapshots copies the worker's current name and position onto
// every one of the worker's shifts. Tier snapshots are left alone.
func (s *Service) ResyncShiftSnapshots(ctx context.Context, workerID roster.WorkerID) (BatchResult, error) {
	worker, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		return BatchResult{}, err
	}
	shifts, err := s.store.ListShifts(ctx, roster.ForWorker(workerID))
	if err != nil {
		return BatchResult{}, fmt.Errorf("list worker shifts: %w", err)
	}

	updated := make([]roster.ShiftID, len(shifts))
	batchErr := s.fanOut(ctx, "resync", len(shifts),
		func(i int) string { return string(shifts[i].ID) },
		func(ctx context.Context, i int) error {
			patch := roster.ShiftPatch{WorkerName: &worker.Name, Position: &worker.Position}
			if err := s.store.UpdateShift(ctx, shifts[i].ID, patch); err != nil {
				return err
			}
			updated[i] = shifts[i].ID
			return nil
		})

	result := BatchResult{ShiftIDs: compact(updated)}
	s.log.Debug().Str("worker_id", string(workerID)).Int("shifts", len(result.ShiftIDs)).Msg("shift snapshots re-synced")
	if batchErr != nil {
		return result, batchErr
	}
	return result, nil
}

// =============================================================================
// FAN-OUT
// =============================================================================

// fanOut runs write(i) for i in [0, n), at most s.concurrency at a time, and
// waits for all of them. It never stops early.
func (s *Service) fanOut(ctx context.Context, op string, n int, key func(int) string, write func(context.Context, int) error) *BatchError {
	ctx = context.WithoutCancel(ctx)
	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			errs[i] = write(ctx, i)
			return nil
		})
	}
	g.Wait()

	var failed []ItemError
	for i, err := range errs {
		if err != nil {
			failed = append(failed, ItemError{Key: key(i), Err: err})
		}
	}
	s.metrics.ObserveBatch(op, n-len(failed), len(failed))
	if len(failed) == 0 {
		return nil
	}
	return &BatchError{Op: op, Attempted: n, Failed: failed}
}

func compact(ids []roster.ShiftID) []roster.ShiftID {
	out := make([]roster.ShiftID, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// IsPartial reports whether err is a partially applied batch.
func IsPartial(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}
