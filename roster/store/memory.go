// Package store provides Gateway implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/crew-scheduler/roster"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	workers map[roster.WorkerID]roster.Worker
	tiers   map[roster.TierID]roster.Tier
	shifts  map[roster.ShiftID]roster.Shift
	newID   func() string
}

var _ roster.Gateway = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		workers: make(map[roster.WorkerID]roster.Worker),
		tiers:   make(map[roster.TierID]roster.Tier),
		shifts:  make(map[roster.ShiftID]roster.Shift),
		newID:   uuid.NewString,
	}
}

// =============================================================================
// WORKERS
// =============================================================================

func (m *Memory) ListWorkers(_ context.Context) ([]roster.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]roster.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		result = append(result, copyWorker(w))
	}
	roster.SortWorkers(result)
	return result, nil
}

func (m *Memory) GetWorker(_ context.Context, id roster.WorkerID) (roster.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.workers[id]
	if !ok {
		return roster.Worker{}, fmt.Errorf("%w: %s", roster.ErrWorkerNotFound, id)
	}
	return copyWorker(w), nil
}

func (m *Memory) CreateWorker(_ context.Context, w roster.Worker) (roster.WorkerID, error) {
	if err := roster.ValidateWorker(w); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if w.ID == "" {
		w.ID = roster.WorkerID(m.newID())
	}
	m.workers[w.ID] = copyWorker(w)
	return w.ID, nil
}

func (m *Memory) UpdateWorker(_ context.Context, id roster.WorkerID, patch roster.WorkerPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workers[id]
	if !ok {
		return fmt.Errorf("%w: %s", roster.ErrWorkerNotFound, id)
	}
	m.workers[id] = copyWorker(patch.Apply(w))
	return nil
}

func (m *Memory) DeleteWorker(_ context.Context, id roster.WorkerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workers, id)
	return nil
}

// =============================================================================
// TIERS
// =============================================================================

func (m *Memory) ListTiers(_ context.Context) ([]roster.Tier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]roster.Tier, 0, len(m.tiers))
	for _, t := range m.tiers {
		result = append(result, t)
	}
	roster.SortTiers(result)
	return result, nil
}

func (m *Memory) GetTier(_ context.Context, id roster.TierID) (roster.Tier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tiers[id]
	if !ok {
		return roster.Tier{}, fmt.Errorf("%w: %s", roster.ErrTierNotFound, id)
	}
	return t, nil
}

func (m *Memory) CreateTier(_ context.Context, t roster.Tier) (roster.TierID, error) {
	if t.Color == "" {
		t.Color = roster.DefaultTierColor
	}
	if err := roster.ValidateTier(t); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = roster.TierID(m.newID())
	}
	m.tiers[t.ID] = t
	return t.ID, nil
}

func (m *Memory) UpdateTier(_ context.Context, id roster.TierID, patch roster.TierPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tiers[id]
	if !ok {
		return fmt.Errorf("%w: %s", roster.ErrTierNotFound, id)
	}
	updated := patch.Apply(t)
	if err := roster.ValidateTier(updated); err != nil {
		return err
	}
	m.tiers[id] = updated
	return nil
}

// DeleteTier does not cascade: workers and shifts keep the dangling id.
func (m *Memory) DeleteTier(_ context.Context, id roster.TierID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tiers, id)
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

func (m *Memory) ListShifts(_ context.Context, q roster.ShiftQuery) ([]roster.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []roster.Shift
	for _, s := range m.shifts {
		if q.Matches(s) {
			result = append(result, s)
		}
	}
	roster.SortShifts(result)
	return result, nil
}

func (m *Memory) GetShift(_ context.Context, id roster.ShiftID) (roster.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shifts[id]
	if !ok {
		return roster.Shift{}, fmt.Errorf("%w: %s", roster.ErrShiftNotFound, id)
	}
	return s, nil
}

func (m *Memory) CreateShift(_ context.Context, s roster.Shift) (roster.ShiftID, error) {
	s.StartTime, s.EndTime = roster.Naive(s.StartTime), roster.Naive(s.EndTime)
	if err := roster.ValidateShift(s); err != nil {
		return "", err
	}
	s.Date = roster.DayOf(s.StartTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = roster.ShiftID(m.newID())
	}
	m.shifts[s.ID] = s
	return s.ID, nil
}

func (m *Memory) UpdateShift(_ context.Context, id roster.ShiftID, patch roster.ShiftPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return fmt.Errorf("%w: %s", roster.ErrShiftNotFound, id)
	}
	updated := patch.Apply(s)
	updated.StartTime, updated.EndTime = roster.Naive(updated.StartTime), roster.Naive(updated.EndTime)
	if err := roster.ValidateShift(updated); err != nil {
		return err
	}
	m.shifts[id] = updated
	return nil
}

func (m *Memory) DeleteShift(_ context.Context, id roster.ShiftID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shifts, id)
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// copyWorker detaches the availability map so callers cannot mutate stored state.
func copyWorker(w roster.Worker) roster.Worker {
	if w.Availability == nil {
		return w
	}
	avail := make(map[string][]roster.Availability, len(w.Availability))
	for day, windows := range w.Availability {
		avail[day] = append([]roster.Availability(nil), windows...)
	}
	w.Availability = avail
	return w
}

// Reset drops every record.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = make(map[roster.WorkerID]roster.Worker)
	m.tiers = make(map[roster.TierID]roster.Tier)
	m.shifts = make(map[roster.ShiftID]roster.Shift)
	return nil
}

func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
