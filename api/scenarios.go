/*
scenarios.go - Demo data loaders

PURPOSE:
  Pre-built scenarios that populate the store with tiers, workers and a
  month of shifts. Each one shows a specific costing behavior.

AVAILABLE SCENARIOS:
  small-team:    two tiers, three workers, a normal week
  rate-change:   a tier raise mid-month; earlier shifts keep the old rate
  orphaned-tier: a deleted tier and an untiered worker
  empty:         tiers only, no workers or shifts

HOW SCENARIOS WORK:
  1. Reset the store (clear all data)
  2. Create tiers
  3. Create workers
  4. Schedule shifts through the staffing service, in the anchor's month

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "small-team"}

NOTE:
  Scenarios reset the store. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/staffing"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "small-team",
		Name:        "Small Team",
		Description: "Senior and Junior tiers, three workers, one week of shifts",
	},
	{
		ID:          "rate-change",
		Name:        "Rate Change",
		Description: "Senior rate raised mid-month; earlier shifts keep their snapshot rate",
	},
	{
		ID:          "orphaned-tier",
		Name:        "Orphaned Tier",
		Description: "A deleted tier and an untiered worker; their shifts cost nothing",
	},
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "Tiers only",
	},
}

// Scenarios lists the available demo scenarios.
func Scenarios() []ScenarioDTO {
	out := make([]ScenarioDTO, len(scenarios))
	copy(out, scenarios)
	return out
}

// SeedScenario loads scenario id into gw, placing shifts in anchor's month.
// The store is not reset first.
func SeedScenario(ctx context.Context, gw roster.Gateway, svc *staffing.Service, id string, anchor roster.Day) error {
	month := roster.MonthPeriod(anchor.Time.Year(), anchor.Time.Month())
	s := &seeder{ctx: ctx, gw: gw, svc: svc, start: month.Start}

	switch id {
	case "small-team":
		s.smallTeam()
	case "rate-change":
		s.rateChange()
	case "orphaned-tier":
		s.orphanedTier()
	case "empty":
		s.standardTiers()
	default:
		return fmt.Errorf("%w: unknown scenario %q", roster.ErrValidation, id)
	}
	if s.err != nil {
		return fmt.Errorf("seed %s: %w", id, s.err)
	}
	return nil
}

// seeder keeps the first error and turns later calls into no-ops.
type seeder struct {
	ctx   context.Context
	gw    roster.Gateway
	svc   *staffing.Service
	start roster.Day
	err   error
}

func (s *seeder) tier(name string, rate int64, color string) roster.TierID {
	if s.err != nil {
		return ""
	}
	id, err := s.gw.CreateTier(s.ctx, roster.Tier{Name: name, HourlyRate: decimal.NewFromInt(rate), Color: color})
	s.err = err
	return id
}

func (s *seeder) worker(name, position string, tier roster.TierID) roster.WorkerID {
	if s.err != nil {
		return ""
	}
	id, err := s.gw.CreateWorker(s.ctx, roster.Worker{
		Name:     name,
		Position: position,
		Email:    fmt.Sprintf("%s@example.com", name),
		TierID:   tier,
		Tier:     string(tier),
	})
	s.err = err
	return id
}

// schedule books worker on days [from, to] (1-based offsets into the month).
func (s *seeder) schedule(worker roster.WorkerID, from, to int, start, end string) {
	if s.err != nil {
		return
	}
	st, err := roster.ParseTimeOfDay(start)
	if err != nil {
		s.err = err
		return
	}
	et, err := roster.ParseTimeOfDay(end)
	if err != nil {
		s.err = err
		return
	}
	_, s.err = s.svc.ScheduleShifts(s.ctx, staffing.ShiftRequest{
		WorkerID:  worker,
		StartDate: s.start.AddDays(from - 1),
		EndDate:   s.start.AddDays(to - 1),
		StartTime: st,
		EndTime:   et,
	})
}

func (s *seeder) standardTiers() (senior, junior roster.TierID) {
	return s.tier("Senior", 50, "#e74c3c"), s.tier("Junior", 25, "#2ecc71")
}

func (s *seeder) smallTeam() {
	senior, junior := s.standardTiers()
	alice := s.worker("alice", "Shift Lead", senior)
	bob := s.worker("bob", "Barista", junior)
	carol := s.worker("carol", "Cashier", junior)

	s.schedule(alice, 1, 5, "08:00", "16:00")
	s.schedule(bob, 1, 5, "12:00", "20:00")
	s.schedule(carol, 6, 7, "09:00", "13:30")
}

func (s *seeder) rateChange() {
	senior, _ := s.standardTiers()
	alice := s.worker("alice", "Shift Lead", senior)
	s.schedule(alice, 1, 10, "08:00", "16:00")

	if s.err != nil {
		return
	}
	raise := decimal.NewFromInt(60)
	if s.err = s.gw.UpdateTier(s.ctx, senior, roster.TierPatch{HourlyRate: &raise}); s.err != nil {
		return
	}
	s.schedule(alice, 11, 20, "08:00", "16:00")
}

func (s *seeder) orphanedTier() {
	s.standardTiers()
	temp := s.tier("Temp", 30, "#9b59b6")
	dana := s.worker("dana", "Runner", temp)
	erin := s.worker("erin", "Volunteer", "")

	s.schedule(dana, 1, 3, "10:00", "14:00")
	s.schedule(erin, 1, 3, "10:00", "14:00")

	if s.err != nil {
		return
	}
	s.err = s.gw.DeleteTier(s.ctx, temp)
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios())
}

// GetCurrentScenario returns the id of the last loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": current})
}

// LoadScenario resets the store and loads a scenario into the current month.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "Invalid scenario request", err)
		return
	}
	if err := h.ApplyScenario(r.Context(), req.ScenarioID); err != nil {
		h.fail(w, r, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": req.ScenarioID, "status": "loaded"})
}

// ApplyScenario resets the store and seeds scenario id into the current month.
func (h *Handler) ApplyScenario(ctx context.Context, id string) error {
	if !knownScenario(id) {
		return fmt.Errorf("%w: unknown scenario %q", roster.ErrValidation, id)
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.admin.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	if err := SeedScenario(ctx, h.store, h.staffing, id, h.today()); err != nil {
		return err
	}
	h.currentScenario = id
	h.log.Info().Str("scenario", id).Msg("scenario loaded")
	return nil
}

// ResetStore clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetStore(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.admin.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func knownScenario(id string) bool {
	for _, s := range scenarios {
		if s.ID == id {
			return true
		}
	}
	return false
}
