/*
handlers.go - HTTP API handlers for the crew scheduler

PURPOSE:
  Exposes the roster, staffing and estimate packages over REST. Handlers
  parse and validate the request, call the domain, and serialize the result.

ENDPOINTS:
  Workers:
    GET    /api/workers                 List workers
    POST   /api/workers                 Create worker
    GET    /api/workers/{id}            Get worker
    PUT    /api/workers/{id}            Update worker fields
    DELETE /api/workers/{id}            Delete worker
    PUT    /api/workers/{id}/tier       Reassign tier, re-stamping all shifts
    GET    /api/workers/{id}/shifts     The worker's schedule
    POST   /api/workers/{id}/resync     Copy name/position onto shifts

  Tiers:
    GET/POST       /api/tiers
    GET/PUT/DELETE /api/tiers/{id}

  Shifts:
    GET    /api/shifts?from=&to=&worker_id=
    POST   /api/shifts                  Schedule one or more days
    PUT    /api/shifts/{id}
    DELETE /api/shifts/{id}
    GET    /api/shifts/today

  Reporting:
    GET    /api/calendar?month=YYYY-MM
    GET    /api/estimates?month=YYYY-MM | ?from=&to=
    GET    /api/estimates/export?month=&format=xlsx|csv
    Periods longer than MAX_PERIOD_DAYS (default 366) are rejected with 400.

ERROR HANDLING:
  - 400: validation errors, invalid input
  - 404: record not found
  - 207: multi-record write partially applied; body lists failed items
  - 500: store errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/crew-scheduler/estimate"
	"github.com/warp/crew-scheduler/export"
	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/staffing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Admin is the maintenance surface of the backing store.
type Admin interface {
	Ping(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store    roster.Gateway
	admin    Admin
	staffing *staffing.Service
	log      zerolog.Logger
	validate *validator.Validate

	// now is the clock used for "today" and default periods.
	now func() time.Time

	// maxPeriodDays bounds the ranges the reporting endpoints accept.
	maxPeriodDays int

	mu              sync.Mutex
	currentScenario string
}

// DefaultMaxPeriodDays is the longest reporting period accepted unless
// SetMaxPeriodDays says otherwise.
const DefaultMaxPeriodDays = 366

// NewHandler wires the handlers. store is the (possibly instrumented)
// gateway; admin is the raw backend used for health checks and resets.
func NewHandler(store roster.Gateway, admin Admin, svc *staffing.Service, log zerolog.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Handler{
		store:    store,
		admin:    admin,
		staffing: svc,
		log:      log.With().Str("component", "api").Logger(),
		validate: v,
		now:      time.Now,

		maxPeriodDays: DefaultMaxPeriodDays,
	}
}

// SetMaxPeriodDays changes the reporting period limit. Values below one are ignored.
func (h *Handler) SetMaxPeriodDays(days int) {
	if days >= 1 {
		h.maxPeriodDays = days
	}
}

func (h *Handler) today() roster.Day { return roster.DayOf(h.now()) }

// =============================================================================
// HEALTH
// =============================================================================

// Health pings the store.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns all workers ordered by name.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.store.ListWorkers(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list workers", err)
		return
	}
	dtos := make([]WorkerDTO, len(workers))
	for i, wk := range workers {
		dtos[i] = toWorkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWorker creates a worker. A tier_id, when given, must exist.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "Invalid worker", err)
		return
	}

	worker := roster.Worker{
		Name:         req.Name,
		Position:     req.Position,
		Email:        req.Email,
		Phone:        req.Phone,
		TierID:       roster.TierID(req.TierID),
		Tier:         req.TierID,
		Availability: req.Availability,
	}
	if !worker.TierID.IsZero() {
		if _, err := h.store.GetTier(r.Context(), worker.TierID); err != nil {
			h.fail(w, r, "Unknown tier", err)
			return
		}
	}

	id, err := h.store.CreateWorker(r.Context(), worker)
	if err != nil {
		h.fail(w, r, "Failed to create worker", err)
		return
	}
	worker.ID = id
	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

// GetWorker returns one worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.store.GetWorker(r.Context(), roster.WorkerID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Worker not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(worker))
}

// UpdateWorker overwrites the given fields. Shift snapshots are not touched;
// use ResyncWorker for that.
func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	var req UpdateWorkerRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "Invalid worker", err)
		return
	}
	id := roster.WorkerID(chi.URLParam(r, "id"))
	patch := roster.WorkerPatch{
		Name:         req.Name,
		Position:     req.Position,
		Email:        req.Email,
		Phone:        req.Phone,
		Availability: req.Availability,
	}
	if err := h.store.UpdateWorker(r.Context(), id, patch); err != nil {
		h.fail(w, r, "Failed to update worker", err)
		return
	}
	h.GetWorker(w, r)
}

// DeleteWorker removes the worker. Its shifts are kept.
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteWorker(r.Context(), roster.WorkerID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReassignTier moves the worker to another tier and re-stamps every shift.
// PUT /api/workers/{id}/tier
func (h *Handler) ReassignTier(w http.ResponseWriter, r *http.Request) {
	var req ReassignTierRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "Invalid tier assignment", err)
		return
	}
	res, err := h.staffing.ReassignWorkerTier(r.Context(),
		roster.WorkerID(chi.URLParam(r, "id")), roster.TierID(req.TierID))
	h.writeBatch(w, r, http.StatusOK, "Failed to reassign tier", res, err)
}

// ResyncWorker copies the worker's current name and position onto its shifts.
// POST /api/workers/{id}/resync
func (h *Handler) ResyncWorker(w http.ResponseWriter, r *http.Request) {
	res, err := h.staffing.ResyncShiftSnapshots(r.Context(), roster.WorkerID(chi.URLParam(r, "id")))
	h.writeBatch(w, r, http.StatusOK, "Failed to re-sync shifts", res, err)
}

// WorkerShifts returns the worker's shifts, optionally bounded by from/to.
// GET /api/workers/{id}/shifts
func (h *Handler) WorkerShifts(w http.ResponseWriter, r *http.Request) {
	id := roster.WorkerID(chi.URLParam(r, "id"))
	if _, err := h.store.GetWorker(r.Context(), id); err != nil {
		h.fail(w, r, "Worker not found", err)
		return
	}
	q, err := shiftQuery(r)
	if err != nil {
		h.fail(w, r, "Invalid query", err)
		return
	}
	q.WorkerID = id
	h.writeShifts(w, r, q)
}

// =============================================================================
// TIER HANDLERS
// =============================================================================

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.store.ListTiers(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list tiers", err)
		return
	}
	dtos := make([]TierDTO, len(tiers))
	for i, t := range tiers {
		dtos[i] = toTierDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	var req CreateTierRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "Invalid tier", err)
		return
	}
	tier := roster.Tier{
		Name:       req.Name,
		HourlyRate: decimal.NewFromFloat(req.HourlyRate),
		Color:      req.Color,
	}
	id, err := h.store.CreateTier(r.Context(), tier)
	if err != nil {
		h.fail(w, r, "Failed to create tier", err)
		return
	}
	created, err := h.store.GetTier(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to read tier", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTierDTO(created))
}

func (h *Handler) GetTier(w http.ResponseWriter, r *http.Request) {
	tier, err := h.store.GetTier(r.Context(), roster.TierID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Tier not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toTierDTO(tier))
}

// UpdateTier edits the tier. Shifts keep the rate they were stamped with.
func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	var req UpdateTierRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "Invalid tier", err)
		return
	}
	patch := roster.TierPatch{Name: req.Name, Color: req.Color}
	if req.HourlyRate != nil {
		rate := decimal.NewFromFloat(*req.HourlyRate)
		patch.HourlyRate = &rate
	}
	if err := h.store.UpdateTier(r.Context(), roster.TierID(chi.URLParam(r, "id")), patch); err != nil {
		h.fail(w, r, "Failed to update tier", err)
		return
	}
	h.GetTier(w, r)
}

// DeleteTier removes the tier without touching workers or shifts that
// reference it.
func (h *Handler) DeleteTier(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTier(r.Context(), roster.TierID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete tier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns shifts whose start falls within [from, to].
// GET /api/shifts?from=YYYY-MM-DD&to=YYYY-MM-DD&worker_id=
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	q, err := shiftQuery(r)
	if err != nil {
		h.fail(w, r, "Invalid query", err)
		return
	}
	q.WorkerID = roster.WorkerID(r.URL.Query().Get("worker_id"))
	h.writeShifts(w, r, q)
}

// TodayShifts returns today's shifts, optionally for one worker.
// GET /api/shifts/today
func (h *Handler) TodayShifts(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	q := roster.InPeriod(roster.Period{Start: today, End: today})
	q.WorkerID = roster.WorkerID(r.URL.Query().Get("worker_id"))
	h.writeShifts(w, r, q)
}

func (h *Handler) writeShifts(w http.ResponseWriter, r *http.Request, q roster.ShiftQuery) {
	shifts, err := h.store.ListShifts(r.Context(), q)
	if err != nil {
		h.fail(w, r, "Failed to list shifts", err)
		return
	}
	roster.SortShifts(shifts)
	writeJSON(w, http.StatusOK, toShiftDTOs(shifts))
}

// ScheduleShifts creates one shift per day of the requested range.
// POST /api/shifts
func (h *Handler) ScheduleShifts(w http.ResponseWriter, r *http.Request) {
	var body ScheduleShiftRequest
	if err := h.decode(r, &body); err != nil {
		h.fail(w, r, "Invalid shift request", err)
		return
	}
	req, err := body.toShiftRequest()
	if err != nil {
		h.fail(w, r, "Invalid shift request", err)
		return
	}
	res, err := h.staffing.ScheduleShifts(r.Context(), req)
	h.writeBatch(w, r, http.StatusCreated, "Failed to schedule shifts", res, err)
}

// UpdateShift moves or annotates a shift.
// PUT /api/shifts/{id}
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req UpdateShiftRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "Invalid shift", err)
		return
	}
	id := roster.ShiftID(chi.URLParam(r, "id"))
	current, err := h.store.GetShift(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Shift not found", err)
		return
	}

	patch := roster.ShiftPatch{Notes: req.Notes}
	if req.StartTime != nil {
		t, err := roster.ParseTimestamp(*req.StartTime)
		if err != nil {
			h.fail(w, r, "Invalid shift", err)
			return
		}
		patch.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := roster.ParseTimestamp(*req.EndTime)
		if err != nil {
			h.fail(w, r, "Invalid shift", err)
			return
		}
		patch.EndTime = &t
	}
	if err := roster.ValidateShift(patch.Apply(current)); err != nil {
		h.fail(w, r, "Invalid shift", err)
		return
	}

	if err := h.store.UpdateShift(r.Context(), id, patch); err != nil {
		h.fail(w, r, "Failed to update shift", err)
		return
	}
	updated, err := h.store.GetShift(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to read shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(updated))
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteShift(r.Context(), roster.ShiftID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeBatch reports a multi-record write. A *BatchError becomes a 207 with
// the committed ids and the failed items.
func (h *Handler) writeBatch(w http.ResponseWriter, r *http.Request, okStatus int, message string, res staffing.BatchResult, err error) {
	var be *staffing.BatchError
	switch {
	case err == nil:
		writeJSON(w, okStatus, toBatchResponse(res, nil))
	case errors.As(err, &be):
		writeJSON(w, http.StatusMultiStatus, toBatchResponse(res, be))
	default:
		h.fail(w, r, message, err)
	}
}

// =============================================================================
// CALENDAR AND ESTIMATES
// =============================================================================

// Calendar returns every day of the month with its shifts.
// GET /api/calendar?month=YYYY-MM
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	shifts, err := h.store.ListShifts(r.Context(), roster.InPeriod(p))
	if err != nil {
		h.fail(w, r, "Failed to list shifts", err)
		return
	}

	days := roster.GroupByDay(shifts, p)
	resp := CalendarResponse{Start: p.Start.String(), End: p.End.String(), Days: make([]CalendarDayDTO, len(days))}
	for i, d := range days {
		resp.Days[i] = CalendarDayDTO{Date: d.Date.String(), Shifts: toShiftDTOs(d.Shifts)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Estimate returns daily and period labor cost.
// GET /api/estimates?month=YYYY-MM or ?from=&to=
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	report, err := estimate.Load(r.Context(), h.store, p)
	if err != nil {
		h.fail(w, r, "Failed to compute estimate", err)
		return
	}
	writeJSON(w, http.StatusOK, ToEstimateResponse(report))
}

// ExportEstimate downloads the estimate as a spreadsheet.
// GET /api/estimates/export?month=YYYY-MM&format=xlsx|csv
func (h *Handler) ExportEstimate(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	write, contentType, err := export.Writer(format)
	if err != nil {
		h.fail(w, r, "Invalid format", err)
		return
	}

	report, err := estimate.Load(r.Context(), h.store, p)
	if err != nil {
		h.fail(w, r, "Failed to compute estimate", err)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, report); err != nil {
		h.fail(w, r, "Failed to render export", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="estimate_%s_%s.%s"`, p.Start, p.End, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// period reads ?month=YYYY-MM, or ?from=&to=, defaulting to the current month.
// Ranges longer than maxPeriodDays are rejected.
func (h *Handler) period(r *http.Request) (roster.Period, error) {
	p, err := h.parsePeriod(r)
	if err != nil {
		return p, err
	}
	if n := p.Len(); n > h.maxPeriodDays {
		return roster.Period{}, fmt.Errorf("%w: %d days requested, at most %d allowed", roster.ErrPeriodTooLong, n, h.maxPeriodDays)
	}
	return p, nil
}

func (h *Handler) parsePeriod(r *http.Request) (roster.Period, error) {
	q := r.URL.Query()
	if m := q.Get("month"); m != "" {
		return roster.ParseMonth(m)
	}
	from, to := q.Get("from"), q.Get("to")
	if from == "" && to == "" {
		today := h.today()
		return roster.MonthPeriod(today.Time.Year(), today.Time.Month()), nil
	}
	if from == "" || to == "" {
		return roster.Period{}, fmt.Errorf("%w: from and to must be given together", roster.ErrValidation)
	}
	start, err := roster.ParseDay(from)
	if err != nil {
		return roster.Period{}, err
	}
	end, err := roster.ParseDay(to)
	if err != nil {
		return roster.Period{}, err
	}
	return roster.NewPeriod(start, end)
}

// shiftQuery reads optional ?from= and ?to= days into an inclusive range.
func shiftQuery(r *http.Request) (roster.ShiftQuery, error) {
	var q roster.ShiftQuery
	if s := r.URL.Query().Get("from"); s != "" {
		d, err := roster.ParseDay(s)
		if err != nil {
			return q, err
		}
		from, _ := roster.Period{Start: d, End: d}.Bounds()
		q.From = &from
	}
	if s := r.URL.Query().Get("to"); s != "" {
		d, err := roster.ParseDay(s)
		if err != nil {
			return q, err
		}
		_, to := roster.Period{Start: d, End: d}.Bounds()
		q.To = &to
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return q, fmt.Errorf("%w: from after to", roster.ErrInvalidPeriod)
	}
	return q, nil
}
