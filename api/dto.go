/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO:      response types returned to clients
  - *Request:  request body types from clients
  - *Response: wrappers around several DTOs

VALIDATION:
  Request bodies carry go-playground/validator tags and are checked by
  Handler.decode before they reach the domain. Domain rules that need more
  than one field (end after start, 6-digit colors) are enforced again by
  the roster and staffing packages.

MONEY AND HOURS:
  Internally decimal.Decimal. On the wire they are JSON numbers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/crew-scheduler/estimate"
	"github.com/warp/crew-scheduler/roster"
	"github.com/warp/crew-scheduler/staffing"
)

// =============================================================================
// WORKERS
// =============================================================================

type WorkerDTO struct {
	ID           string                           `json:"id"`
	Name         string                           `json:"name"`
	Position     string                           `json:"position"`
	Email        string                           `json:"email,omitempty"`
	Phone        string                           `json:"phone,omitempty"`
	TierID       string                           `json:"tier_id,omitempty"`
	Tier         string                           `json:"tier,omitempty"`
	Availability map[string][]roster.Availability `json:"availability,omitempty"`
}

type CreateWorkerRequest struct {
	Name         string                           `json:"name" validate:"required"`
	Position     string                           `json:"position" validate:"required"`
	Email        string                           `json:"email" validate:"omitempty,email"`
	Phone        string                           `json:"phone"`
	TierID       string                           `json:"tier_id"`
	Availability map[string][]roster.Availability `json:"availability"`
}

// UpdateWorkerRequest changes the listed fields only. Tier changes go
// through PUT /api/workers/{id}/tier so that shifts are re-stamped.
type UpdateWorkerRequest struct {
	Name         *string                          `json:"name" validate:"omitnil,min=1"`
	Position     *string                          `json:"position" validate:"omitnil,min=1"`
	Email        *string                          `json:"email" validate:"omitempty,email"`
	Phone        *string                          `json:"phone"`
	Availability map[string][]roster.Availability `json:"availability"`
}

type ReassignTierRequest struct {
	TierID string `json:"tier_id" validate:"required"`
}

func toWorkerDTO(w roster.Worker) WorkerDTO {
	return WorkerDTO{
		ID:           string(w.ID),
		Name:         w.Name,
		Position:     w.Position,
		Email:        w.Email,
		Phone:        w.Phone,
		TierID:       string(w.TierID),
		Tier:         w.Tier,
		Availability: w.Availability,
	}
}

// =============================================================================
// TIERS
// =============================================================================

type TierDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourly_rate"`
	Color      string  `json:"color"`
}

type CreateTierRequest struct {
	Name       string  `json:"name" validate:"required"`
	HourlyRate float64 `json:"hourly_rate" validate:"gte=0"`
	Color      string  `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateTierRequest edits a tier. Existing shift snapshots keep their rate.
type UpdateTierRequest struct {
	Name       *string  `json:"name" validate:"omitnil,min=1"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitnil,gte=0"`
	Color      *string  `json:"color" validate:"omitnil,hexcolor"`
}

func toTierDTO(t roster.Tier) TierDTO {
	return TierDTO{
		ID:         string(t.ID),
		Name:       t.Name,
		HourlyRate: t.HourlyRate.InexactFloat64(),
		Color:      t.Color,
	}
}

// =============================================================================
// SHIFTS
// =============================================================================

type ShiftDTO struct {
	ID              string   `json:"id"`
	WorkerID        string   `json:"worker_id"`
	WorkerName      string   `json:"worker_name"`
	Position        string   `json:"position"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	WorkingHours    string   `json:"working_hours"`
	TierID          string   `json:"tier_id,omitempty"`
	TierColor       string   `json:"tier_color,omitempty"`
	HourlyRate      *float64 `json:"hourly_rate,omitempty"`
	DurationInHours *float64 `json:"duration_in_hours,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// ScheduleShiftRequest creates one shift per day from start_date to
// end_date inclusive. Times are HH:MM; dates are YYYY-MM-DD.
type ScheduleShiftRequest struct {
	WorkerID  string `json:"worker_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Notes     string `json:"notes"`
}

func (r ScheduleShiftRequest) toShiftRequest() (staffing.ShiftRequest, error) {
	req := staffing.ShiftRequest{WorkerID: roster.WorkerID(r.WorkerID), Notes: r.Notes}
	var err error
	if req.StartDate, err = roster.ParseDay(r.StartDate); err != nil {
		return req, err
	}
	if r.EndDate != "" {
		if req.EndDate, err = roster.ParseDay(r.EndDate); err != nil {
			return req, err
		}
	}
	if req.StartTime, err = roster.ParseTimeOfDay(r.StartTime); err != nil {
		return req, err
	}
	if req.EndTime, err = roster.ParseTimeOfDay(r.EndTime); err != nil {
		return req, err
	}
	return req, nil
}

// UpdateShiftRequest moves or annotates a single shift. Timestamps are
// YYYY-MM-DDTHH:MM:SS.
type UpdateShiftRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Notes     *string `json:"notes"`
}

func toShiftDTO(s roster.Shift) ShiftDTO {
	return ShiftDTO{
		ID:              string(s.ID),
		WorkerID:        string(s.WorkerID),
		WorkerName:      s.WorkerName,
		Position:        s.Position,
		Date:            s.Date.String(),
		StartTime:       roster.FormatTimestamp(s.StartTime),
		EndTime:         roster.FormatTimestamp(s.EndTime),
		WorkingHours:    roster.FormatWorkingHours(s.StartTime, s.EndTime),
		TierID:          string(s.TierID),
		TierColor:       s.TierColor,
		HourlyRate:      nullFloat(s.HourlyRate),
		DurationInHours: nullFloat(s.DurationInHours),
		Notes:           s.Notes,
	}
}

func toShiftDTOs(shifts []roster.Shift) []ShiftDTO {
	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	return dtos
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// =============================================================================
// CALENDAR
// =============================================================================

type CalendarDayDTO struct {
	Date   string     `json:"date"`
	Shifts []ShiftDTO `json:"shifts"`
}

type CalendarResponse struct {
	Start string           `json:"start"`
	End   string           `json:"end"`
	Days  []CalendarDayDTO `json:"days"`
}

// =============================================================================
// ESTIMATES
// =============================================================================

type TierAmountDTO struct {
	Hours float64 `json:"hours"`
	Cost  float64 `json:"cost"`
}

type DailySummaryDTO struct {
	Date       string                   `json:"date"`
	TotalHours float64                  `json:"total_hours"`
	TotalCost  float64                  `json:"total_cost"`
	Tiers      map[string]TierAmountDTO `json:"tiers"`
}

type TierTotalDTO struct {
	TierID string  `json:"tier_id"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Hours  float64 `json:"hours"`
	Cost   float64 `json:"cost"`
}

type TotalsDTO struct {
	TotalHours float64        `json:"total_hours"`
	TotalCost  float64        `json:"total_cost"`
	Tiers      []TierTotalDTO `json:"tiers"`
}

type EstimateResponse struct {
	Start  string            `json:"start"`
	End    string            `json:"end"`
	Days   []DailySummaryDTO `json:"days"`
	Totals TotalsDTO         `json:"totals"`
}

// ToEstimateResponse converts a report to its wire form.
func ToEstimateResponse(r estimate.Report) EstimateResponse {
	resp := EstimateResponse{
		Start: r.Period.Start.String(),
		End:   r.Period.End.String(),
		Days:  make([]DailySummaryDTO, len(r.Days)),
		Totals: TotalsDTO{
			TotalHours: r.Totals.TotalHours.InexactFloat64(),
			TotalCost:  r.Totals.TotalCost.InexactFloat64(),
			Tiers:      make([]TierTotalDTO, len(r.Totals.Tiers)),
		},
	}
	for i, d := range r.Days {
		tiers := make(map[string]TierAmountDTO, len(d.Tiers))
		for id, amt := range d.Tiers {
			tiers[string(id)] = TierAmountDTO{Hours: amt.Hours.InexactFloat64(), Cost: amt.Cost.InexactFloat64()}
		}
		resp.Days[i] = DailySummaryDTO{
			Date:       d.Date.String(),
			TotalHours: d.TotalHours.InexactFloat64(),
			TotalCost:  d.TotalCost.InexactFloat64(),
			Tiers:      tiers,
		}
	}
	for i, t := range r.Totals.Tiers {
		resp.Totals.Tiers[i] = TierTotalDTO{
			TierID: string(t.TierID),
			Name:   t.Name,
			Color:  t.Color,
			Hours:  t.Hours.InexactFloat64(),
			Cost:   t.Cost.InexactFloat64(),
		}
	}
	return resp
}

// =============================================================================
// BATCHES AND ERRORS
// =============================================================================

type ItemErrorDTO struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// BatchResponse is returned by multi-record writes. Failed is set only on
// partial failure (HTTP 207).
type BatchResponse struct {
	ShiftIDs []string       `json:"shift_ids"`
	Failed   []ItemErrorDTO `json:"failed,omitempty"`
}

func toBatchResponse(res staffing.BatchResult, be *staffing.BatchError) BatchResponse {
	resp := BatchResponse{ShiftIDs: make([]string, len(res.ShiftIDs))}
	for i, id := range res.ShiftIDs {
		resp.ShiftIDs[i] = string(id)
	}
	if be != nil {
		for _, f := range be.Failed {
			resp.Failed = append(resp.Failed, ItemErrorDTO{Key: f.Key, Error: f.Err.Error()})
		}
	}
	return resp
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
