/*
Package estimate rolls shift records up into labor hours and labor cost.

PURPOSE:
  Given shifts, workers and tiers for a date range, compute one summary per
  calendar day and a period total broken down by tier. Both steps are pure;
  Load fetches the inputs from a gateway and runs them.

TIER RESOLUTION:
  roster.ResolveTier: the shift's own tier snapshot, else the worker's
  current tier. A shift that resolves to no tier is skipped silently and
  contributes nothing.

COST:
  cost = hours * rate, where hours is the cached duration when present and
  non-negative (otherwise end - start) and rate is the shift's rate snapshot
  when present (otherwise the tier's current rate). All arithmetic is exact
  decimal, so totals do not depend on summation order.

  Overlapping shifts are summed independently. No deduplication.

SEE ALSO:
  - roster/tiers.go: ResolveTier
  - export/: spreadsheet rendering of a Report
*/
package estimate

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/crew-scheduler/roster"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// TierAmount is hours and cost attributed to one tier.
type TierAmount struct {
	Hours decimal.Decimal
	Cost  decimal.Decimal
}

func (a TierAmount) add(hours, cost decimal.Decimal) TierAmount {
	return TierAmount{Hours: a.Hours.Add(hours), Cost: a.Cost.Add(cost)}
}

// DailySummary aggregates one calendar day. Tiers holds only tiers that had
// at least one resolved shift that day.
type DailySummary struct {
	Date       roster.Day
	TotalHours decimal.Decimal
	TotalCost  decimal.Decimal
	Tiers      map[roster.TierID]TierAmount
}

// TierTotal is one row of the period breakdown.
type TierTotal struct {
	TierID roster.TierID
	Name   string
	Color  string
	Hours  decimal.Decimal
	Cost   decimal.Decimal
}

// Totals aggregates a whole period.
type Totals struct {
	TotalHours decimal.Decimal
	TotalCost  decimal.Decimal
	Tiers      []TierTotal
}

// Report is what the estimates view renders.
type Report struct {
	Period roster.Period
	Days   []DailySummary
	Totals Totals
}

// =============================================================================
// AGGREGATION
// =============================================================================

// DailySummaries returns one summary per day of p, in order, including days
// with no shifts. Shifts starting outside p are ignored.
func DailySummaries(shifts []roster.Shift, workers []roster.Worker, tiers []roster.Tier, p roster.Period) []DailySummary {
	workerIdx := roster.NewWorkerIndex(workers)
	tierIdx := roster.NewTierIndex(tiers)

	days := p.Days()
	out := make([]DailySummary, len(days))
	pos := make(map[string]int, len(days))
	for i, d := range days {
		out[i] = DailySummary{
			Date:       d,
			TotalHours: decimal.Zero,
			TotalCost:  decimal.Zero,
			Tiers:      make(map[roster.TierID]TierAmount),
		}
		pos[d.String()] = i
	}

	for _, s := range shifts {
		i, ok := pos[roster.DayOf(s.StartTime).String()]
		if !ok {
			continue
		}
		tier, ok := roster.ResolveTier(s, workerIdx, tierIdx)
		if !ok {
			continue
		}
		hours := s.Hours()
		cost := hours.Mul(s.Rate(tier))

		day := &out[i]
		day.TotalHours = day.TotalHours.Add(hours)
		day.TotalCost = day.TotalCost.Add(cost)
		day.Tiers[tier.ID] = day.Tiers[tier.ID].add(hours, cost)
	}
	return out
}

// PeriodTotals sums daily summaries. Every tier in tiers gets a row, in the
// order given, even with zero activity. Contributions from tiers not in the
// list still count toward the grand totals.
func PeriodTotals(days []DailySummary, tiers []roster.Tier) Totals {
	totals := Totals{TotalHours: decimal.Zero, TotalCost: decimal.Zero}
	byTier := make(map[roster.TierID]TierAmount, len(tiers))

	for _, d := range days {
		totals.TotalHours = totals.TotalHours.Add(d.TotalHours)
		totals.TotalCost = totals.TotalCost.Add(d.TotalCost)
		for id, amt := range d.Tiers {
			byTier[id] = byTier[id].add(amt.Hours, amt.Cost)
		}
	}

	totals.Tiers = make([]TierTotal, 0, len(tiers))
	for _, t := range tiers {
		amt := byTier[t.ID]
		totals.Tiers = append(totals.Tiers, TierTotal{
			TierID: t.ID,
			Name:   t.Name,
			Color:  t.Color,
			Hours:  amt.Hours,
			Cost:   amt.Cost,
		})
	}
	return totals
}

// Build runs both steps over already-fetched records.
func Build(shifts []roster.Shift, workers []roster.Worker, tiers []roster.Tier, p roster.Period) Report {
	days := DailySummaries(shifts, workers, tiers, p)
	return Report{Period: p, Days: days, Totals: PeriodTotals(days, tiers)}
}

// =============================================================================
// LOADING
// =============================================================================

// Source is the read side of the gateway the estimate needs.
type Source interface {
	ListWorkers(ctx context.Context) ([]roster.Worker, error)
	ListTiers(ctx context.Context) ([]roster.Tier, error)
	ListShifts(ctx context.Context, q roster.ShiftQuery) ([]roster.Shift, error)
}

// Load fetches tiers, workers and the shifts starting within p, then builds
// the report. Store errors are returned as-is, wrapped with context.
func Load(ctx context.Context, src Source, p roster.Period) (Report, error) {
	tiers, err := src.ListTiers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load tiers: %w", err)
	}
	workers, err := src.ListWorkers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load workers: %w", err)
	}
	shifts, err := src.ListShifts(ctx, roster.InPeriod(p))
	if err != nil {
		return Report{}, fmt.Errorf("load shifts: %w", err)
	}
	return Build(shifts, workers, tiers, p), nil
}
