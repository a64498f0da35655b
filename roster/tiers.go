package roster

import "github.com/shopspring/decimal"

// TierIndex looks tiers up by id. Lookups of the empty id or of a deleted
// tier both miss; callers treat a miss as "no tier".
type TierIndex map[TierID]Tier

func NewTierIndex(tiers []Tier) TierIndex {
	idx := make(TierIndex, len(tiers))
	for _, t := range tiers {
		idx[t.ID] = t
	}
	return idx
}

func (idx TierIndex) Lookup(id TierID) (Tier, bool) {
	if id.IsZero() {
		return Tier{}, false
	}
	t, ok := idx[id]
	return t, ok
}

// WorkerIndex looks workers up by id.
type WorkerIndex map[WorkerID]Worker

func NewWorkerIndex(workers []Worker) WorkerIndex {
	idx := make(WorkerIndex, len(workers))
	for _, w := range workers {
		idx[w.ID] = w
	}
	return idx
}

// =============================================================================
// TIER RESOLUTION
// =============================================================================

// ResolveTier picks the tier a shift is billed under.
//
// Precedence: the shift's own TierID snapshot when set, otherwise the
// assigned worker's current TierID. A set but dangling snapshot does not fall
// back to the worker; the shift resolves to no tier.
func ResolveTier(s Shift, workers WorkerIndex, tiers TierIndex) (Tier, bool) {
	if !s.TierID.IsZero() {
		return tiers.Lookup(s.TierID)
	}
	w, ok := workers[s.WorkerID]
	if !ok {
		return Tier{}, false
	}
	return tiers.Lookup(w.TierID)
}

// Rate returns the hourly rate a shift is billed at under t: the shift's rate
// snapshot when present, the tier's current rate otherwise.
func (s Shift) Rate(t Tier) decimal.Decimal {
	if s.HourlyRate.Valid {
		return s.HourlyRate.Decimal
	}
	return t.HourlyRate
}
