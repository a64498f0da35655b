// Package redisdoc stores roster collections as JSON documents in Redis hashes.
//
// Each collection is one hash ("<prefix>:workers", "<prefix>:tiers",
// "<prefix>:schedules") keyed by record id. Range queries load the hash and
// filter in process, like a document store without secondary indexes.
package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/warp/crew-scheduler/roster"
)

const DefaultPrefix = "crew"

type Store struct {
	redis  *redis.Client
	prefix string
}

var _ roster.Gateway = (*Store)(nil)

func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(client, prefix), nil
}

func (s *Store) Close() error {
	return s.redis.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// Reset drops every collection under the prefix.
func (s *Store) Reset(ctx context.Context) error {
	return s.redis.Del(ctx, s.key("workers"), s.key("tiers"), s.key("schedules")).Err()
}

func (s *Store) key(collection string) string {
	return s.prefix + ":" + collection
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type workerDoc struct {
	ID           string                           `json:"id"`
	Name         string                           `json:"name"`
	Position     string                           `json:"position"`
	Email        string                           `json:"email,omitempty"`
	Phone        string                           `json:"phone,omitempty"`
	TierID       string                           `json:"tierId,omitempty"`
	Tier         string                           `json:"tier,omitempty"`
	Availability map[string][]roster.Availability `json:"availability,omitempty"`
}

type tierDoc struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	Color      string          `json:"color"`
}

type shiftDoc struct {
	ID              string           `json:"id"`
	WorkerID        string           `json:"workerId"`
	WorkerName      string           `json:"workerName,omitempty"`
	Position        string           `json:"position,omitempty"`
	StartTime       string           `json:"startTime"`
	EndTime         string           `json:"endTime"`
	Date            string           `json:"date"`
	TierID          string           `json:"tierId,omitempty"`
	TierColor       string           `json:"tierColor,omitempty"`
	HourlyRate      *decimal.Decimal `json:"hourlyRate,omitempty"`
	DurationInHours *decimal.Decimal `json:"durationInHours,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

func toWorkerDoc(w roster.Worker) workerDoc {
	return workerDoc{
		ID: string(w.ID), Name: w.Name, Position: w.Position, Email: w.Email, Phone: w.Phone,
		TierID: string(w.TierID), Tier: w.Tier, Availability: w.Availability,
	}
}

func (d workerDoc) toWorker() roster.Worker {
	return roster.Worker{
		ID: roster.WorkerID(d.ID), Name: d.Name, Position: d.Position, Email: d.Email, Phone: d.Phone,
		TierID: roster.TierID(d.TierID), Tier: d.Tier, Availability: d.Availability,
	}
}

func toTierDoc(t roster.Tier) tierDoc {
	return tierDoc{ID: string(t.ID), Name: t.Name, HourlyRate: t.HourlyRate, Color: t.Color}
}

func (d tierDoc) toTier() roster.Tier {
	return roster.Tier{ID: roster.TierID(d.ID), Name: d.Name, HourlyRate: d.HourlyRate, Color: d.Color}
}

func toShiftDoc(s roster.Shift) shiftDoc {
	return shiftDoc{
		ID:              string(s.ID),
		WorkerID:        string(s.WorkerID),
		WorkerName:      s.WorkerName,
		Position:        s.Position,
		StartTime:       roster.FormatTimestamp(s.StartTime),
		EndTime:         roster.FormatTimestamp(s.EndTime),
		Date:            roster.DayOf(s.StartTime).String(),
		TierID:          string(s.TierID),
		TierColor:       s.TierColor,
		HourlyRate:      decimalPtr(s.HourlyRate),
		DurationInHours: decimalPtr(s.DurationInHours),
		Notes:           s.Notes,
	}
}

func (d shiftDoc) toShift() (roster.Shift, error) {
	start, err := roster.ParseTimestamp(d.StartTime)
	if err != nil {
		return roster.Shift{}, fmt.Errorf("shift %s: %w", d.ID, err)
	}
	end, err := roster.ParseTimestamp(d.EndTime)
	if err != nil {
		return roster.Shift{}, fmt.Errorf("shift %s: %w", d.ID, err)
	}
	return roster.Shift{
		ID:              roster.ShiftID(d.ID),
		WorkerID:        roster.WorkerID(d.WorkerID),
		WorkerName:      d.WorkerName,
		Position:        d.Position,
		StartTime:       start,
		EndTime:         end,
		Date:            roster.DayOf(start),
		TierID:          roster.TierID(d.TierID),
		TierColor:       d.TierColor,
		HourlyRate:      nullDecimal(d.HourlyRate),
		DurationInHours: nullDecimal(d.DurationInHours),
		Notes:           d.Notes,
	}, nil
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// =============================================================================
// HASH ACCESS
// =============================================================================

func (s *Store) get(ctx context.Context, collection, id string, notFound error, v any) error {
	raw, err := s.redis.HGet(ctx, s.key(collection), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", notFound, id)
		}
		return fmt.Errorf("failed to get %s: %w", collection, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, collection, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	if err := s.redis.HSet(ctx, s.key(collection), id, raw).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", collection, err)
	}
	return nil
}

func (s *Store) all(ctx context.Context, collection string) ([]string, error) {
	values, err := s.redis.HVals(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return values, nil
}

func (s *Store) del(ctx context.Context, collection, id string) error {
	if err := s.redis.HDel(ctx, s.key(collection), id).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", collection, err)
	}
	return nil
}

// =============================================================================
// WORKERS
// =============================================================================

func (s *Store) ListWorkers(ctx context.Context) ([]roster.Worker, error) {
	values, err := s.all(ctx, "workers")
	if err != nil {
		return nil, err
	}
	workers := make([]roster.Worker, 0, len(values))
	for _, raw := range values {
		var d workerDoc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("failed to decode worker: %w", err)
		}
		workers = append(workers, d.toWorker())
	}
	roster.SortWorkers(workers)
	return workers, nil
}

func (s *Store) GetWorker(ctx context.Context, id roster.WorkerID) (roster.Worker, error) {
	var d workerDoc
	if err := s.get(ctx, "workers", string(id), roster.ErrWorkerNotFound, &d); err != nil {
		return roster.Worker{}, err
	}
	return d.toWorker(), nil
}

func (s *Store) CreateWorker(ctx context.Context, w roster.Worker) (roster.WorkerID, error) {
	if err := roster.ValidateWorker(w); err != nil {
		return "", err
	}
	if w.ID == "" {
		w.ID = roster.WorkerID(uuid.NewString())
	}
	if err := s.put(ctx, "workers", string(w.ID), toWorkerDoc(w)); err != nil {
		return "", err
	}
	return w.ID, nil
}

func (s *Store) UpdateWorker(ctx context.Context, id roster.WorkerID, patch roster.WorkerPatch) error {
	w, err := s.GetWorker(ctx, id)
	if err != nil {
		return err
	}
	return s.put(ctx, "workers", string(id), toWorkerDoc(patch.Apply(w)))
}

func (s *Store) DeleteWorker(ctx context.Context, id roster.WorkerID) error {
	return s.del(ctx, "workers", string(id))
}

// =============================================================================
// TIERS
// =============================================================================

func (s *Store) ListTiers(ctx context.Context) ([]roster.Tier, error) {
	values, err := s.all(ctx, "tiers")
	if err != nil {
		return nil, err
	}
	tiers := make([]roster.Tier, 0, len(values))
	for _, raw := range values {
		var d tierDoc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("failed to decode tier: %w", err)
		}
		tiers = append(tiers, d.toTier())
	}
	roster.SortTiers(tiers)
	return tiers, nil
}

func (s *Store) GetTier(ctx context.Context, id roster.TierID) (roster.Tier, error) {
	var d tierDoc
	if err := s.get(ctx, "tiers", string(id), roster.ErrTierNotFound, &d); err != nil {
		return roster.Tier{}, err
	}
	return d.toTier(), nil
}

func (s *Store) CreateTier(ctx context.Context, t roster.Tier) (roster.TierID, error) {
	if t.Color == "" {
		t.Color = roster.DefaultTierColor
	}
	if err := roster.ValidateTier(t); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = roster.TierID(uuid.NewString())
	}
	if err := s.put(ctx, "tiers", string(t.ID), toTierDoc(t)); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (s *Store) UpdateTier(ctx context.Context, id roster.TierID, patch roster.TierPatch) error {
	t, err := s.GetTier(ctx, id)
	if err != nil {
		return err
	}
	updated := patch.Apply(t)
	if err := roster.ValidateTier(updated); err != nil {
		return err
	}
	return s.put(ctx, "tiers", string(id), toTierDoc(updated))
}

// DeleteTier does not cascade: workers and shifts keep the dangling id.
func (s *Store) DeleteTier(ctx context.Context, id roster.TierID) error {
	return s.del(ctx, "tiers", string(id))
}

// =============================================================================
// SHIFTS
// =============================================================================

func (s *Store) ListShifts(ctx context.Context, q roster.ShiftQuery) ([]roster.Shift, error) {
	values, err := s.all(ctx, "schedules")
	if err != nil {
		return nil, err
	}
	var shifts []roster.Shift
	for _, raw := range values {
		var d shiftDoc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("failed to decode shift: %w", err)
		}
		sh, err := d.toShift()
		if err != nil {
			return nil, err
		}
		if q.Matches(sh) {
			shifts = append(shifts, sh)
		}
	}
	roster.SortShifts(shifts)
	return shifts, nil
}

func (s *Store) GetShift(ctx context.Context, id roster.ShiftID) (roster.Shift, error) {
	var d shiftDoc
	if err := s.get(ctx, "schedules", string(id), roster.ErrShiftNotFound, &d); err != nil {
		return roster.Shift{}, err
	}
	return d.toShift()
}

func (s *Store) CreateShift(ctx context.Context, sh roster.Shift) (roster.ShiftID, error) {
	if err := roster.ValidateShift(sh); err != nil {
		return "", err
	}
	if sh.ID == "" {
		sh.ID = roster.ShiftID(uuid.NewString())
	}
	if err := s.put(ctx, "schedules", string(sh.ID), toShiftDoc(sh)); err != nil {
		return "", err
	}
	return sh.ID, nil
}

func (s *Store) UpdateShift(ctx context.Context, id roster.ShiftID, patch roster.ShiftPatch) error {
	sh, err := s.GetShift(ctx, id)
	if err != nil {
		return err
	}
	updated := patch.Apply(sh)
	if err := roster.ValidateShift(updated); err != nil {
		return err
	}
	return s.put(ctx, "schedules", string(id), toShiftDoc(updated))
}

func (s *Store) DeleteShift(ctx context.Context, id roster.ShiftID) error {
	return s.del(ctx, "schedules", string(id))
}
