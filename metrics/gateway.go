package metrics

import (
	"context"
	"time"

	"github.com/warp/crew-scheduler/roster"
)

// Gateway wraps a roster.Gateway and records every call.
type Gateway struct {
	next roster.Gateway
	m    *Metrics
}

var _ roster.Gateway = (*Gateway)(nil)

func (m *Metrics) Instrument(next roster.Gateway) *Gateway {
	return &Gateway{next: next, m: m}
}

// Unwrap returns the wrapped gateway.
func (g *Gateway) Unwrap() roster.Gateway { return g.next }

func (g *Gateway) ListWorkers(ctx context.Context) ([]roster.Worker, error) {
	start := time.Now()
	workers, err := g.next.ListWorkers(ctx)
	g.m.observeStore("workers", "list", start, err)
	return workers, err
}

func (g *Gateway) GetWorker(ctx context.Context, id roster.WorkerID) (roster.Worker, error) {
	start := time.Now()
	w, err := g.next.GetWorker(ctx, id)
	g.m.observeStore("workers", "get", start, err)
	return w, err
}

func (g *Gateway) CreateWorker(ctx context.Context, w roster.Worker) (roster.WorkerID, error) {
	start := time.Now()
	id, err := g.next.CreateWorker(ctx, w)
	g.m.observeStore("workers", "create", start, err)
	return id, err
}

func (g *Gateway) UpdateWorker(ctx context.Context, id roster.WorkerID, patch roster.WorkerPatch) error {
	start := time.Now()
	err := g.next.UpdateWorker(ctx, id, patch)
	g.m.observeStore("workers", "update", start, err)
	return err
}

func (g *Gateway) DeleteWorker(ctx context.Context, id roster.WorkerID) error {
	start := time.Now()
	err := g.next.DeleteWorker(ctx, id)
	g.m.observeStore("workers", "delete", start, err)
	return err
}

func (g *Gateway) ListTiers(ctx context.Context) ([]roster.Tier, error) {
	start := time.Now()
	tiers, err := g.next.ListTiers(ctx)
	g.m.observeStore("tiers", "list", start, err)
	return tiers, err
}

func (g *Gateway) GetTier(ctx context.Context, id roster.TierID) (roster.Tier, error) {
	start := time.Now()
	t, err := g.next.GetTier(ctx, id)
	g.m.observeStore("tiers", "get", start, err)
	return t, err
}

func (g *Gateway) CreateTier(ctx context.Context, t roster.Tier) (roster.TierID, error) {
	start := time.Now()
	id, err := g.next.CreateTier(ctx, t)
	g.m.observeStore("tiers", "create", start, err)
	return id, err
}

func (g *Gateway) UpdateTier(ctx context.Context, id roster.TierID, patch roster.TierPatch) error {
	start := time.Now()
	err := g.next.UpdateTier(ctx, id, patch)
	g.m.observeStore("tiers", "update", start, err)
	return err
}

func (g *Gateway) DeleteTier(ctx context.Context, id roster.TierID) error {
	start := time.Now()
	err := g.next.DeleteTier(ctx, id)
	g.m.observeStore("tiers", "delete", start, err)
	return err
}

func (g *Gateway) ListShifts(ctx context.Context, q roster.ShiftQuery) ([]roster.Shift, error) {
	start := time.Now()
	shifts, err := g.next.ListShifts(ctx, q)
	g.m.observeStore("schedules", "list", start, err)
	return shifts, err
}

func (g *Gateway) GetShift(ctx context.Context, id roster.ShiftID) (roster.Shift, error) {
	start := time.Now()
	s, err := g.next.GetShift(ctx, id)
	g.m.observeStore("schedules", "get", start, err)
	return s, err
}

func (g *Gateway) CreateShift(ctx context.Context, s roster.Shift) (roster.ShiftID, error) {
	start := time.Now()
	id, err := g.next.CreateShift(ctx, s)
	g.m.observeStore("schedules", "create", start, err)
	return id, err
}

func (g *Gateway) UpdateShift(ctx context.Context, id roster.ShiftID, patch roster.ShiftPatch) error {
	start := time.Now()
	err := g.next.UpdateShift(ctx, id, patch)
	g.m.observeStore("schedules", "update", start, err)
	return err
}

func (g *Gateway) DeleteShift(ctx context.Context, id roster.ShiftID) error {
	start := time.Now()
	err := g.next.DeleteShift(ctx, id)
	g.m.observeStore("schedules", "delete", start, err)
	return err
}
