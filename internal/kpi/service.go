package kpi

import (
	"context"
	"sync"
	"time"
)

// Snapshot bundles everything one dashboard render needs: the window the
// numbers were computed from, the raw aggregate, and the derived ratios.
type Snapshot struct {
	Window    Window    `json:"window"`
	Aggregate Aggregate `json:"aggregate"`
	Ratios    Ratios    `json:"ratios"`
}

// Service resolves a filter state into indicator snapshots, deduplicating
// redundant fetches and consulting the aggregate cache.
type Service struct {
	engine *Engine
	guard  *FetchGuard
	cache  *Cache
	clock  func() time.Time

	mu      sync.Mutex
	last    Snapshot
	hasLast bool
}

// NewService wires the aggregation engine with its guard and cache.
func NewService(engine *Engine, cache *Cache) *Service {
	return &Service{
		engine: engine,
		guard:  NewFetchGuard(),
		cache:  cache,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Dashboard resolves the filter, fetches and folds the matching metric rows,
// and derives the ratio set. A request whose (workshop, window) key matches
// the previous successful one is a no-op that returns the prior snapshot
// unless force is set.
func (s *Service) Dashboard(ctx context.Context, workshopID int64, filter *FilterState, force bool) (Snapshot, error) {
	window, err := filter.Resolve(s.clock())
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, workshopID, window, force)
}

// CurrentMonth returns the snapshot for the calendar month containing now.
// Used by the warmup job and the summary cards.
func (s *Service) CurrentMonth(ctx context.Context, workshopID int64) (Snapshot, error) {
	now := s.clock()
	return s.snapshot(ctx, workshopID, MonthWindow(now.Year(), now.Month(), now.Location()), true)
}

func (s *Service) snapshot(ctx context.Context, workshopID int64, window Window, force bool) (Snapshot, error) {
	key := FetchKey{WorkshopID: workshopID, Window: window}
	agg, ran, err := s.guard.Do(ctx, key, force, func(ctx context.Context) (Aggregate, error) {
		return s.loadAggregate(ctx, workshopID, window)
	})
	if err != nil {
		return Snapshot{}, err
	}
	if !ran {
		s.mu.Lock()
		last, ok := s.last, s.hasLast
		s.mu.Unlock()
		if ok && last.Aggregate.WorkshopID == workshopID && last.Window.Equal(window) {
			return last, nil
		}
		agg, _, err = s.guard.Do(ctx, key, true, func(ctx context.Context) (Aggregate, error) {
			return s.loadAggregate(ctx, workshopID, window)
		})
		if err != nil {
			return Snapshot{}, err
		}
	}
	snap := Snapshot{Window: window, Aggregate: agg, Ratios: ComputeRatios(agg)}
	s.mu.Lock()
	s.last = snap
	s.hasLast = true
	s.mu.Unlock()
	return snap, nil
}

func (s *Service) loadAggregate(ctx context.Context, workshopID int64, window Window) (Aggregate, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.engine.Aggregate(ctx, workshopID, window)
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Aggregate{}, err
		}
		return value.(Aggregate), nil
	}
	key, err := s.cache.BuildKey(ctx, keyAggregate(workshopID, window))
	if err != nil {
		return Aggregate{}, err
	}
	var agg Aggregate
	if err := s.cache.FetchJSON(ctx, key, &agg, loader); err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

// InvalidateCache advances the aggregate cache generation.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
