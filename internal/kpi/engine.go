package kpi

import (
	"context"
	"fmt"
)

// Repository exposes the metric row queries the engine relies on.
type Repository interface {
	MetricsInWindow(ctx context.Context, workshopID int64, window Window) ([]MetricsRow, error)
}

// AggregationError wraps a failed read from the metrics store. The caller
// decides whether to retry or surface the message inline.
type AggregationError struct {
	WorkshopID int64
	Window     Window
	Err        error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("kpi: aggregate workshop %d: %v", e.WorkshopID, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// Engine folds raw metric rows into per-window aggregates.
type Engine struct {
	repo Repository
}

// NewEngine constructs an Engine over the given repository.
func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// Aggregate issues one range query for the workshop and window and sums every
// numeric field across the returned rows. An empty result set is a valid zero
// aggregate, not an error. The result is owned by the caller and replaced,
// never mutated, on the next resolution.
func (e *Engine) Aggregate(ctx context.Context, workshopID int64, window Window) (Aggregate, error) {
	rows, err := e.repo.MetricsInWindow(ctx, workshopID, window)
	if err != nil {
		return Aggregate{}, &AggregationError{WorkshopID: workshopID, Window: window, Err: err}
	}
	agg := Aggregate{WorkshopID: workshopID, Window: window}
	for _, row := range rows {
		agg.add(row)
	}
	return agg, nil
}
