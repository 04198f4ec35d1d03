package kpi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryMetricsRepo struct {
	rows  []MetricsRow
	err   error
	calls int
}

func (r *memoryMetricsRepo) MetricsInWindow(ctx context.Context, workshopID int64, window Window) ([]MetricsRow, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []MetricsRow
	for _, row := range r.rows {
		if row.WorkshopID != workshopID {
			continue
		}
		if row.PeriodDate.Before(window.From) || row.PeriodDate.After(window.To) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func testWindow() Window {
	return MonthWindow(2025, time.May, time.UTC)
}

func TestAggregateSumsAllFields(t *testing.T) {
	repo := &memoryMetricsRepo{rows: []MetricsRow{
		{
			WorkshopID: 1, PeriodDate: time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
			MechanicsHours: 10, MechanicsOrders: 4, MechanicsMaterials: 100, MechanicsLaborCost: 300,
			BodyworkHours: 6, PaintHours: 3, BodyPaintOrders: 2, BodyPaintMaterials: 150, BodyPaintLaborCost: 250,
			PaintMaterialCost: 40, ConsumableCost: 10,
		},
		{
			WorkshopID: 1, PeriodDate: time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
			MechanicsHours: 5, MechanicsOrders: 1, MechanicsMaterials: 50, MechanicsLaborCost: 150,
			BodyworkHours: 4, PaintHours: 2, BodyPaintOrders: 1, BodyPaintMaterials: 100, BodyPaintLaborCost: 200,
			PaintMaterialCost: 20, ConsumableCost: 5,
		},
		// Outside the window and for another workshop; both excluded.
		{WorkshopID: 1, PeriodDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), MechanicsHours: 99},
		{WorkshopID: 2, PeriodDate: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), MechanicsHours: 99},
	}}
	engine := NewEngine(repo)

	agg, err := engine.Aggregate(context.Background(), 1, testWindow())
	require.NoError(t, err)
	require.Equal(t, 2, agg.Rows)
	require.Equal(t, int64(1), agg.WorkshopID)
	require.InDelta(t, 15.0, agg.MechanicsHours, 1e-9)
	require.InDelta(t, 5.0, agg.MechanicsOrders, 1e-9)
	require.InDelta(t, 150.0, agg.MechanicsMaterials, 1e-9)
	require.InDelta(t, 450.0, agg.MechanicsLaborCost, 1e-9)
	require.InDelta(t, 10.0, agg.BodyworkHours, 1e-9)
	require.InDelta(t, 5.0, agg.PaintHours, 1e-9)
	require.InDelta(t, 3.0, agg.BodyPaintOrders, 1e-9)
	require.InDelta(t, 250.0, agg.BodyPaintMaterials, 1e-9)
	require.InDelta(t, 450.0, agg.BodyPaintLaborCost, 1e-9)
	require.InDelta(t, 60.0, agg.PaintMaterialCost, 1e-9)
	require.InDelta(t, 15.0, agg.ConsumableCost, 1e-9)
}

func TestAggregateEmptyWindowIsZeroNotError(t *testing.T) {
	engine := NewEngine(&memoryMetricsRepo{})

	agg, err := engine.Aggregate(context.Background(), 7, testWindow())
	require.NoError(t, err)
	require.Zero(t, agg.Rows)
	require.Zero(t, agg.MechanicsHours)
	require.Equal(t, int64(7), agg.WorkshopID)
}

func TestAggregateIdempotent(t *testing.T) {
	repo := &memoryMetricsRepo{rows: []MetricsRow{
		{WorkshopID: 1, PeriodDate: time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC), MechanicsHours: 10, MechanicsOrders: 2},
	}}
	engine := NewEngine(repo)

	first, err := engine.Aggregate(context.Background(), 1, testWindow())
	require.NoError(t, err)
	second, err := engine.Aggregate(context.Background(), 1, testWindow())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAggregateWrapsStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	engine := NewEngine(&memoryMetricsRepo{err: storeErr})

	_, err := engine.Aggregate(context.Background(), 1, testWindow())
	require.Error(t, err)
	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	require.Equal(t, int64(1), aggErr.WorkshopID)
	require.ErrorIs(t, err, storeErr)
}
