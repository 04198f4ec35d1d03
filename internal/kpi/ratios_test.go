package kpi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeRatios(t *testing.T) {
	agg := Aggregate{
		MechanicsHours:     120,
		MechanicsOrders:    40,
		MechanicsMaterials: 2000,
		MechanicsLaborCost: 6000,

		BodyworkHours:      80,
		PaintHours:         50,
		BodyPaintOrders:    20,
		BodyPaintMaterials: 3000,
		BodyPaintLaborCost: 5000,

		PaintMaterialCost: 1500,
		ConsumableCost:    500,
	}

	ratios := ComputeRatios(agg)
	require.InDelta(t, 3.0, ratios.LaborPerOrderMechanics, 1e-9)
	require.InDelta(t, 6.5, ratios.LaborPerOrderBodyPaint, 1e-9)
	require.InDelta(t, 200.0, ratios.AvgTicketMechanics, 1e-9)
	require.InDelta(t, 400.0, ratios.AvgTicketBodyPaint, 1e-9)
	require.InDelta(t, 40.0, ratios.MaterialPerPaintHour, 1e-9)
	require.InDelta(t, 100.0, ratios.MaterialPerBodyPaintOrder, 1e-9)
}

func TestComputeRatiosZeroAggregate(t *testing.T) {
	ratios := ComputeRatios(Aggregate{})
	require.Zero(t, ratios.LaborPerOrderMechanics)
	require.Zero(t, ratios.LaborPerOrderBodyPaint)
	require.Zero(t, ratios.AvgTicketMechanics)
	require.Zero(t, ratios.AvgTicketBodyPaint)
	require.Zero(t, ratios.MaterialPerPaintHour)
	require.Zero(t, ratios.MaterialPerBodyPaintOrder)
}

// Numerators without denominators must still yield 0, never Inf or NaN.
func TestComputeRatiosTotality(t *testing.T) {
	cases := []Aggregate{
		{MechanicsHours: 10},
		{BodyworkHours: 8, PaintHours: 4},
		{MechanicsMaterials: 100, MechanicsLaborCost: 200},
		{BodyPaintMaterials: 100, BodyPaintLaborCost: 200},
		{PaintMaterialCost: 50, ConsumableCost: 25},
	}
	for _, agg := range cases {
		ratios := ComputeRatios(agg)
		for _, v := range []float64{
			ratios.LaborPerOrderMechanics,
			ratios.LaborPerOrderBodyPaint,
			ratios.AvgTicketMechanics,
			ratios.AvgTicketBodyPaint,
			ratios.MaterialPerPaintHour,
			ratios.MaterialPerBodyPaintOrder,
		} {
			require.False(t, math.IsNaN(v), "ratio must not be NaN")
			require.False(t, math.IsInf(v, 0), "ratio must not be Inf")
			require.Zero(t, v)
		}
	}
}
