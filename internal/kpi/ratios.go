package kpi

// Ratios holds the derived business indicators for one aggregate. Every ratio
// is guarded against a zero denominator and yields exactly 0 in that case.
type Ratios struct {
	LaborPerOrderMechanics    float64 `json:"labor_per_order_mechanics"`
	LaborPerOrderBodyPaint    float64 `json:"labor_per_order_bodypaint"`
	AvgTicketMechanics        float64 `json:"avg_ticket_mechanics"`
	AvgTicketBodyPaint        float64 `json:"avg_ticket_bodypaint"`
	MaterialPerPaintHour      float64 `json:"material_per_paint_hour"`
	MaterialPerBodyPaintOrder float64 `json:"material_per_bodypaint_order"`
}

// ComputeRatios derives the indicator set from an aggregate. Pure and total:
// defined for every input including the all-zero aggregate, and never
// produces NaN or Inf.
func ComputeRatios(agg Aggregate) Ratios {
	materials := agg.PaintMaterialCost + agg.ConsumableCost
	return Ratios{
		LaborPerOrderMechanics:    safeDiv(agg.MechanicsHours, agg.MechanicsOrders),
		LaborPerOrderBodyPaint:    safeDiv(agg.BodyworkHours+agg.PaintHours, agg.BodyPaintOrders),
		AvgTicketMechanics:        safeDiv(agg.MechanicsMaterials+agg.MechanicsLaborCost, agg.MechanicsOrders),
		AvgTicketBodyPaint:        safeDiv(agg.BodyPaintMaterials+agg.BodyPaintLaborCost, agg.BodyPaintOrders),
		MaterialPerPaintHour:      safeDiv(materials, agg.PaintHours),
		MaterialPerBodyPaintOrder: safeDiv(materials, agg.BodyPaintOrders),
	}
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
