package kpi

import "time"

// MetricsRow is one raw per-period KPI row for a workshop as stored in the
// operational database. Rows are immutable once fetched.
type MetricsRow struct {
	ID         int64
	WorkshopID int64
	PeriodDate time.Time

	MechanicsHours     float64
	MechanicsOrders    float64
	MechanicsMaterials float64
	MechanicsLaborCost float64

	BodyworkHours      float64
	PaintHours         float64
	BodyPaintOrders    float64
	BodyPaintMaterials float64
	BodyPaintLaborCost float64

	PaintMaterialCost float64
	ConsumableCost    float64
}

// Aggregate is the element-wise sum of all metric rows inside one resolved
// window for one workshop. A window without rows yields the zero Aggregate.
type Aggregate struct {
	WorkshopID int64  `json:"workshop_id"`
	Rows       int    `json:"rows"`
	Window     Window `json:"window"`

	MechanicsHours     float64 `json:"mechanics_hours"`
	MechanicsOrders    float64 `json:"mechanics_orders"`
	MechanicsMaterials float64 `json:"mechanics_materials"`
	MechanicsLaborCost float64 `json:"mechanics_labor_cost"`

	BodyworkHours      float64 `json:"bodywork_hours"`
	PaintHours         float64 `json:"paint_hours"`
	BodyPaintOrders    float64 `json:"bodypaint_orders"`
	BodyPaintMaterials float64 `json:"bodypaint_materials"`
	BodyPaintLaborCost float64 `json:"bodypaint_labor_cost"`

	PaintMaterialCost float64 `json:"paint_material_cost"`
	ConsumableCost    float64 `json:"consumable_cost"`
}

func (a *Aggregate) add(row MetricsRow) {
	a.Rows++
	a.MechanicsHours += row.MechanicsHours
	a.MechanicsOrders += row.MechanicsOrders
	a.MechanicsMaterials += row.MechanicsMaterials
	a.MechanicsLaborCost += row.MechanicsLaborCost
	a.BodyworkHours += row.BodyworkHours
	a.PaintHours += row.PaintHours
	a.BodyPaintOrders += row.BodyPaintOrders
	a.BodyPaintMaterials += row.BodyPaintMaterials
	a.BodyPaintLaborCost += row.BodyPaintLaborCost
	a.PaintMaterialCost += row.PaintMaterialCost
	a.ConsumableCost += row.ConsumableCost
}
