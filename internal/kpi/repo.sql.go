package kpi

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository provides PostgreSQL backed access to the metric rows.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository over the shared pool.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// MetricsInWindow returns every metric row for the workshop whose period date
// falls inside the closed window. Missing numeric columns are coerced to 0 in
// SQL so the fold never sees NULL.
func (r *PGRepository) MetricsInWindow(ctx context.Context, workshopID int64, window Window) ([]MetricsRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, workshop_id, period_date,
	COALESCE(mechanics_hours, 0), COALESCE(mechanics_orders, 0),
	COALESCE(mechanics_materials, 0), COALESCE(mechanics_labor_cost, 0),
	COALESCE(bodywork_hours, 0), COALESCE(paint_hours, 0),
	COALESCE(bodypaint_orders, 0), COALESCE(bodypaint_materials, 0),
	COALESCE(bodypaint_labor_cost, 0), COALESCE(paint_material_cost, 0),
	COALESCE(consumable_cost, 0)
FROM workshop_metrics
WHERE workshop_id = $1 AND period_date BETWEEN $2 AND $3
ORDER BY period_date`, workshopID, window.From, window.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MetricsRow
	for rows.Next() {
		var row MetricsRow
		if err := rows.Scan(
			&row.ID, &row.WorkshopID, &row.PeriodDate,
			&row.MechanicsHours, &row.MechanicsOrders,
			&row.MechanicsMaterials, &row.MechanicsLaborCost,
			&row.BodyworkHours, &row.PaintHours,
			&row.BodyPaintOrders, &row.BodyPaintMaterials,
			&row.BodyPaintLaborCost, &row.PaintMaterialCost,
			&row.ConsumableCost,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveWorkshops lists the workshops that have at least one metric row,
// used by the cache warmup job to decide which scopes to prime.
func (r *PGRepository) ActiveWorkshops(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT workshop_id FROM workshop_metrics ORDER BY workshop_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
