package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskKpiWarmup pre-populates the KPI aggregate cache for active workshops.
	TaskKpiWarmup = "kpi:warmup"
)

// KpiWarmupPayload scopes one warmup run.
type KpiWarmupPayload struct {
	// WorkshopIDs limits the run to specific workshops; empty means every
	// workshop with metric rows.
	WorkshopIDs []int64 `json:"workshop_ids,omitempty"`
}

// NewKpiWarmupTask constructs an Asynq task for the warmup handler.
func NewKpiWarmupTask(payload KpiWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskKpiWarmup, data), nil
}
