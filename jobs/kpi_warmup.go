package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tallerix/tallerix/internal/jobs"
	"github.com/tallerix/tallerix/internal/kpi"
)

// WorkshopLister resolves which workshops a warmup run should prime.
type WorkshopLister interface {
	ActiveWorkshops(ctx context.Context) ([]int64, error)
}

// KpiWarmupJob pre-populates the aggregate cache for the current calendar
// month of every active workshop, so the first dashboard render after a quiet
// period does not pay the fold latency.
type KpiWarmupJob struct {
	Service *kpi.Service
	Lister  WorkshopLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewKpiWarmupJob wires dependencies for the warmup handler.
func NewKpiWarmupJob(service *kpi.Service, lister WorkshopLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *KpiWarmupJob {
	return &KpiWarmupJob{
		Service: service,
		Lister:  lister,
		Logger:  logger,
		Metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes TaskKpiWarmup tasks.
func (j *KpiWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("kpi warmup: handler not configured")
	}
	var payload KpiWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskKpiWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	workshops := payload.WorkshopIDs
	if len(workshops) == 0 && j.Lister != nil {
		ids, err := j.Lister.ActiveWorkshops(ctx)
		if err != nil {
			resultErr = err
			return resultErr
		}
		workshops = ids
	}

	warmed := 0
	for _, id := range workshops {
		if _, err := j.Service.CurrentMonth(ctx, id); err != nil {
			j.logger().Warn("kpi warmup scope failed",
				slog.Int64("workshop_id", id), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.metrics().AddWarmedScopes(TaskKpiWarmup, warmed)
	j.logger().Info("kpi warmup finished",
		slog.Int("workshops", len(workshops)), slog.Int("warmed", warmed))
	return nil
}

func (j *KpiWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *KpiWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
