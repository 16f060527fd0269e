package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	jobmetrics "github.com/atelier-erp/atelier-erp/internal/jobs"
	"github.com/atelier-erp/atelier-erp/internal/projects"
)

// ProjectSource lists projects and stores the recomputed aggregates.
type ProjectSource interface {
	List(ctx context.Context, filter abac.RowFilter) ([]projects.Project, error)
	UpdateFinancials(ctx context.Context, id string, f projects.Financials) error
}

// ExpenseSummer totals approved expenses per project.
type ExpenseSummer interface {
	SumApproved(ctx context.Context, projectID string) (float64, error)
}

// TimeLogSummer totals approved work minutes per project.
type TimeLogSummer interface {
	SumApprovedMinutes(ctx context.Context, projectID string) (int, error)
}

// FinancialsRefresher recomputes the earned-value aggregates from the
// approved expense and time log rows. Pending and rejected submissions
// never reach the figures.
type FinancialsRefresher struct {
	projects ProjectSource
	expenses ExpenseSummer
	timelogs TimeLogSummer
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
	now      func() time.Time
}

// NewFinancialsRefresher constructs the refresher.
func NewFinancialsRefresher(ps ProjectSource, es ExpenseSummer, ts TimeLogSummer, logger *slog.Logger, metrics *jobmetrics.Metrics) *FinancialsRefresher {
	return &FinancialsRefresher{projects: ps, expenses: es, timelogs: ts, logger: logger, metrics: metrics, now: time.Now}
}

// HandleTask processes TaskTypeFinancialsRefresh tasks.
func (f *FinancialsRefresher) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload FinancialsRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return f.metrics.Track("financials_refresh").End(f.Refresh(ctx, payload.ProjectID))
}

// Refresh recomputes the aggregates for one project, or for every
// unfinished project when projectID is empty.
func (f *FinancialsRefresher) Refresh(ctx context.Context, projectID string) error {
	rows, err := f.projects.List(ctx, abac.RowFilter{})
	if err != nil {
		return err
	}

	var failed int
	for _, p := range rows {
		if projectID != "" && p.ID != projectID {
			continue
		}
		if projectID == "" && (p.Status == projects.StatusCompleted || p.Status == projects.StatusCancelled) {
			continue
		}
		if err := f.refreshOne(ctx, p); err != nil {
			failed++
			f.logger.Error("financials refresh", slog.String("project_id", p.ID), slog.Any("error", err))
		}
	}
	if failed > 0 {
		f.logger.Warn("financials refresh incomplete", slog.Int("failed", failed))
	}
	return nil
}

func (f *FinancialsRefresher) refreshOne(ctx context.Context, p projects.Project) error {
	costActual, err := f.expenses.SumApproved(ctx, p.ID)
	if err != nil {
		return err
	}
	minutes, err := f.timelogs.SumApprovedMinutes(ctx, p.ID)
	if err != nil {
		return err
	}

	fin := p.Financials
	fin.CostActual = costActual
	fin.ValueEarned = fin.BudgetTotal * float64(p.Progress) / 100
	fin.ValuePlanned = fin.BudgetTotal * scheduleElapsed(p, f.now())
	fin.CPI = ratio(fin.ValueEarned, fin.CostActual)
	fin.SPI = ratio(fin.ValueEarned, fin.ValuePlanned)

	f.logger.Info("financials refreshed",
		slog.String("project_id", p.ID),
		slog.Float64("cost_actual", fin.CostActual),
		slog.Int("approved_minutes", minutes))

	return f.projects.UpdateFinancials(ctx, p.ID, fin)
}

// scheduleElapsed is the planned fraction of the schedule that has
// passed, clamped to [0, 1]. Projects without an end date are treated as
// on schedule.
func scheduleElapsed(p projects.Project, now time.Time) float64 {
	if p.EndDate == nil || !p.EndDate.After(p.StartDate) {
		return float64(p.Progress) / 100
	}
	total := p.EndDate.Sub(p.StartDate)
	elapsed := now.Sub(p.StartDate)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 1
	}
	return elapsed.Seconds() / total.Seconds()
}

func ratio(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}
