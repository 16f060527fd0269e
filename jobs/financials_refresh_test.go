package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	jobmetrics "github.com/atelier-erp/atelier-erp/internal/jobs"
	"github.com/atelier-erp/atelier-erp/internal/projects"
)

type stubProjects struct {
	rows    []projects.Project
	updates map[string]projects.Financials
}

func (s *stubProjects) List(ctx context.Context, filter abac.RowFilter) ([]projects.Project, error) {
	return s.rows, nil
}

func (s *stubProjects) UpdateFinancials(ctx context.Context, id string, f projects.Financials) error {
	if s.updates == nil {
		s.updates = map[string]projects.Financials{}
	}
	s.updates[id] = f
	return nil
}

type stubExpenses struct{ sums map[string]float64 }

func (s stubExpenses) SumApproved(ctx context.Context, projectID string) (float64, error) {
	return s.sums[projectID], nil
}

type stubTimeLogs struct{ minutes map[string]int }

func (s stubTimeLogs) SumApprovedMinutes(ctx context.Context, projectID string) (int, error) {
	return s.minutes[projectID], nil
}

func testRefresher(ps *stubProjects, es stubExpenses, ts stubTimeLogs) *FinancialsRefresher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFinancialsRefresher(ps, es, ts, logger, jobmetrics.NewMetrics(nil))
}

func TestRefreshComputesEarnedValue(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 100)
	ps := &stubProjects{rows: []projects.Project{{
		ID:         "PROJ-1",
		Status:     projects.StatusConstruction,
		Progress:   60,
		StartDate:  start,
		EndDate:    &end,
		Financials: projects.Financials{BudgetTotal: 1_000_000},
	}}}
	refresher := testRefresher(ps, stubExpenses{sums: map[string]float64{"PROJ-1": 400_000}}, stubTimeLogs{})
	refresher.now = func() time.Time { return start.AddDate(0, 0, 50) }

	require.NoError(t, refresher.Refresh(context.Background(), ""))

	fin, ok := ps.updates["PROJ-1"]
	require.True(t, ok)
	require.InDelta(t, 400_000, fin.CostActual, 0.01)
	require.InDelta(t, 600_000, fin.ValueEarned, 0.01)
	require.InDelta(t, 500_000, fin.ValuePlanned, 1_000)
	require.InDelta(t, 1.5, fin.CPI, 0.01)
	require.InDelta(t, 1.2, fin.SPI, 0.01)
}

func TestRefreshSkipsFinishedProjects(t *testing.T) {
	ps := &stubProjects{rows: []projects.Project{
		{ID: "PROJ-1", Status: projects.StatusCompleted, Financials: projects.Financials{BudgetTotal: 100}},
		{ID: "PROJ-2", Status: projects.StatusCancelled},
		{ID: "PROJ-3", Status: projects.StatusDesign, Progress: 10, Financials: projects.Financials{BudgetTotal: 100}},
	}}
	refresher := testRefresher(ps, stubExpenses{}, stubTimeLogs{})

	require.NoError(t, refresher.Refresh(context.Background(), ""))
	require.Len(t, ps.updates, 1)
	require.Contains(t, ps.updates, "PROJ-3")

	// A targeted refresh reaches a finished project explicitly.
	require.NoError(t, refresher.Refresh(context.Background(), "PROJ-1"))
	require.Contains(t, ps.updates, "PROJ-1")
}

func TestRefreshGuardsZeroDenominators(t *testing.T) {
	ps := &stubProjects{rows: []projects.Project{{
		ID: "PROJ-1", Status: projects.StatusLead, Progress: 0,
		Financials: projects.Financials{BudgetTotal: 0},
	}}}
	refresher := testRefresher(ps, stubExpenses{}, stubTimeLogs{})

	require.NoError(t, refresher.Refresh(context.Background(), ""))
	fin := ps.updates["PROJ-1"]
	require.Zero(t, fin.CPI)
	require.Zero(t, fin.SPI)
}
