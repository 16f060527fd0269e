package jobs

import (
	"context"
	"log/slog"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// ApprovalSink matches the recorder interface the approval services use.
type ApprovalSink interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// ApprovalRefreshHook decorates an approval sink so expense and time log
// decisions schedule a financials refresh without waiting for the nightly
// cron. Enqueue failures are logged, never surfaced: the cron catches up.
type ApprovalRefreshHook struct {
	next   ApprovalSink
	client *Client
	logger *slog.Logger
}

// NewApprovalRefreshHook wraps next. A nil client disables enqueueing.
func NewApprovalRefreshHook(next ApprovalSink, client *Client, logger *slog.Logger) *ApprovalRefreshHook {
	return &ApprovalRefreshHook{next: next, client: client, logger: logger}
}

// Record forwards to the underlying recorder, then enqueues a refresh for
// financial decisions.
func (h *ApprovalRefreshHook) Record(ctx context.Context, log shared.ApprovalLog) error {
	if err := h.next.Record(ctx, log); err != nil {
		return err
	}
	if h.client == nil {
		return nil
	}
	if log.Action == shared.ApprovalSubmit {
		return nil
	}
	if log.Module != "expenses" && log.Module != "time_logs" {
		return nil
	}
	if _, err := h.client.EnqueueFinancialsRefresh(ctx, FinancialsRefreshPayload{}); err != nil {
		h.logger.Warn("enqueue financials refresh", slog.Any("error", err))
	}
	return nil
}
