package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/obra-erp/obra-erp/internal/accounting/ledger"
	jobmetrics "github.com/obra-erp/obra-erp/internal/jobs"
)

// RetryService is the slice of the ledger service the background jobs need.
type RetryService interface {
	RetryFailure(ctx context.Context, failureID int64) error
	UnresolvedFailures(ctx context.Context, limit int) ([]ledger.LedgerFailure, error)
}

// scanBatchSize caps how many stale failures one sweep re-enqueues.
const scanBatchSize = 200

// NewLedgerRetryHandler processes TaskLedgerRetry tasks. A malformed payload
// is dropped; a replay error is returned so Asynq backs off and retries.
func NewLedgerRetryHandler(svc RetryService, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		track := metrics.Track("ledger_retry")
		var payload LedgerRetryPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("ledger retry payload", slog.Any("error", err))
			_ = track.End(err)
			return asynq.SkipRetry
		}
		err := svc.RetryFailure(ctx, payload.FailureID)
		if err != nil {
			logger.Warn("ledger retry", slog.Int64("failure", payload.FailureID), slog.Any("error", err))
		}
		return track.End(err)
	}
}

// NewLedgerScanHandler processes TaskLedgerScan tasks: it finds deferred
// entries with no pending retry and queues a replay for each. A nil lease
// means the sweep always runs.
func NewLedgerScanHandler(svc RetryService, client *Client, lease *Lease, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		track := metrics.Track("ledger_scan")
		acquired, err := lease.TryAcquire(ctx)
		if err != nil {
			return track.End(err)
		}
		if !acquired {
			return track.End(nil)
		}
		failures, err := svc.UnresolvedFailures(ctx, scanBatchSize)
		if err != nil {
			return track.End(err)
		}
		metrics.SetUnresolvedFailures(len(failures))
		for _, failure := range failures {
			if err := client.EnqueueLedgerRetry(ctx, failure.ID); err != nil {
				logger.Warn("ledger scan enqueue",
					slog.Int64("failure", failure.ID), slog.Any("error", err))
			}
		}
		if len(failures) > 0 {
			logger.Info("ledger scan re-enqueued failures", slog.Int("count", len(failures)))
		}
		return track.End(nil)
	}
}
