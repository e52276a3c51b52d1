package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerRetry replays one deferred automatic ledger entry.
	TaskLedgerRetry = "ledger:retry"
	// TaskLedgerScan sweeps for deferred entries that never got replayed,
	// typically after a worker restart lost their queued retries.
	TaskLedgerScan = "ledger:scan"
)

// LedgerRetryPayload identifies the stored failure to replay.
type LedgerRetryPayload struct {
	FailureID int64 `json:"failure_id"`
}

// NewLedgerRetryTask constructs an Asynq task for one failure replay.
func NewLedgerRetryTask(failureID int64) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerRetryPayload{FailureID: failureID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerRetry, data, asynq.Queue(QueueDefault)), nil
}

// NewLedgerScanTask constructs the periodic sweep task. It carries no payload.
func NewLedgerScanTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerScan, nil, asynq.Queue(QueueDefault))
}
