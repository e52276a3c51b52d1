package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-erp/obra-erp/internal/accounting/ledger"
	jobmetrics "github.com/obra-erp/obra-erp/internal/jobs"
)

type fakeRetryService struct {
	retried    []int64
	retryErr   error
	unresolved []ledger.LedgerFailure
}

func (f *fakeRetryService) RetryFailure(_ context.Context, failureID int64) error {
	f.retried = append(f.retried, failureID)
	return f.retryErr
}

func (f *fakeRetryService) UnresolvedFailures(_ context.Context, _ int) ([]ledger.LedgerFailure, error) {
	return f.unresolved, nil
}

func newTestQueue(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}
	client, err := NewClient(opts)
	require.NoError(t, err)
	inspector := asynq.NewInspector(opts)
	t.Cleanup(func() {
		_ = client.Close()
		_ = inspector.Close()
	})
	return client, inspector
}

func TestEnqueueLedgerRetry(t *testing.T) {
	client, inspector := newTestQueue(t)

	require.NoError(t, client.EnqueueLedgerRetry(context.Background(), 42))

	tasks, err := inspector.ListPendingTasks(QueueDefault)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskLedgerRetry, tasks[0].Type)

	var payload LedgerRetryPayload
	require.NoError(t, json.Unmarshal(tasks[0].Payload, &payload))
	assert.Equal(t, int64(42), payload.FailureID)
}

func TestEnqueueLedgerRetryIsIdempotentPerFailure(t *testing.T) {
	client, inspector := newTestQueue(t)

	require.NoError(t, client.EnqueueLedgerRetry(context.Background(), 42))
	require.NoError(t, client.EnqueueLedgerRetry(context.Background(), 42))
	require.NoError(t, client.EnqueueLedgerRetry(context.Background(), 43))

	tasks, err := inspector.ListPendingTasks(QueueDefault)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestLedgerRetryHandler(t *testing.T) {
	svc := &fakeRetryService{}
	handler := NewLedgerRetryHandler(svc, slog.Default(), jobmetrics.NewMetrics(nil))

	task, err := NewLedgerRetryTask(7)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, []int64{7}, svc.retried)
}

func TestLedgerRetryHandlerSkipsMalformedPayload(t *testing.T) {
	svc := &fakeRetryService{}
	handler := NewLedgerRetryHandler(svc, slog.Default(), jobmetrics.NewMetrics(nil))

	err := handler(context.Background(), asynq.NewTask(TaskLedgerRetry, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, svc.retried)
}

func TestLedgerRetryHandlerPropagatesReplayError(t *testing.T) {
	boom := errors.New("replay failed")
	svc := &fakeRetryService{retryErr: boom}
	handler := NewLedgerRetryHandler(svc, slog.Default(), jobmetrics.NewMetrics(nil))

	task, err := NewLedgerRetryTask(7)
	require.NoError(t, err)
	assert.ErrorIs(t, handler(context.Background(), task), boom)
}

func TestLedgerScanReenqueuesUnresolved(t *testing.T) {
	client, inspector := newTestQueue(t)
	svc := &fakeRetryService{unresolved: []ledger.LedgerFailure{{ID: 1}, {ID: 2}}}
	handler := NewLedgerScanHandler(svc, client, nil, slog.Default(), jobmetrics.NewMetrics(nil))

	require.NoError(t, handler(context.Background(), NewLedgerScanTask()))

	tasks, err := inspector.ListPendingTasks(QueueDefault)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestLeaseBlocksSecondHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	first := NewLease(rdb, "jobs:test:lease", time.Minute)
	second := NewLease(rdb, "jobs:test:lease", time.Minute)

	ok, err := first.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = second.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
