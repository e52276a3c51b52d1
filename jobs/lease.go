package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lease is a best-effort distributed mutex over Redis. The ledger sweep runs
// on every worker's schedule; the lease keeps overlapping sweeps from
// re-enqueueing the same failures twice across instances.
type Lease struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewLease constructs a lease with the given key and expiry.
func NewLease(client *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{client: client, key: key, ttl: ttl}
}

// TryAcquire claims the lease. It reports false when another holder owns it.
// The lease expires on its own; sweeps are idempotent so a crashed holder
// only delays the next run.
func (l *Lease) TryAcquire(ctx context.Context) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, l.key, "1", l.ttl).Result()
}
