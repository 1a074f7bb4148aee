package monitoring

import (
	"context"
	"time"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// AddRedisCheck adds a Redis health check
func (h *HealthChecker) AddRedisCheck(client *redis.Client, interval, timeout time.Duration) {
	h.AddCheck("redis", func(ctx context.Context) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			return false, err
		}
		return true, nil
	}, interval, timeout)
}

// AddLedgerCheck adds a ledger health check. Listing the agent's own active
// links exercises the full read path without mutating anything.
func (h *HealthChecker) AddLedgerCheck(ledger ports.Ledger, self domain.Identity, interval, timeout time.Duration) {
	h.AddCheck("ledger", func(ctx context.Context) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if _, err := ledger.Links(ctx, self.Hash(), domain.LinkActivePeer); err != nil {
			return false, err
		}
		return true, nil
	}, interval, timeout)
}
