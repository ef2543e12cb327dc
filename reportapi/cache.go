// Package reportapi exposes a thin, external HTTP adapter over the
// optimizer: read-only route and optimization reports, and an authenticated
// endpoint for submitting executed governance proposals. It is an adapter,
// not core state — the cache here only ever holds already-computed report
// bytes and is fully rebuildable from the in-memory optimizer.
package reportapi

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ReportCache is a read-through cache for serialized report bytes, backed
// by Valkey. It is adapted from the teacher's state.ValkeyManager
// SaveCache/LoadCache pair, trimmed of the rate-limiting methods that
// belonged to its AI-gateway domain.
type ReportCache struct {
	client valkey.Client
}

// NewReportCache wraps a Valkey client. A nil client makes the cache a
// permanent miss, so the server degrades to always-compute when Valkey
// isn't configured.
func NewReportCache(client valkey.Client) *ReportCache {
	return &ReportCache{client: client}
}

// Get returns cached bytes for key, or (nil, false) on a miss or when the
// cache is disabled.
func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	resp := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		return nil, false
	}
	data, err := resp.AsBytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores value under key with a TTL. Errors are swallowed by the
// caller's policy (a failed cache write should never fail a report
// request); Set still returns the error so callers can log it.
func (c *ReportCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	return c.client.Do(
		ctx, c.client.B().Set().
			Key(key).
			Value(valkey.BinaryString(value)).
			Ex(ttl).
			Build(),
	).Error()
}
