package cache

import (
	"context"
	"time"
)

// ReplayCache remembers QR token signatures that already passed validation so
// a captured token cannot be presented twice within its validity window.
type ReplayCache interface {
	// MarkUsed records the signature and reports whether this call was the
	// first use. A second call within the TTL returns false.
	MarkUsed(ctx context.Context, signature string, ttl time.Duration) (bool, error)
}

// NoopReplayCache disables replay tracking. Used when no Redis is configured;
// token expiry still bounds the exposure to the rotation window.
type NoopReplayCache struct{}

func (NoopReplayCache) MarkUsed(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return true, nil
}
