package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReplayCache struct {
	seen map[string]bool
}

func newFakeReplayCache() *fakeReplayCache {
	return &fakeReplayCache{seen: make(map[string]bool)}
}

func (c *fakeReplayCache) MarkUsed(_ context.Context, signature string, _ time.Duration) (bool, error) {
	if c.seen[signature] {
		return false, nil
	}
	c.seen[signature] = true
	return true, nil
}

func newTestTokenService(replay cache.ReplayCache) (*tokenService, *time.Time) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService([]byte("test-secret"), DefaultTokenMaxAge, replay).(*tokenService)
	now := base
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestTokenIssueAndValidate(t *testing.T) {
	svc, _ := newTestTokenService(newFakeReplayCache())

	token, err := svc.Issue(context.Background(), "cust-1", "sess-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Signature)

	assert.NoError(t, svc.Validate(context.Background(), token))
}

func TestTokenValidate_AgeBoundary(t *testing.T) {
	svc, now := newTestTokenService(cache.NoopReplayCache{})

	token, err := svc.Issue(context.Background(), "cust-1", "sess-1")
	require.NoError(t, err)

	// 59.999s old: still inside the rotation window.
	*now = now.Add(59*time.Second + 999*time.Millisecond)
	assert.NoError(t, svc.Validate(context.Background(), token))

	// 60.001s old: expired.
	*now = now.Add(2 * time.Millisecond)
	assert.ErrorIs(t, svc.Validate(context.Background(), token), ErrTokenExpired)
}

func TestTokenValidate_FutureTimestamp(t *testing.T) {
	svc, now := newTestTokenService(cache.NoopReplayCache{})

	token, err := svc.Issue(context.Background(), "cust-1", "sess-1")
	require.NoError(t, err)

	*now = now.Add(-time.Second)
	assert.ErrorIs(t, svc.Validate(context.Background(), token), ErrTokenFutureTimestamp)
}

func TestTokenValidate_TamperedPayload(t *testing.T) {
	svc, _ := newTestTokenService(cache.NoopReplayCache{})

	token, err := svc.Issue(context.Background(), "cust-1", "sess-1")
	require.NoError(t, err)

	token.CustomerID = "cust-2"
	assert.ErrorIs(t, svc.Validate(context.Background(), token), ErrTokenInvalidSignature)
}

func TestTokenValidate_Replay(t *testing.T) {
	svc, _ := newTestTokenService(newFakeReplayCache())

	token, err := svc.Issue(context.Background(), "cust-1", "sess-1")
	require.NoError(t, err)

	require.NoError(t, svc.Validate(context.Background(), token))
	assert.ErrorIs(t, svc.Validate(context.Background(), token), ErrTokenReplayed)
}

func TestTokenValidate_ExpiredBeforeSignatureChecked(t *testing.T) {
	svc, now := newTestTokenService(cache.NoopReplayCache{})

	token, err := svc.Issue(context.Background(), "cust-1", "sess-1")
	require.NoError(t, err)
	token.Signature = "garbage"

	// An expired token reports expiry, not the signature mismatch.
	*now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, svc.Validate(context.Background(), token), ErrTokenExpired)
}

func TestTokenIssue_RequiresIdentity(t *testing.T) {
	svc, _ := newTestTokenService(cache.NoopReplayCache{})

	_, err := svc.Issue(context.Background(), "", "sess-1")
	assert.Error(t, err)

	_, err = svc.Issue(context.Background(), "cust-1", "")
	assert.Error(t, err)
}
