package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"backend/internal/cache"
)

// Rotating QR token errors. Each is terminal for that validation attempt.
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenFutureTimestamp  = errors.New("token timestamp is in the future")
	ErrTokenInvalidSignature = errors.New("token signature mismatch")
	ErrTokenReplayed         = errors.New("token already used")
)

// DefaultTokenMaxAge is the rotation window for checkout QR tokens.
const DefaultTokenMaxAge = 60 * time.Second

// QrToken is the rotating identity proof shown at the register. Timestamp is
// unix milliseconds; Signature is hex HMAC-SHA256 over the other fields.
type QrToken struct {
	CustomerID string `json:"customer_id" binding:"required"`
	SessionID  string `json:"session_id" binding:"required"`
	Timestamp  int64  `json:"timestamp" binding:"required"`
	Signature  string `json:"signature" binding:"required"`
}

func signToken(customerID, sessionID string, timestamp int64, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(customerID))
	mac.Write([]byte("|"))
	mac.Write([]byte(sessionID))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// --- Interface ---

type TokenService interface {
	Issue(ctx context.Context, customerID, sessionID string) (QrToken, error)
	// Validate checks age bounds, the keyed signature, and single use. Order
	// matters: age failures never leak whether a signature would have matched.
	Validate(ctx context.Context, token QrToken) error
}

type tokenService struct {
	secret []byte
	maxAge time.Duration
	replay cache.ReplayCache
	now    func() time.Time
}

func NewTokenService(secret []byte, maxAge time.Duration, replay cache.ReplayCache) TokenService {
	if maxAge <= 0 {
		maxAge = DefaultTokenMaxAge
	}
	return &tokenService{secret: secret, maxAge: maxAge, replay: replay, now: time.Now}
}

// --- Implementation ---

func (s *tokenService) Issue(_ context.Context, customerID, sessionID string) (QrToken, error) {
	if customerID == "" || sessionID == "" {
		return QrToken{}, fmt.Errorf("customer id and session id are required")
	}

	ts := s.now().UnixMilli()
	return QrToken{
		CustomerID: customerID,
		SessionID:  sessionID,
		Timestamp:  ts,
		Signature:  signToken(customerID, sessionID, ts, s.secret),
	}, nil
}

func (s *tokenService) Validate(ctx context.Context, token QrToken) error {
	age := s.now().UnixMilli() - token.Timestamp
	if age < 0 {
		return ErrTokenFutureTimestamp
	}
	if age > s.maxAge.Milliseconds() {
		return ErrTokenExpired
	}

	expected := signToken(token.CustomerID, token.SessionID, token.Timestamp, s.secret)
	if !hmac.Equal([]byte(expected), []byte(token.Signature)) {
		return ErrTokenInvalidSignature
	}

	first, err := s.replay.MarkUsed(ctx, token.Signature, s.maxAge)
	if err != nil {
		return fmt.Errorf("replay cache unavailable: %w", err)
	}
	if !first {
		return ErrTokenReplayed
	}

	return nil
}
