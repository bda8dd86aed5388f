package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Offline eligibility block reasons.
const (
	OfflineBlockTimeLimit  = "TIME_LIMIT"
	OfflineBlockBufferFull = "BUFFER_FULL"
)

var (
	// ErrOfflineLimitExceeded blocks new offline captures; the register must
	// show a hard stop rather than drop the sale silently.
	ErrOfflineLimitExceeded = errors.New("offline operation limit exceeded")
	// ErrSyncInProgress reports a second sync worker racing for a device.
	ErrSyncInProgress = errors.New("sync already running for device")
)

// CanOperateOffline re-evaluates both offline bounds. Never cache the result:
// the time window moves with every call.
func CanOperateOffline(lastOnlineAt, now time.Time, bufferedCount int64) (bool, string) {
	if now.Sub(lastOnlineAt) > model.OfflineMaxWindow {
		return false, OfflineBlockTimeLimit
	}
	if bufferedCount >= model.OfflineMaxBuffered {
		return false, OfflineBlockBufferFull
	}
	return true, ""
}

// TransactionSubmitter is the sync target: it must be idempotent by
// transaction id, since retries may resend an already-applied transaction.
type TransactionSubmitter interface {
	Submit(ctx context.Context, tx *model.OfflineTransaction) (duplicate bool, err error)
}

// --- DTOs ---

type OfflineCaptureRequest struct {
	ID           string          `json:"id" binding:"required,uuid"` // client-generated, idempotency key
	StoreID      string          `json:"store_id" binding:"required"`
	DeviceID     string          `json:"device_id" binding:"required"`
	LastOnlineAt time.Time       `json:"last_online_at" binding:"required"`
	CapturedAt   time.Time       `json:"captured_at" binding:"required"`
	Snapshot     json.RawMessage `json:"snapshot" binding:"required"` // priced transaction record
}

type OfflineTxResponse struct {
	ID           string `json:"id"`
	StoreID      string `json:"store_id"`
	DeviceID     string `json:"device_id"`
	SyncStatus   string `json:"sync_status"`
	SyncAttempts int    `json:"sync_attempts"`
	LastError    string `json:"last_error,omitempty"`
	CapturedAt   string `json:"captured_at"`
	SyncedAt     string `json:"synced_at,omitempty"`
}

type EligibilityResponse struct {
	Allowed       bool   `json:"allowed"`
	Reason        string `json:"reason,omitempty"`
	BufferedCount int64  `json:"buffered_count"`
	BufferLimit   int    `json:"buffer_limit"`
	WindowSeconds int    `json:"window_seconds"`
}

type SyncReport struct {
	DeviceID string `json:"device_id"`
	Synced   int    `json:"synced"`
	Failed   int    `json:"failed"`
	Skipped  int    `json:"skipped"` // duplicates already applied upstream
	Aborted  bool   `json:"aborted"` // context cancelled mid-batch
}

type syncEvent struct {
	Event    string `json:"event"`
	DeviceID string `json:"device_id"`
	TxID     string `json:"tx_id,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// --- Interface ---

type OfflineService interface {
	Eligibility(ctx context.Context, deviceID string, lastOnlineAt time.Time) (EligibilityResponse, error)
	// Capture buffers a transaction taken without connectivity. Re-capturing
	// an id already buffered returns the stored record unchanged.
	Capture(ctx context.Context, req OfflineCaptureRequest) (OfflineTxResponse, error)
	// SyncDevice drains the device's buffer in original capture order. Only
	// one worker may drain a given device at a time.
	SyncDevice(ctx context.Context, deviceID string) (SyncReport, error)
	ListFailed(ctx context.Context, storeID string, page, limit int) ([]OfflineTxResponse, int64, error)
}

type offlineService struct {
	repo      repository.OfflineRepository
	submitter TransactionSubmitter
	auditRepo repository.AuditRepository
	hub       *ws.Hub

	deviceLocks sync.Map // deviceID -> *sync.Mutex
	backoff     func(attempt int) time.Duration
	now         func() time.Time
}

func NewOfflineService(repo repository.OfflineRepository, submitter TransactionSubmitter, auditRepo repository.AuditRepository, hub *ws.Hub) OfflineService {
	return &offlineService{
		repo:      repo,
		submitter: submitter,
		auditRepo: auditRepo,
		hub:       hub,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
		},
		now: time.Now,
	}
}

// --- Implementation ---

func (s *offlineService) Eligibility(ctx context.Context, deviceID string, lastOnlineAt time.Time) (EligibilityResponse, error) {
	buffered, err := s.repo.CountBuffered(ctx, deviceID)
	if err != nil {
		return EligibilityResponse{}, fmt.Errorf("failed to count buffered transactions: %w", err)
	}

	allowed, reason := CanOperateOffline(lastOnlineAt, s.now(), buffered)
	return EligibilityResponse{
		Allowed:       allowed,
		Reason:        reason,
		BufferedCount: buffered,
		BufferLimit:   model.OfflineMaxBuffered,
		WindowSeconds: int(model.OfflineMaxWindow.Seconds()),
	}, nil
}

func (s *offlineService) Capture(ctx context.Context, req OfflineCaptureRequest) (OfflineTxResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return OfflineTxResponse{}, fmt.Errorf("invalid transaction id: %w", err)
	}

	// Idempotent re-capture: the terminal may retry after a local crash.
	if existing, err := s.repo.FindByID(ctx, id); err == nil {
		return toOfflineResponse(*existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return OfflineTxResponse{}, fmt.Errorf("failed to check for existing capture: %w", err)
	}

	buffered, err := s.repo.CountBuffered(ctx, req.DeviceID)
	if err != nil {
		return OfflineTxResponse{}, fmt.Errorf("failed to count buffered transactions: %w", err)
	}
	if allowed, reason := CanOperateOffline(req.LastOnlineAt, s.now(), buffered); !allowed {
		return OfflineTxResponse{}, fmt.Errorf("%w: %s", ErrOfflineLimitExceeded, reason)
	}

	tx := model.OfflineTransaction{
		ID:         id,
		StoreID:    req.StoreID,
		DeviceID:   req.DeviceID,
		Payload:    string(req.Snapshot),
		SyncStatus: model.SyncPending,
		CapturedAt: req.CapturedAt,
	}
	if err := s.repo.Create(ctx, &tx); err != nil {
		return OfflineTxResponse{}, fmt.Errorf("failed to buffer offline transaction: %w", err)
	}

	writeAudit(ctx, s.auditRepo, "", model.ActionOfflineCapture, tx.ID.String(), tx.DeviceID, map[string]string{
		"store_id": tx.StoreID,
	})

	return toOfflineResponse(tx), nil
}

func (s *offlineService) SyncDevice(ctx context.Context, deviceID string) (SyncReport, error) {
	lockAny, _ := s.deviceLocks.LoadOrStore(deviceID, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	if !lock.TryLock() {
		return SyncReport{}, ErrSyncInProgress
	}
	defer lock.Unlock()

	pending, err := s.repo.ListPendingInOrder(ctx, deviceID)
	if err != nil {
		return SyncReport{}, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	report := SyncReport{DeviceID: deviceID}
	for i := range pending {
		if ctx.Err() != nil {
			// Abort cleanly between transactions; nothing is half-applied.
			report.Aborted = true
			break
		}
		s.syncOne(ctx, &pending[i], &report)
	}

	s.broadcast(syncEvent{Event: "device_synced", DeviceID: deviceID,
		Detail: fmt.Sprintf("synced=%d failed=%d skipped=%d", report.Synced, report.Failed, report.Skipped)})

	return report, nil
}

func (s *offlineService) syncOne(ctx context.Context, tx *model.OfflineTransaction, report *SyncReport) {
	attempts := tx.SyncAttempts

	// A crash between marking a row SYNCING and recording the outcome can
	// leave it with its retries already spent. Park it as FAILED so it
	// reaches the reconciliation queue instead of blocking the buffer.
	if attempts >= model.OfflineMaxSyncRetries {
		cause := tx.LastError
		if cause == "" {
			cause = "sync retries exhausted"
		}
		s.markFailed(ctx, tx, attempts, cause, report)
		return
	}

	for attempts < model.OfflineMaxSyncRetries {
		attempts++
		if err := s.repo.UpdateStatus(ctx, tx.ID, model.SyncSyncing, attempts, ""); err != nil {
			log.Printf("offline sync: failed to mark %s SYNCING: %v", tx.ID, err)
		}

		duplicate, err := s.submitter.Submit(ctx, tx)
		if err == nil {
			if err := s.repo.MarkSynced(ctx, tx.ID, attempts, s.now()); err != nil {
				log.Printf("offline sync: failed to mark %s SYNCED: %v", tx.ID, err)
			}
			if duplicate {
				report.Skipped++
			} else {
				report.Synced++
			}
			return
		}

		if attempts >= model.OfflineMaxSyncRetries || ctx.Err() != nil {
			s.markFailed(ctx, tx, attempts, err.Error(), report)
			return
		}

		select {
		case <-ctx.Done():
			// Leave the row SYNCING with its attempt count; the next worker
			// run resumes from here.
			report.Aborted = true
			return
		case <-time.After(s.backoff(attempts)):
		}
	}
}

func (s *offlineService) markFailed(ctx context.Context, tx *model.OfflineTransaction, attempts int, cause string, report *SyncReport) {
	if err := s.repo.UpdateStatus(ctx, tx.ID, model.SyncFailed, attempts, cause); err != nil {
		log.Printf("offline sync: failed to mark %s FAILED: %v", tx.ID, err)
	}
	report.Failed++
	writeAudit(ctx, s.auditRepo, "", model.ActionOfflineSyncFail, tx.ID.String(), tx.DeviceID, map[string]string{
		"error": cause,
	})
	s.broadcast(syncEvent{Event: "sync_failed", DeviceID: tx.DeviceID, TxID: tx.ID.String(), Detail: cause})
}

func (s *offlineService) ListFailed(ctx context.Context, storeID string, page, limit int) ([]OfflineTxResponse, int64, error) {
	txs, total, err := s.repo.ListFailed(ctx, storeID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]OfflineTxResponse, 0, len(txs))
	for _, tx := range txs {
		res = append(res, toOfflineResponse(tx))
	}
	return res, total, nil
}

func (s *offlineService) broadcast(event syncEvent) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

func toOfflineResponse(tx model.OfflineTransaction) OfflineTxResponse {
	res := OfflineTxResponse{
		ID:           tx.ID.String(),
		StoreID:      tx.StoreID,
		DeviceID:     tx.DeviceID,
		SyncStatus:   tx.SyncStatus,
		SyncAttempts: tx.SyncAttempts,
		LastError:    tx.LastError,
		CapturedAt:   tx.CapturedAt.Format(time.RFC3339),
	}
	if tx.SyncedAt != nil {
		res.SyncedAt = tx.SyncedAt.Format(time.RFC3339)
	}
	return res
}
