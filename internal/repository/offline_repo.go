package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfflineRepository interface {
	Create(ctx context.Context, tx *model.OfflineTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OfflineTransaction, error)
	CountBuffered(ctx context.Context, deviceID string) (int64, error)
	ListPendingInOrder(ctx context.Context, deviceID string) ([]model.OfflineTransaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, attempts int, lastError string) error
	MarkSynced(ctx context.Context, id uuid.UUID, attempts int, at time.Time) error
	ListFailed(ctx context.Context, storeID string, page, limit int) ([]model.OfflineTransaction, int64, error)
}

type offlineRepository struct {
	db *gorm.DB
}

func NewOfflineRepository(db *gorm.DB) OfflineRepository {
	return &offlineRepository{db: db}
}

func (r *offlineRepository) Create(ctx context.Context, tx *model.OfflineTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *offlineRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.OfflineTransaction, error) {
	var tx model.OfflineTransaction
	if err := GetDB(ctx, r.db).First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// CountBuffered counts transactions still awaiting a terminal state for one
// device. FAILED rows are excluded: they are in the operator queue, not the
// replay buffer.
func (r *offlineRepository) CountBuffered(ctx context.Context, deviceID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.OfflineTransaction{}).
		Where("device_id = ? AND sync_status IN ?", deviceID, []string{model.SyncPending, model.SyncSyncing}).
		Count(&count).Error
	return count, err
}

// ListPendingInOrder returns the replay queue in original capture order.
func (r *offlineRepository) ListPendingInOrder(ctx context.Context, deviceID string) ([]model.OfflineTransaction, error) {
	var txs []model.OfflineTransaction
	err := GetDB(ctx, r.db).
		Where("device_id = ? AND sync_status IN ?", deviceID, []string{model.SyncPending, model.SyncSyncing}).
		Order("captured_at ASC").
		Find(&txs).Error
	return txs, err
}

func (r *offlineRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, attempts int, lastError string) error {
	return GetDB(ctx, r.db).Model(&model.OfflineTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sync_status":   status,
			"sync_attempts": attempts,
			"last_error":    lastError,
		}).Error
}

func (r *offlineRepository) MarkSynced(ctx context.Context, id uuid.UUID, attempts int, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.OfflineTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sync_status":   model.SyncSynced,
			"sync_attempts": attempts,
			"last_error":    "",
			"synced_at":     at,
		}).Error
}

func (r *offlineRepository) ListFailed(ctx context.Context, storeID string, page, limit int) ([]model.OfflineTransaction, int64, error) {
	var txs []model.OfflineTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.OfflineTransaction{}).Where("sync_status = ?", model.SyncFailed)
	if storeID != "" {
		db = db.Where("store_id = ?", storeID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("captured_at ASC").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
