package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic update lost the race.
var ErrVersionConflict = errors.New("version conflict")

type EGiftRepository interface {
	Create(ctx context.Context, gift *model.EGift) error
	FindByCode(ctx context.Context, code string) (*model.EGift, error)
	// UpdateOptimistic persists balance/redeemed changes only if the row
	// version is unchanged since the gift was read. On success the version is
	// bumped; a lost race returns ErrVersionConflict.
	UpdateOptimistic(ctx context.Context, gift *model.EGift) error
	List(ctx context.Context, page, limit int) ([]model.EGift, int64, error)
}

type egiftRepository struct {
	db *gorm.DB
}

func NewEGiftRepository(db *gorm.DB) EGiftRepository {
	return &egiftRepository{db: db}
}

func (r *egiftRepository) Create(ctx context.Context, gift *model.EGift) error {
	return GetDB(ctx, r.db).Create(gift).Error
}

func (r *egiftRepository) FindByCode(ctx context.Context, code string) (*model.EGift, error) {
	var gift model.EGift
	if err := GetDB(ctx, r.db).First(&gift, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &gift, nil
}

func (r *egiftRepository) UpdateOptimistic(ctx context.Context, gift *model.EGift) error {
	res := GetDB(ctx, r.db).Model(&model.EGift{}).
		Where("id = ? AND version = ?", gift.ID, gift.Version).
		Updates(map[string]interface{}{
			"remaining_balance": gift.RemainingBalance,
			"redeemed":          gift.Redeemed,
			"redeemed_tx_id":    gift.RedeemedTxID,
			"version":           gift.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	gift.Version++
	return nil
}

func (r *egiftRepository) List(ctx context.Context, page, limit int) ([]model.EGift, int64, error) {
	var gifts []model.EGift
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.EGift{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&gifts).Error; err != nil {
		return nil, 0, err
	}

	return gifts, total, nil
}
