package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoyaltyRepository interface {
	GetOrCreate(ctx context.Context, customerID uuid.UUID) (*model.LoyaltyAccount, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*model.LoyaltyAccount, error)
	// UpdateOptimistic persists balance/tier changes guarded by the row
	// version; a lost race returns ErrVersionConflict.
	UpdateOptimistic(ctx context.Context, account *model.LoyaltyAccount) error
}

type loyaltyRepository struct {
	db *gorm.DB
}

func NewLoyaltyRepository(db *gorm.DB) LoyaltyRepository {
	return &loyaltyRepository{db: db}
}

func (r *loyaltyRepository) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*model.LoyaltyAccount, error) {
	account, err := r.FindByCustomer(ctx, customerID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = &model.LoyaltyAccount{
		CustomerID: customerID,
		Tier:       model.TierStandard,
	}
	if err := GetDB(ctx, r.db).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *loyaltyRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*model.LoyaltyAccount, error) {
	var account model.LoyaltyAccount
	if err := GetDB(ctx, r.db).First(&account, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *loyaltyRepository) UpdateOptimistic(ctx context.Context, account *model.LoyaltyAccount) error {
	res := GetDB(ctx, r.db).Model(&model.LoyaltyAccount{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"points_balance":  account.PointsBalance,
			"lifetime_points": account.LifetimePoints,
			"tier":            account.Tier,
			"version":         account.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	account.Version++
	return nil
}
