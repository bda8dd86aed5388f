package repository

import (
	"backend/internal/model"
	"context"

	"gorm.io/gorm"
)

// CashierRepository defines the interface for data access of staff accounts
type CashierRepository interface {
	Create(ctx context.Context, cashier *model.Cashier) error
	GetByID(ctx context.Context, id string) (*model.Cashier, error)
	GetByEmail(ctx context.Context, email string) (*model.Cashier, error)
	GetByUsername(ctx context.Context, username string) (*model.Cashier, error)
	List(ctx context.Context, page, limit int) ([]model.Cashier, int64, error)
	Update(ctx context.Context, cashier *model.Cashier) error
	Delete(ctx context.Context, id string) error
}

type cashierRepository struct {
	db *gorm.DB
}

func NewCashierRepository(db *gorm.DB) CashierRepository {
	return &cashierRepository{db: db}
}

func (r *cashierRepository) Create(ctx context.Context, cashier *model.Cashier) error {
	return GetDB(ctx, r.db).Create(cashier).Error
}

func (r *cashierRepository) GetByID(ctx context.Context, id string) (*model.Cashier, error) {
	var cashier model.Cashier
	if err := GetDB(ctx, r.db).First(&cashier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cashier, nil
}

func (r *cashierRepository) GetByEmail(ctx context.Context, email string) (*model.Cashier, error) {
	var cashier model.Cashier
	if err := GetDB(ctx, r.db).First(&cashier, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &cashier, nil
}

func (r *cashierRepository) GetByUsername(ctx context.Context, username string) (*model.Cashier, error) {
	var cashier model.Cashier
	if err := GetDB(ctx, r.db).First(&cashier, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &cashier, nil
}

func (r *cashierRepository) List(ctx context.Context, page, limit int) ([]model.Cashier, int64, error) {
	var cashiers []model.Cashier
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Cashier{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Offset(offset).Limit(limit).Find(&cashiers).Error; err != nil {
		return nil, 0, err
	}

	return cashiers, total, nil
}

func (r *cashierRepository) Update(ctx context.Context, cashier *model.Cashier) error {
	return GetDB(ctx, r.db).Save(cashier).Error
}

func (r *cashierRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Cashier{}).Error
}
