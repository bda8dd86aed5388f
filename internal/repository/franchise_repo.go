package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FranchiseRepository interface {
	Create(ctx context.Context, franchise *model.Franchise) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Franchise, error)
	FindByStoreID(ctx context.Context, storeID string) (*model.Franchise, error)
	List(ctx context.Context, page, limit int) ([]model.Franchise, int64, error)
	CreateCalculation(ctx context.Context, calc *model.RoyaltyCalculation) error
	FindCalculation(ctx context.Context, franchiseID uuid.UUID, period string) (*model.RoyaltyCalculation, error)
	ListCalculations(ctx context.Context, franchiseID uuid.UUID, page, limit int) ([]model.RoyaltyCalculation, int64, error)
}

type franchiseRepository struct {
	db *gorm.DB
}

func NewFranchiseRepository(db *gorm.DB) FranchiseRepository {
	return &franchiseRepository{db: db}
}

func (r *franchiseRepository) Create(ctx context.Context, franchise *model.Franchise) error {
	return GetDB(ctx, r.db).Create(franchise).Error
}

func (r *franchiseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Franchise, error) {
	var franchise model.Franchise
	if err := GetDB(ctx, r.db).First(&franchise, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &franchise, nil
}

func (r *franchiseRepository) FindByStoreID(ctx context.Context, storeID string) (*model.Franchise, error) {
	var franchise model.Franchise
	if err := GetDB(ctx, r.db).First(&franchise, "store_id = ?", storeID).Error; err != nil {
		return nil, err
	}
	return &franchise, nil
}

func (r *franchiseRepository) List(ctx context.Context, page, limit int) ([]model.Franchise, int64, error) {
	var franchises []model.Franchise
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Franchise{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&franchises).Error; err != nil {
		return nil, 0, err
	}

	return franchises, total, nil
}

func (r *franchiseRepository) CreateCalculation(ctx context.Context, calc *model.RoyaltyCalculation) error {
	return GetDB(ctx, r.db).Create(calc).Error
}

func (r *franchiseRepository) FindCalculation(ctx context.Context, franchiseID uuid.UUID, period string) (*model.RoyaltyCalculation, error) {
	var calc model.RoyaltyCalculation
	if err := GetDB(ctx, r.db).
		First(&calc, "franchise_id = ? AND period = ?", franchiseID, period).Error; err != nil {
		return nil, err
	}
	return &calc, nil
}

func (r *franchiseRepository) ListCalculations(ctx context.Context, franchiseID uuid.UUID, page, limit int) ([]model.RoyaltyCalculation, int64, error) {
	var calcs []model.RoyaltyCalculation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.RoyaltyCalculation{}).Where("franchise_id = ?", franchiseID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("period DESC").Offset(offset).Limit(limit).Find(&calcs).Error; err != nil {
		return nil, 0, err
	}

	return calcs, total, nil
}
