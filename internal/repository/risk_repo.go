package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type RiskRepository interface {
	Create(ctx context.Context, assessment *model.RiskAssessment) error
	List(ctx context.Context, storeID string, page, limit int) ([]model.RiskAssessment, int64, error)
}

type riskRepository struct {
	db *gorm.DB
}

func NewRiskRepository(db *gorm.DB) RiskRepository {
	return &riskRepository{db: db}
}

func (r *riskRepository) Create(ctx context.Context, assessment *model.RiskAssessment) error {
	return GetDB(ctx, r.db).Create(assessment).Error
}

func (r *riskRepository) List(ctx context.Context, storeID string, page, limit int) ([]model.RiskAssessment, int64, error) {
	var assessments []model.RiskAssessment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.RiskAssessment{})
	if storeID != "" {
		db = db.Where("store_id = ?", storeID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&assessments).Error; err != nil {
		return nil, 0, err
	}

	return assessments, total, nil
}
