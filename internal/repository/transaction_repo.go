package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RevenueTotals holds the settled aggregates for one store over a range.
type RevenueTotals struct {
	GrossRevenue decimal.Decimal
	TaxCollected decimal.Decimal
	Discounts    decimal.Decimal
	Count        int64
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.PosTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PosTransaction, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, storeID string, page, limit int) ([]model.PosTransaction, int64, error)
	SettledTotals(ctx context.Context, storeID string, start, end time.Time) (RevenueTotals, error)
	TopFlavors(ctx context.Context, storeID string, start, end time.Time, limit int) ([]model.FlavorRanking, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.PosTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PosTransaction, error) {
	var tx model.PosTransaction
	if err := GetDB(ctx, r.db).Preload("Lines").First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.PosTransaction{}).Where("id = ?", id).Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return count > 0, nil
}

func (r *transactionRepository) List(ctx context.Context, storeID string, page, limit int) ([]model.PosTransaction, int64, error) {
	var txs []model.PosTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PosTransaction{})
	if storeID != "" {
		db = db.Where("store_id = ?", storeID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Lines").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *transactionRepository) SettledTotals(ctx context.Context, storeID string, start, end time.Time) (RevenueTotals, error) {
	type rawTotals struct {
		Gross     decimal.Decimal `gorm:"column:gross"`
		Tax       decimal.Decimal `gorm:"column:tax"`
		Discounts decimal.Decimal `gorm:"column:discounts"`
		Count     int64           `gorm:"column:cnt"`
	}

	var row rawTotals
	err := GetDB(ctx, r.db).Model(&model.PosTransaction{}).
		Select("COALESCE(SUM(total),0) AS gross, COALESCE(SUM(tax_amount),0) AS tax, COALESCE(SUM(discount_amount),0) AS discounts, COUNT(*) AS cnt").
		Where("store_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			storeID, model.TxStatusSettled, start, end).
		Scan(&row).Error
	if err != nil {
		return RevenueTotals{}, err
	}

	return RevenueTotals{
		GrossRevenue: row.Gross,
		TaxCollected: row.Tax,
		Discounts:    row.Discounts,
		Count:        row.Count,
	}, nil
}

func (r *transactionRepository) TopFlavors(ctx context.Context, storeID string, start, end time.Time, limit int) ([]model.FlavorRanking, error) {
	type rawRank struct {
		FlavorCode string          `gorm:"column:flavor_code"`
		TotalGrams int64           `gorm:"column:total_grams"`
		TotalValue decimal.Decimal `gorm:"column:total_value"`
	}

	var rows []rawRank
	err := GetDB(ctx, r.db).Table("transaction_lines").
		Select("transaction_lines.flavor_code, SUM(transaction_lines.grams) AS total_grams, SUM(transaction_lines.line_total) AS total_value").
		Joins("JOIN pos_transactions ON pos_transactions.id = transaction_lines.transaction_id").
		Where("pos_transactions.store_id = ? AND pos_transactions.status = ? AND pos_transactions.created_at >= ? AND pos_transactions.created_at < ?",
			storeID, model.TxStatusSettled, start, end).
		Group("transaction_lines.flavor_code").
		Order("total_grams DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ranks := make([]model.FlavorRanking, 0, len(rows))
	for _, row := range rows {
		ranks = append(ranks, model.FlavorRanking{
			FlavorCode: row.FlavorCode,
			TotalGrams: row.TotalGrams,
			TotalValue: row.TotalValue.StringFixed(4),
		})
	}
	return ranks, nil
}
