package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/repository"
)

const topFlavorLimit = 5

type StatisticsService interface {
	GetRevenueStatement(ctx context.Context, storeID, country string, startDate, endDate time.Time) (model.RevenueStatement, error)
}

type statisticsService struct {
	txRepo  repository.TransactionRepository
	catalog *catalog.Catalog
}

func NewStatisticsService(txRepo repository.TransactionRepository, cat *catalog.Catalog) StatisticsService {
	return &statisticsService{txRepo: txRepo, catalog: cat}
}

// GetRevenueStatement aggregates settled sales for one store into a statement
// covering the given time range.
func (s *statisticsService) GetRevenueStatement(ctx context.Context, storeID, country string, startDate, endDate time.Time) (model.RevenueStatement, error) {
	statement := model.RevenueStatement{
		StoreID:            storeID,
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	if region, err := s.catalog.Resolve(country, false); err == nil {
		statement.Currency = region.Currency
	}

	totals, err := s.txRepo.SettledTotals(ctx, storeID, startDate, endDate)
	if err != nil {
		return model.RevenueStatement{}, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	statement.GrossRevenue = totals.GrossRevenue.StringFixed(4)
	statement.TaxCollected = totals.TaxCollected.StringFixed(4)
	statement.DiscountsGiven = totals.Discounts.StringFixed(4)
	statement.TransactionCount = totals.Count

	rankings, err := s.txRepo.TopFlavors(ctx, storeID, startDate, endDate, topFlavorLimit)
	if err != nil {
		return model.RevenueStatement{}, fmt.Errorf("failed to rank flavors: %w", err)
	}
	statement.TopFlavors = rankings

	return statement, nil
}
