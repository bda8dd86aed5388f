package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/repository"
)

type fakeStatementRepo struct {
	// Embedded so only the aggregation queries need real bodies here.
	repository.TransactionRepository

	totals   repository.RevenueTotals
	rankings []model.FlavorRanking
	limit    int
}

func (r *fakeStatementRepo) SettledTotals(_ context.Context, _ string, _, _ time.Time) (repository.RevenueTotals, error) {
	return r.totals, nil
}

func (r *fakeStatementRepo) TopFlavors(_ context.Context, _ string, _, _ time.Time, limit int) ([]model.FlavorRanking, error) {
	r.limit = limit
	return r.rankings, nil
}

func TestGetRevenueStatement_AggregatesTotals(t *testing.T) {
	txRepo := &fakeStatementRepo{
		totals: repository.RevenueTotals{
			GrossRevenue: decimal.RequireFromString("1234.5"),
			TaxCollected: decimal.RequireFromString("112.23"),
			Discounts:    decimal.RequireFromString("50"),
			Count:        42,
		},
		rankings: []model.FlavorRanking{
			{FlavorCode: "VANILLA_BEAN", TotalGrams: 12000, TotalValue: "600.0000"},
			{FlavorCode: "PISTACHIO_ROYAL", TotalGrams: 4000, TotalValue: "300.0000"},
		},
	}
	svc := NewStatisticsService(txRepo, catalog.Default())

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	statement, err := svc.GetRevenueStatement(context.Background(), "ST-01", catalog.CountryAU, start, end)
	require.NoError(t, err)

	assert.Equal(t, "ST-01", statement.StoreID)
	assert.Equal(t, "AUD", statement.Currency)
	assert.Equal(t, "1234.5000", statement.GrossRevenue)
	assert.Equal(t, "112.2300", statement.TaxCollected)
	assert.Equal(t, "50.0000", statement.DiscountsGiven)
	assert.Equal(t, int64(42), statement.TransactionCount)
	assert.Len(t, statement.TopFlavors, 2)
	assert.Equal(t, "VANILLA_BEAN", statement.TopFlavors[0].FlavorCode)
	assert.Equal(t, topFlavorLimit, txRepo.limit)
	assert.Equal(t, start, statement.TimeRangeStartDate)
	assert.Equal(t, end, statement.TimeRangeEndDate)
}

func TestGetRevenueStatement_UnknownCountryLeavesCurrencyEmpty(t *testing.T) {
	svc := NewStatisticsService(&fakeStatementRepo{}, catalog.Default())

	statement, err := svc.GetRevenueStatement(context.Background(), "ST-01", "ZZ", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, statement.Currency)
	assert.Equal(t, "0.0000", statement.GrossRevenue)
}
