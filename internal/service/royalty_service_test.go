package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeFranchiseRepo struct {
	franchises map[uuid.UUID]*model.Franchise
	calcs      map[string]*model.RoyaltyCalculation // franchiseID|period
}

func newFakeFranchiseRepo() *fakeFranchiseRepo {
	return &fakeFranchiseRepo{
		franchises: make(map[uuid.UUID]*model.Franchise),
		calcs:      make(map[string]*model.RoyaltyCalculation),
	}
}

func (r *fakeFranchiseRepo) Create(_ context.Context, franchise *model.Franchise) error {
	franchise.ID = uuid.New()
	copied := *franchise
	r.franchises[franchise.ID] = &copied
	return nil
}

func (r *fakeFranchiseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Franchise, error) {
	f, ok := r.franchises[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f
	return &copied, nil
}

func (r *fakeFranchiseRepo) FindByStoreID(_ context.Context, storeID string) (*model.Franchise, error) {
	for _, f := range r.franchises {
		if f.StoreID == storeID {
			copied := *f
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFranchiseRepo) List(_ context.Context, _, _ int) ([]model.Franchise, int64, error) {
	out := make([]model.Franchise, 0, len(r.franchises))
	for _, f := range r.franchises {
		out = append(out, *f)
	}
	return out, int64(len(out)), nil
}

func (r *fakeFranchiseRepo) CreateCalculation(_ context.Context, calc *model.RoyaltyCalculation) error {
	calc.ID = uuid.New()
	copied := *calc
	r.calcs[calc.FranchiseID.String()+"|"+calc.Period] = &copied
	return nil
}

func (r *fakeFranchiseRepo) FindCalculation(_ context.Context, franchiseID uuid.UUID, period string) (*model.RoyaltyCalculation, error) {
	c, ok := r.calcs[franchiseID.String()+"|"+period]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeFranchiseRepo) ListCalculations(_ context.Context, franchiseID uuid.UUID, _, _ int) ([]model.RoyaltyCalculation, int64, error) {
	var out []model.RoyaltyCalculation
	for _, c := range r.calcs {
		if c.FranchiseID == franchiseID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

type fakeTxTotalsRepo struct {
	// Embedded so only SettledTotals needs a real body here.
	repository.TransactionRepository

	totals       repository.RevenueTotals
	settledCalls int
}

func (r *fakeTxTotalsRepo) SettledTotals(_ context.Context, _ string, _, _ time.Time) (repository.RevenueTotals, error) {
	r.settledCalls++
	return r.totals, nil
}

func testFranchise() *model.Franchise {
	return &model.Franchise{
		ID:                uuid.New(),
		Name:              "Gelato Bondi",
		StoreID:           "ST-01",
		Country:           catalog.CountryAU,
		Currency:          "AUD",
		RoyaltyPercent:    decimal.RequireFromString("6"),
		MarketingPercent:  decimal.RequireFromString("2"),
		TechnologyPercent: decimal.RequireFromString("1.5"),
		Active:            true,
	}
}

func TestComputeRoyalty_FeeBreakdown(t *testing.T) {
	calc, err := ComputeRoyalty(testFranchise(), decimal.RequireFromString("10000.00"), "2026-02", 2)
	require.NoError(t, err)

	assert.Equal(t, "600.00", calc.RoyaltyAmount.StringFixed(2))
	assert.Equal(t, "200.00", calc.MarketingFee.StringFixed(2))
	assert.Equal(t, "150.00", calc.TechnologyFee.StringFixed(2))
	assert.Equal(t, "950.00", calc.TotalDue.StringFixed(2))
	assert.Equal(t, "AUD", calc.Currency)
}

func TestComputeRoyalty_RoundsPerFee(t *testing.T) {
	// Each fee rounds to minor units before summing.
	franchise := testFranchise()
	franchise.RoyaltyPercent = decimal.RequireFromString("3.333")

	calc, err := ComputeRoyalty(franchise, decimal.RequireFromString("100.00"), "2026-02", 2)
	require.NoError(t, err)
	assert.Equal(t, "3.33", calc.RoyaltyAmount.StringFixed(2))
}

func TestComputeRoyalty_ZeroRevenue(t *testing.T) {
	calc, err := ComputeRoyalty(testFranchise(), decimal.Zero, "2026-02", 2)
	require.NoError(t, err)
	assert.True(t, calc.TotalDue.IsZero())
}

func TestComputeRoyalty_NegativeRevenueRejected(t *testing.T) {
	_, err := ComputeRoyalty(testFranchise(), decimal.RequireFromString("-1"), "2026-02", 2)
	assert.ErrorIs(t, err, ErrNegativeRevenue)
}

func TestRunPeriod_IdempotentPerPeriod(t *testing.T) {
	franchiseRepo := newFakeFranchiseRepo()
	franchise := testFranchise()
	franchiseRepo.franchises[franchise.ID] = franchise
	txRepo := &fakeTxTotalsRepo{totals: repository.RevenueTotals{GrossRevenue: decimal.RequireFromString("10000")}}

	svc := NewRoyaltyService(franchiseRepo, txRepo, nil, catalog.Default())

	first, err := svc.RunPeriod(context.Background(), franchise.ID.String(), "2026-02", "")
	require.NoError(t, err)
	assert.Equal(t, "950.0000", first.TotalDue)

	// Second run returns the stored result without touching revenue again.
	second, err := svc.RunPeriod(context.Background(), franchise.ID.String(), "2026-02", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, txRepo.settledCalls)
}

func TestRunPeriod_RejectsBadPeriod(t *testing.T) {
	franchiseRepo := newFakeFranchiseRepo()
	franchise := testFranchise()
	franchiseRepo.franchises[franchise.ID] = franchise
	svc := NewRoyaltyService(franchiseRepo, &fakeTxTotalsRepo{}, nil, catalog.Default())

	_, err := svc.RunPeriod(context.Background(), franchise.ID.String(), "February 2026", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM")
}

func TestCreateFranchise_ValidatesPercents(t *testing.T) {
	svc := NewRoyaltyService(newFakeFranchiseRepo(), &fakeTxTotalsRepo{}, nil, catalog.Default())

	_, err := svc.CreateFranchise(context.Background(), CreateFranchiseRequest{
		Name: "X", StoreID: "ST-02", Country: catalog.CountryAU,
		RoyaltyPercent: "101", MarketingPercent: "2", TechnologyPercent: "1",
	}, "")
	require.Error(t, err)

	_, err = svc.CreateFranchise(context.Background(), CreateFranchiseRequest{
		Name: "X", StoreID: "ST-02", Country: "ZZ",
		RoyaltyPercent: "6", MarketingPercent: "2", TechnologyPercent: "1",
	}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnknownRegion)

	res, err := svc.CreateFranchise(context.Background(), CreateFranchiseRequest{
		Name: "X", StoreID: "ST-02", Country: catalog.CountryKW,
		RoyaltyPercent: "6", MarketingPercent: "2", TechnologyPercent: "1",
	}, "")
	require.NoError(t, err)
	// Currency derives from the catalog, not the request.
	assert.Equal(t, "KWD", res.Currency)
}
