package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNegativeRevenue rejects royalty runs over a negative gross figure.
var ErrNegativeRevenue = errors.New("gross revenue must not be negative")

var oneHundred = decimal.NewFromInt(100)

// ComputeRoyalty is the pure fee computation: each fee is grossRevenue ×
// percent/100 rounded to the currency's minor units; totalDue is their sum.
func ComputeRoyalty(franchise *model.Franchise, grossRevenue decimal.Decimal, period string, minorUnits int32) (model.RoyaltyCalculation, error) {
	if grossRevenue.IsNegative() {
		return model.RoyaltyCalculation{}, ErrNegativeRevenue
	}

	fee := func(percent decimal.Decimal) decimal.Decimal {
		return grossRevenue.Mul(percent).Div(oneHundred).Round(minorUnits)
	}

	royalty := fee(franchise.RoyaltyPercent)
	marketing := fee(franchise.MarketingPercent)
	technology := fee(franchise.TechnologyPercent)

	return model.RoyaltyCalculation{
		FranchiseID:   franchise.ID,
		Period:        period,
		GrossRevenue:  grossRevenue,
		RoyaltyAmount: royalty,
		MarketingFee:  marketing,
		TechnologyFee: technology,
		TotalDue:      royalty.Add(marketing).Add(technology),
		Currency:      franchise.Currency,
	}, nil
}

// --- DTOs ---

type CreateFranchiseRequest struct {
	Name              string `json:"name" binding:"required"`
	StoreID           string `json:"store_id" binding:"required"`
	Country           string `json:"country" binding:"required,len=2"`
	RoyaltyPercent    string `json:"royalty_percent" binding:"required"`
	MarketingPercent  string `json:"marketing_percent" binding:"required"`
	TechnologyPercent string `json:"technology_percent" binding:"required"`
}

type FranchiseResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	StoreID           string `json:"store_id"`
	Country           string `json:"country"`
	Currency          string `json:"currency"`
	RoyaltyPercent    string `json:"royalty_percent"`
	MarketingPercent  string `json:"marketing_percent"`
	TechnologyPercent string `json:"technology_percent"`
}

type RoyaltyCalculationResponse struct {
	ID            string `json:"id"`
	FranchiseID   string `json:"franchise_id"`
	Period        string `json:"period"`
	GrossRevenue  string `json:"gross_revenue"`
	RoyaltyAmount string `json:"royalty_amount"`
	MarketingFee  string `json:"marketing_fee"`
	TechnologyFee string `json:"technology_fee"`
	TotalDue      string `json:"total_due"`
	Currency      string `json:"currency"`
	CalculatedAt  string `json:"calculated_at"`
}

// --- Interface ---

type RoyaltyService interface {
	CreateFranchise(ctx context.Context, req CreateFranchiseRequest, userID string) (FranchiseResponse, error)
	ListFranchises(ctx context.Context, page, limit int) ([]FranchiseResponse, int64, error)
	// RunPeriod settles one YYYY-MM period for a franchise from its store's
	// settled revenue. Re-running a settled period returns the stored run.
	RunPeriod(ctx context.Context, franchiseID, period string, userID string) (RoyaltyCalculationResponse, error)
	ListCalculations(ctx context.Context, franchiseID string, page, limit int) ([]RoyaltyCalculationResponse, int64, error)
}

type royaltyService struct {
	franchiseRepo repository.FranchiseRepository
	txRepo        repository.TransactionRepository
	auditRepo     repository.AuditRepository
	catalog       *catalog.Catalog
	now           func() time.Time
}

func NewRoyaltyService(franchiseRepo repository.FranchiseRepository, txRepo repository.TransactionRepository, auditRepo repository.AuditRepository, cat *catalog.Catalog) RoyaltyService {
	return &royaltyService{
		franchiseRepo: franchiseRepo,
		txRepo:        txRepo,
		auditRepo:     auditRepo,
		catalog:       cat,
		now:           time.Now,
	}
}

// --- Implementation ---

func (s *royaltyService) CreateFranchise(ctx context.Context, req CreateFranchiseRequest, userID string) (FranchiseResponse, error) {
	royalty, err := parsePercent("royalty_percent", req.RoyaltyPercent)
	if err != nil {
		return FranchiseResponse{}, err
	}
	marketing, err := parsePercent("marketing_percent", req.MarketingPercent)
	if err != nil {
		return FranchiseResponse{}, err
	}
	technology, err := parsePercent("technology_percent", req.TechnologyPercent)
	if err != nil {
		return FranchiseResponse{}, err
	}

	region, err := s.catalog.Resolve(req.Country, false)
	if err != nil {
		return FranchiseResponse{}, fmt.Errorf("unknown franchise country %s: %w", req.Country, err)
	}

	franchise := model.Franchise{
		Name:              req.Name,
		StoreID:           req.StoreID,
		Country:           req.Country,
		Currency:          region.Currency,
		RoyaltyPercent:    royalty,
		MarketingPercent:  marketing,
		TechnologyPercent: technology,
		Active:            true,
	}

	if err := s.franchiseRepo.Create(ctx, &franchise); err != nil {
		return FranchiseResponse{}, fmt.Errorf("failed to create franchise: %w", err)
	}

	return toFranchiseResponse(franchise), nil
}

func (s *royaltyService) ListFranchises(ctx context.Context, page, limit int) ([]FranchiseResponse, int64, error) {
	franchises, total, err := s.franchiseRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]FranchiseResponse, 0, len(franchises))
	for _, f := range franchises {
		res = append(res, toFranchiseResponse(f))
	}
	return res, total, nil
}

func (s *royaltyService) RunPeriod(ctx context.Context, franchiseID, period string, userID string) (RoyaltyCalculationResponse, error) {
	id, err := uuid.Parse(franchiseID)
	if err != nil {
		return RoyaltyCalculationResponse{}, fmt.Errorf("invalid franchise id: %w", err)
	}

	start, err := time.Parse("2006-01", period)
	if err != nil {
		return RoyaltyCalculationResponse{}, fmt.Errorf("invalid period (expected YYYY-MM): %w", err)
	}
	end := start.AddDate(0, 1, 0)

	franchise, err := s.franchiseRepo.FindByID(ctx, id)
	if err != nil {
		return RoyaltyCalculationResponse{}, fmt.Errorf("franchise not found: %w", err)
	}

	// Idempotent per (franchise, period).
	if existing, err := s.franchiseRepo.FindCalculation(ctx, id, period); err == nil {
		return toCalculationResponse(*existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return RoyaltyCalculationResponse{}, fmt.Errorf("failed to check existing calculation: %w", err)
	}

	totals, err := s.txRepo.SettledTotals(ctx, franchise.StoreID, start, end)
	if err != nil {
		return RoyaltyCalculationResponse{}, fmt.Errorf("failed to aggregate settled revenue: %w", err)
	}

	minorUnits := int32(2)
	if region, rErr := s.catalog.Resolve(franchise.Country, false); rErr == nil {
		minorUnits = region.MinorUnits
	}

	calc, err := ComputeRoyalty(franchise, totals.GrossRevenue, period, minorUnits)
	if err != nil {
		return RoyaltyCalculationResponse{}, err
	}
	calc.CalculatedAt = s.now()

	if err := s.franchiseRepo.CreateCalculation(ctx, &calc); err != nil {
		return RoyaltyCalculationResponse{}, fmt.Errorf("failed to store royalty calculation: %w", err)
	}

	writeAudit(ctx, s.auditRepo, userID, model.ActionRoyaltyRun, calc.ID.String(), franchise.Name, map[string]string{
		"period":    period,
		"total_due": calc.TotalDue.StringFixed(4),
	})

	return toCalculationResponse(calc), nil
}

func (s *royaltyService) ListCalculations(ctx context.Context, franchiseID string, page, limit int) ([]RoyaltyCalculationResponse, int64, error) {
	id, err := uuid.Parse(franchiseID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid franchise id: %w", err)
	}

	calcs, total, err := s.franchiseRepo.ListCalculations(ctx, id, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]RoyaltyCalculationResponse, 0, len(calcs))
	for _, c := range calcs {
		res = append(res, toCalculationResponse(c))
	}
	return res, total, nil
}

func parsePercent(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", field, err)
	}
	if d.IsNegative() || d.GreaterThan(oneHundred) {
		return decimal.Zero, fmt.Errorf("%s must be between 0 and 100", field)
	}
	return d, nil
}

func toFranchiseResponse(f model.Franchise) FranchiseResponse {
	return FranchiseResponse{
		ID:                f.ID.String(),
		Name:              f.Name,
		StoreID:           f.StoreID,
		Country:           f.Country,
		Currency:          f.Currency,
		RoyaltyPercent:    f.RoyaltyPercent.StringFixed(3),
		MarketingPercent:  f.MarketingPercent.StringFixed(3),
		TechnologyPercent: f.TechnologyPercent.StringFixed(3),
	}
}

func toCalculationResponse(c model.RoyaltyCalculation) RoyaltyCalculationResponse {
	return RoyaltyCalculationResponse{
		ID:            c.ID.String(),
		FranchiseID:   c.FranchiseID.String(),
		Period:        c.Period,
		GrossRevenue:  c.GrossRevenue.StringFixed(4),
		RoyaltyAmount: c.RoyaltyAmount.StringFixed(4),
		MarketingFee:  c.MarketingFee.StringFixed(4),
		TechnologyFee: c.TechnologyFee.StringFixed(4),
		TotalDue:      c.TotalDue.StringFixed(4),
		Currency:      c.Currency,
		CalculatedAt:  c.CalculatedAt.Format(time.RFC3339),
	}
}
