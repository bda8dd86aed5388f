package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tier multipliers and ascending lifetime-point thresholds.
var tierMultipliers = map[string]decimal.Decimal{
	model.TierStandard: decimal.NewFromFloat(1.0),
	model.TierGold:     decimal.NewFromFloat(1.1),
	model.TierPlatinum: decimal.NewFromFloat(1.25),
	model.TierDiamond:  decimal.NewFromFloat(1.5),
}

const (
	goldThreshold     = 5_000
	platinumThreshold = 20_000
	diamondThreshold  = 50_000
)

// PointsAward is the result of the accrual computation for one order.
type PointsAward struct {
	BasePoints  int64
	Multiplier  decimal.Decimal
	BoostFactor decimal.Decimal // average of (loyaltyBoostFactor-1) across lines
	FinalPoints int64
}

// AwardPoints computes loyalty accrual: one point per gram, scaled by the
// customer's tier multiplier and the average flavor boost across lines.
// Rounding is half-up.
func AwardPoints(tier string, totalGrams int64, flavors []*catalog.Flavor) PointsAward {
	multiplier, ok := tierMultipliers[tier]
	if !ok {
		multiplier = tierMultipliers[model.TierStandard]
	}

	boost := decimal.Zero
	if len(flavors) > 0 {
		sum := decimal.Zero
		one := decimal.NewFromInt(1)
		for _, f := range flavors {
			if f != nil && f.LoyaltyBoostFactor.IsPositive() {
				sum = sum.Add(f.LoyaltyBoostFactor.Sub(one))
			}
		}
		boost = sum.Div(decimal.NewFromInt(int64(len(flavors))))
	}

	base := decimal.NewFromInt(totalGrams)
	final := base.Mul(multiplier).Mul(decimal.NewFromInt(1).Add(boost)).Round(0)

	return PointsAward{
		BasePoints:  totalGrams,
		Multiplier:  multiplier,
		BoostFactor: boost,
		FinalPoints: final.IntPart(),
	}
}

// DetermineTier maps lifetime points onto the tier ladder. Monotonic: more
// points never yields a lower tier.
func DetermineTier(lifetimePoints int64) string {
	switch {
	case lifetimePoints >= diamondThreshold:
		return model.TierDiamond
	case lifetimePoints >= platinumThreshold:
		return model.TierPlatinum
	case lifetimePoints >= goldThreshold:
		return model.TierGold
	default:
		return model.TierStandard
	}
}

// --- DTOs ---

type LoyaltyAccountResponse struct {
	CustomerID     string `json:"customer_id"`
	PointsBalance  int64  `json:"points_balance"`
	LifetimePoints int64  `json:"lifetime_points"`
	Tier           string `json:"tier"`
}

type AccrualResult struct {
	BasePoints  int64  `json:"base_points"`
	Multiplier  string `json:"multiplier"`
	BoostFactor string `json:"boost_factor"`
	FinalPoints int64  `json:"final_points"`
	NewBalance  int64  `json:"new_balance"`
	Tier        string `json:"tier"`
}

// --- Interface ---

type LoyaltyService interface {
	GetAccount(ctx context.Context, customerID string) (*LoyaltyAccountResponse, error)
	// Accrue applies an order's points to the account, serialized per account
	// via an optimistic version check with retry.
	Accrue(ctx context.Context, customerID uuid.UUID, award PointsAward) (*AccrualResult, error)
}

type loyaltyService struct {
	repo repository.LoyaltyRepository
}

func NewLoyaltyService(repo repository.LoyaltyRepository) LoyaltyService {
	return &loyaltyService{repo: repo}
}

// --- Implementation ---

const accrueRetries = 3

func (s *loyaltyService) GetAccount(ctx context.Context, customerID string) (*LoyaltyAccountResponse, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}

	account, err := s.repo.FindByCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loyalty account not found: %w", err)
	}

	return &LoyaltyAccountResponse{
		CustomerID:     account.CustomerID.String(),
		PointsBalance:  account.PointsBalance,
		LifetimePoints: account.LifetimePoints,
		Tier:           account.Tier,
	}, nil
}

func (s *loyaltyService) Accrue(ctx context.Context, customerID uuid.UUID, award PointsAward) (*AccrualResult, error) {
	var lastErr error
	for attempt := 0; attempt < accrueRetries; attempt++ {
		account, err := s.repo.GetOrCreate(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load loyalty account: %w", err)
		}

		account.PointsBalance += award.FinalPoints
		account.LifetimePoints += award.FinalPoints

		// Tier derives from lifetime points and never goes backwards.
		derived := DetermineTier(account.LifetimePoints)
		if model.TierRank(derived) > model.TierRank(account.Tier) {
			account.Tier = derived
		}

		err = s.repo.UpdateOptimistic(ctx, account)
		if err == nil {
			return &AccrualResult{
				BasePoints:  award.BasePoints,
				Multiplier:  award.Multiplier.StringFixed(2),
				BoostFactor: award.BoostFactor.StringFixed(4),
				FinalPoints: award.FinalPoints,
				NewBalance:  account.PointsBalance,
				Tier:        account.Tier,
			}, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to update loyalty account: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("loyalty accrual kept losing the version race: %w", lastErr)
}
