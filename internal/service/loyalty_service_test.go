package service

import (
	"context"
	"testing"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoyaltyRepo struct {
	accounts  map[uuid.UUID]*model.LoyaltyAccount
	conflicts int // UpdateOptimistic fails this many times before succeeding
}

func newFakeLoyaltyRepo() *fakeLoyaltyRepo {
	return &fakeLoyaltyRepo{accounts: make(map[uuid.UUID]*model.LoyaltyAccount)}
}

func (r *fakeLoyaltyRepo) GetOrCreate(_ context.Context, customerID uuid.UUID) (*model.LoyaltyAccount, error) {
	if a, ok := r.accounts[customerID]; ok {
		copied := *a
		return &copied, nil
	}
	a := &model.LoyaltyAccount{ID: uuid.New(), CustomerID: customerID, Tier: model.TierStandard}
	r.accounts[customerID] = a
	copied := *a
	return &copied, nil
}

func (r *fakeLoyaltyRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) (*model.LoyaltyAccount, error) {
	a, ok := r.accounts[customerID]
	if !ok {
		return nil, repository.ErrVersionConflict
	}
	copied := *a
	return &copied, nil
}

func (r *fakeLoyaltyRepo) UpdateOptimistic(_ context.Context, account *model.LoyaltyAccount) error {
	if r.conflicts > 0 {
		r.conflicts--
		return repository.ErrVersionConflict
	}
	copied := *account
	r.accounts[account.CustomerID] = &copied
	return nil
}

func TestAwardPoints_TierMultiplier(t *testing.T) {
	award := AwardPoints(model.TierDiamond, 250, nil)

	assert.Equal(t, int64(250), award.BasePoints)
	assert.Equal(t, "1.50", award.Multiplier.StringFixed(2))
	assert.Equal(t, int64(375), award.FinalPoints)
}

func TestAwardPoints_DiamondWithBoostedFlavor(t *testing.T) {
	pistachio, err := catalog.Default().Flavor("PISTACHIO_ROYAL")
	require.NoError(t, err)

	// 250 x 1.5 x 1.2 = 450
	award := AwardPoints(model.TierDiamond, 250, []*catalog.Flavor{pistachio})

	assert.Equal(t, int64(450), award.FinalPoints)
}

func TestAwardPoints_FlavorBoostAveraged(t *testing.T) {
	cat := catalog.Default()
	pistachio, err := cat.Flavor("PISTACHIO_ROYAL")
	require.NoError(t, err)
	vanilla, err := cat.Flavor("VANILLA_BEAN")
	require.NoError(t, err)

	// Boost is averaged over every line: (0.2 + 0) / 2 = 0.1.
	award := AwardPoints(model.TierStandard, 200, []*catalog.Flavor{pistachio, vanilla})

	assert.Equal(t, "0.1000", award.BoostFactor.StringFixed(4))
	assert.Equal(t, int64(220), award.FinalPoints)
}

func TestAwardPoints_UnknownTierFallsBackToStandard(t *testing.T) {
	award := AwardPoints("MYSTERY", 100, nil)
	assert.Equal(t, int64(100), award.FinalPoints)
}

func TestDetermineTier_Thresholds(t *testing.T) {
	assert.Equal(t, model.TierStandard, DetermineTier(0))
	assert.Equal(t, model.TierStandard, DetermineTier(4_999))
	assert.Equal(t, model.TierGold, DetermineTier(5_000))
	assert.Equal(t, model.TierPlatinum, DetermineTier(20_000))
	assert.Equal(t, model.TierDiamond, DetermineTier(50_000))
}

func TestDetermineTier_Monotonic(t *testing.T) {
	prev := 0
	for _, points := range []int64{0, 100, 4_999, 5_000, 19_999, 20_000, 49_999, 50_000, 1_000_000} {
		rank := model.TierRank(DetermineTier(points))
		assert.GreaterOrEqual(t, rank, prev, "tier dropped at %d points", points)
		prev = rank
	}
}

func TestAccrue_UpgradesTier(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	svc := NewLoyaltyService(repo)
	customerID := uuid.New()

	result, err := svc.Accrue(context.Background(), customerID, PointsAward{
		BasePoints: 6_000, Multiplier: tierMultipliers[model.TierStandard], FinalPoints: 6_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6_000), result.NewBalance)
	assert.Equal(t, model.TierGold, result.Tier)
}

func TestAccrue_TierNeverDemotes(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	customerID := uuid.New()
	repo.accounts[customerID] = &model.LoyaltyAccount{
		ID: uuid.New(), CustomerID: customerID,
		PointsBalance: 100, LifetimePoints: 100, Tier: model.TierPlatinum,
	}
	svc := NewLoyaltyService(repo)

	result, err := svc.Accrue(context.Background(), customerID, PointsAward{FinalPoints: 10})
	require.NoError(t, err)
	assert.Equal(t, model.TierPlatinum, result.Tier)
}

func TestAccrue_RetriesVersionConflict(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.conflicts = 2
	svc := NewLoyaltyService(repo)

	result, err := svc.Accrue(context.Background(), uuid.New(), PointsAward{FinalPoints: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(50), result.NewBalance)
}

func TestAccrue_GivesUpAfterRetries(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	repo.conflicts = accrueRetries
	svc := NewLoyaltyService(repo)

	_, err := svc.Accrue(context.Background(), uuid.New(), PointsAward{FinalPoints: 50})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
}
