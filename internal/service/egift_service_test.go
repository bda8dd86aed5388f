package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEGiftRepo struct {
	gifts     map[string]*model.EGift
	conflicts int
}

func newFakeEGiftRepo() *fakeEGiftRepo {
	return &fakeEGiftRepo{gifts: make(map[string]*model.EGift)}
}

func (r *fakeEGiftRepo) Create(_ context.Context, gift *model.EGift) error {
	copied := *gift
	r.gifts[gift.Code] = &copied
	return nil
}

func (r *fakeEGiftRepo) FindByCode(_ context.Context, code string) (*model.EGift, error) {
	g, ok := r.gifts[code]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *g
	return &copied, nil
}

func (r *fakeEGiftRepo) UpdateOptimistic(_ context.Context, gift *model.EGift) error {
	if r.conflicts > 0 {
		r.conflicts--
		return repository.ErrVersionConflict
	}
	copied := *gift
	copied.Version++
	r.gifts[gift.Code] = &copied
	return nil
}

func (r *fakeEGiftRepo) List(_ context.Context, _, _ int) ([]model.EGift, int64, error) {
	out := make([]model.EGift, 0, len(r.gifts))
	for _, g := range r.gifts {
		out = append(out, *g)
	}
	return out, int64(len(out)), nil
}

func seedGift(repo *fakeEGiftRepo, balance string, countries string, expiresAt time.Time) *model.EGift {
	gift := &model.EGift{
		Code:             "EG-TEST",
		PackageCode:      "PKG_50",
		Currency:         "AUD",
		Value:            decimal.RequireFromString(balance),
		RemainingBalance: decimal.RequireFromString(balance),
		AllowedCountries: countries,
		ExpiresAt:        expiresAt,
	}
	repo.gifts[gift.Code] = gift
	return gift
}

func TestCheckRedeemable_TransferAlwaysRejected(t *testing.T) {
	now := time.Now()
	// Transfer loses even against a gift that is otherwise fully redeemable.
	gift := &model.EGift{ExpiresAt: now.Add(time.Hour)}

	err := CheckRedeemable(gift, catalog.CountryAU, true, now)
	assert.ErrorIs(t, err, ErrEGiftNonTransferable)
}

func TestCheckRedeemable_Order(t *testing.T) {
	now := time.Now()
	gift := &model.EGift{
		Redeemed:         true,
		AllowedCountries: "SA",
		ExpiresAt:        now.Add(-time.Hour),
	}

	// Redeemed wins over region and expiry.
	assert.ErrorIs(t, CheckRedeemable(gift, catalog.CountryAU, false, now), ErrEGiftAlreadyRedeemed)

	gift.Redeemed = false
	assert.ErrorIs(t, CheckRedeemable(gift, catalog.CountryAU, false, now), ErrEGiftRegionNotAllowed)

	assert.ErrorIs(t, CheckRedeemable(gift, catalog.CountrySA, false, now), ErrEGiftExpired)

	gift.ExpiresAt = now.Add(time.Hour)
	assert.NoError(t, CheckRedeemable(gift, catalog.CountrySA, false, now))
}

func TestCheckRedeemable_ExpiryBoundary(t *testing.T) {
	now := time.Now()
	gift := &model.EGift{ExpiresAt: now}

	// Expiry instant itself is already expired.
	assert.ErrorIs(t, CheckRedeemable(gift, catalog.CountryAU, false, now), ErrEGiftExpired)
}

func TestEGiftDiscount(t *testing.T) {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	assert.Equal(t, "30", EGiftDiscount(d("50"), d("30")).String())
	assert.Equal(t, "50", EGiftDiscount(d("50"), d("80")).String())
	assert.Equal(t, "0", EGiftDiscount(d("-1"), d("30")).String())
	assert.Equal(t, "0", EGiftDiscount(d("50"), d("-5")).String())
}

func TestRedeem_SingleUseEvenWithLeftoverBalance(t *testing.T) {
	repo := newFakeEGiftRepo()
	seedGift(repo, "50.00", "", time.Now().Add(24*time.Hour))
	svc := NewEGiftService(repo, nil, catalog.Default())

	result, err := svc.Redeem(context.Background(), RedeemEGiftRequest{
		Code: "EG-TEST", Country: catalog.CountryAU, OrderTotal: "30.00",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "30.0000", result.DiscountApplied)
	assert.Equal(t, "20.0000", result.RemainingBalance)

	// Leftover balance does not survive: one redemption spends the gift.
	_, err = svc.Redeem(context.Background(), RedeemEGiftRequest{
		Code: "EG-TEST", Country: catalog.CountryAU, OrderTotal: "5.00",
	}, nil)
	assert.ErrorIs(t, err, ErrEGiftAlreadyRedeemed)
}

func TestRedeem_VersionConflictReportsAlreadyRedeemed(t *testing.T) {
	repo := newFakeEGiftRepo()
	seedGift(repo, "50.00", "", time.Now().Add(24*time.Hour))
	repo.conflicts = 1
	svc := NewEGiftService(repo, nil, catalog.Default())

	_, err := svc.Redeem(context.Background(), RedeemEGiftRequest{
		Code: "EG-TEST", Country: catalog.CountryAU, OrderTotal: "30.00",
	}, nil)
	assert.ErrorIs(t, err, ErrEGiftAlreadyRedeemed)
}

func TestRedeem_RegionAllowList(t *testing.T) {
	repo := newFakeEGiftRepo()
	gift := seedGift(repo, "50.00", "SA,AE", time.Now().Add(24*time.Hour))
	gift.Currency = "AED"
	svc := NewEGiftService(repo, nil, catalog.Default())

	_, err := svc.Redeem(context.Background(), RedeemEGiftRequest{
		Code: "EG-TEST", Country: catalog.CountryAU, OrderTotal: "10.00",
	}, nil)
	assert.ErrorIs(t, err, ErrEGiftRegionNotAllowed)

	result, err := svc.Redeem(context.Background(), RedeemEGiftRequest{
		Code: "EG-TEST", Country: catalog.CountryAE, OrderTotal: "10.00",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "10.0000", result.DiscountApplied)
}

func TestRedeem_CurrencyMustMatchRegion(t *testing.T) {
	repo := newFakeEGiftRepo()
	// AUD gift with an open allow-list must still not discount a SAR order.
	seedGift(repo, "50.00", "", time.Now().Add(24*time.Hour))
	svc := NewEGiftService(repo, nil, catalog.Default())

	_, err := svc.Redeem(context.Background(), RedeemEGiftRequest{
		Code: "EG-TEST", Country: catalog.CountrySA, OrderTotal: "30.00",
	}, nil)
	assert.ErrorIs(t, err, ErrEGiftCurrencyMismatch)

	gift := repo.gifts["EG-TEST"]
	assert.False(t, gift.Redeemed)
	assert.Equal(t, "50", gift.RemainingBalance.String())
}

func TestPreview_ReportsDiscountWithoutSpending(t *testing.T) {
	repo := newFakeEGiftRepo()
	seedGift(repo, "50.00", "", time.Now().Add(24*time.Hour))
	svc := NewEGiftService(repo, nil, catalog.Default())

	result, err := svc.Preview(context.Background(), RedeemEGiftRequest{
		Code: "EG-TEST", Country: catalog.CountryAU, OrderTotal: "30.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "30.0000", result.DiscountApplied)
	assert.Equal(t, "20.0000", result.RemainingBalance)

	gift := repo.gifts["EG-TEST"]
	assert.False(t, gift.Redeemed)
	assert.Equal(t, "50", gift.RemainingBalance.String())
}

func TestIssue_ValidatesValueAndCountries(t *testing.T) {
	repo := newFakeEGiftRepo()
	svc := NewEGiftService(repo, nil, catalog.Default())

	_, err := svc.Issue(context.Background(), IssueEGiftRequest{
		PackageCode: "PKG_50", Currency: "AUD", Value: "-10", ValidDays: 30,
	}, "")
	require.Error(t, err)

	_, err = svc.Issue(context.Background(), IssueEGiftRequest{
		PackageCode: "PKG_50", Currency: "AUD", Value: "50", ValidDays: 30,
		AllowedCountries: []string{"ZZ"},
	}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnknownRegion)

	gift, err := svc.Issue(context.Background(), IssueEGiftRequest{
		PackageCode: "PKG_50", Currency: "aud", Value: "50", ValidDays: 30,
		AllowedCountries: []string{catalog.CountryAU},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "AUD", gift.Currency)
	assert.Equal(t, "50.0000", gift.RemainingBalance)
	assert.False(t, gift.Redeemed)
}
