package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/catalog"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// E-gift policy errors, returned typed so the register can render a precise
// message for each.
var (
	ErrEGiftAlreadyRedeemed  = errors.New("egift already redeemed")
	ErrEGiftRegionNotAllowed = errors.New("egift not redeemable in this region")
	ErrEGiftExpired          = errors.New("egift expired")
	ErrEGiftNonTransferable  = errors.New("egift is non-transferable")
	ErrEGiftCurrencyMismatch = errors.New("egift currency does not match region currency")
)

// CheckRedeemable applies the redemption policy in order: transfer attempts
// are rejected unconditionally before any state is consulted.
func CheckRedeemable(gift *model.EGift, country string, transfer bool, now time.Time) error {
	if transfer {
		return ErrEGiftNonTransferable
	}
	if gift.Redeemed {
		return ErrEGiftAlreadyRedeemed
	}
	if !gift.AllowsCountry(country) {
		return ErrEGiftRegionNotAllowed
	}
	if !now.Before(gift.ExpiresAt) {
		return ErrEGiftExpired
	}
	return nil
}

// EGiftDiscount bounds the applied discount by both the remaining balance and
// the order total after other discounts; it is never negative.
func EGiftDiscount(remaining, orderTotal decimal.Decimal) decimal.Decimal {
	if remaining.IsNegative() || orderTotal.IsNegative() {
		return decimal.Zero
	}
	if remaining.LessThan(orderTotal) {
		return remaining
	}
	return orderTotal
}

// --- DTOs ---

type IssueEGiftRequest struct {
	PackageCode      string   `json:"package_code" binding:"required"`
	Currency         string   `json:"currency" binding:"required,len=3"`
	Value            string   `json:"value" binding:"required"` // decimal string
	AllowedCountries []string `json:"allowed_countries"`
	ValidDays        int      `json:"valid_days" binding:"required,gt=0"`
}

type EGiftResponse struct {
	Code             string `json:"code"`
	PackageCode      string `json:"package_code"`
	Currency         string `json:"currency"`
	Value            string `json:"value"`
	RemainingBalance string `json:"remaining_balance"`
	AllowedCountries string `json:"allowed_countries"`
	ExpiresAt        string `json:"expires_at"`
	Redeemed         bool   `json:"redeemed"`
}

type RedeemEGiftRequest struct {
	Code       string `json:"code" binding:"required"`
	Country    string `json:"country" binding:"required"`
	OrderTotal string `json:"order_total" binding:"required"` // after other discounts
	Transfer   bool   `json:"transfer"`                       // always rejected, kept explicit on the wire
}

type RedeemEGiftResult struct {
	Code             string `json:"code"`
	DiscountApplied  string `json:"discount_applied"`
	RemainingBalance string `json:"remaining_balance"`
}

// --- Interface ---

type EGiftService interface {
	Issue(ctx context.Context, req IssueEGiftRequest, userID string) (EGiftResponse, error)
	// Preview runs the full redemption policy without spending the gift.
	// Checkout sizes the payment capture from it before anything commits.
	Preview(ctx context.Context, req RedeemEGiftRequest) (RedeemEGiftResult, error)
	// Redeem validates and applies the gift against an order total. The
	// balance mutation is guarded by an optimistic version check so two
	// concurrent redemptions cannot both succeed.
	Redeem(ctx context.Context, req RedeemEGiftRequest, txID *uuid.UUID) (RedeemEGiftResult, error)
	List(ctx context.Context, page, limit int) ([]EGiftResponse, int64, error)
}

type egiftService struct {
	repo      repository.EGiftRepository
	auditRepo repository.AuditRepository
	catalog   *catalog.Catalog
	now       func() time.Time
}

func NewEGiftService(repo repository.EGiftRepository, auditRepo repository.AuditRepository, cat *catalog.Catalog) EGiftService {
	return &egiftService{repo: repo, auditRepo: auditRepo, catalog: cat, now: time.Now}
}

// --- Implementation ---

func (s *egiftService) Issue(ctx context.Context, req IssueEGiftRequest, userID string) (EGiftResponse, error) {
	value, err := decimal.NewFromString(req.Value)
	if err != nil || !value.IsPositive() {
		return EGiftResponse{}, fmt.Errorf("invalid egift value %q", req.Value)
	}

	for _, country := range req.AllowedCountries {
		if _, err := s.catalog.Resolve(country, false); err != nil {
			return EGiftResponse{}, fmt.Errorf("invalid allow-list entry: %w", err)
		}
	}

	gift := model.EGift{
		Code:             strings.ToUpper("EG-" + uuid.NewString()[:18]),
		PackageCode:      req.PackageCode,
		Currency:         strings.ToUpper(req.Currency),
		Value:            value,
		RemainingBalance: value,
		AllowedCountries: strings.Join(req.AllowedCountries, ","),
		ExpiresAt:        s.now().AddDate(0, 0, req.ValidDays),
	}

	if err := s.repo.Create(ctx, &gift); err != nil {
		return EGiftResponse{}, fmt.Errorf("failed to create egift: %w", err)
	}

	writeAudit(ctx, s.auditRepo, userID, model.ActionIssueEGift, gift.Code, req.PackageCode, req)

	return toEGiftResponse(gift), nil
}

// evaluate applies the redemption policy and computes the discount without
// touching the stored gift. A gift denominated in another currency than the
// order's region is rejected even when its allow-list is open.
func (s *egiftService) evaluate(ctx context.Context, req RedeemEGiftRequest) (*model.EGift, decimal.Decimal, error) {
	orderTotal, err := decimal.NewFromString(req.OrderTotal)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("invalid order total: %w", err)
	}

	gift, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("egift not found: %w", err)
	}

	if err := CheckRedeemable(gift, req.Country, req.Transfer, s.now()); err != nil {
		return nil, decimal.Zero, err
	}
	if region, err := s.catalog.Resolve(req.Country, false); err == nil && !strings.EqualFold(gift.Currency, region.Currency) {
		return nil, decimal.Zero, ErrEGiftCurrencyMismatch
	}

	return gift, EGiftDiscount(gift.RemainingBalance, orderTotal), nil
}

func (s *egiftService) Preview(ctx context.Context, req RedeemEGiftRequest) (RedeemEGiftResult, error) {
	gift, discount, err := s.evaluate(ctx, req)
	if err != nil {
		return RedeemEGiftResult{}, err
	}
	return RedeemEGiftResult{
		Code:             gift.Code,
		DiscountApplied:  discount.StringFixed(4),
		RemainingBalance: gift.RemainingBalance.Sub(discount).StringFixed(4),
	}, nil
}

func (s *egiftService) Redeem(ctx context.Context, req RedeemEGiftRequest, txID *uuid.UUID) (RedeemEGiftResult, error) {
	gift, discount, err := s.evaluate(ctx, req)
	if err != nil {
		return RedeemEGiftResult{}, err
	}

	gift.RemainingBalance = gift.RemainingBalance.Sub(discount)
	gift.Redeemed = true // single redemption only, regardless of leftover balance
	gift.RedeemedTxID = txID

	if err := s.repo.UpdateOptimistic(ctx, gift); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// The concurrent redemption won; this one observes a spent gift.
			return RedeemEGiftResult{}, ErrEGiftAlreadyRedeemed
		}
		return RedeemEGiftResult{}, fmt.Errorf("failed to redeem egift: %w", err)
	}

	writeAudit(ctx, s.auditRepo, "", model.ActionRedeemEGift, gift.Code, gift.PackageCode, map[string]string{
		"discount": discount.StringFixed(4),
		"country":  req.Country,
	})

	return RedeemEGiftResult{
		Code:             gift.Code,
		DiscountApplied:  discount.StringFixed(4),
		RemainingBalance: gift.RemainingBalance.StringFixed(4),
	}, nil
}

func (s *egiftService) List(ctx context.Context, page, limit int) ([]EGiftResponse, int64, error) {
	gifts, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]EGiftResponse, 0, len(gifts))
	for _, g := range gifts {
		res = append(res, toEGiftResponse(g))
	}
	return res, total, nil
}

func toEGiftResponse(g model.EGift) EGiftResponse {
	return EGiftResponse{
		Code:             g.Code,
		PackageCode:      g.PackageCode,
		Currency:         g.Currency,
		Value:            g.Value.StringFixed(4),
		RemainingBalance: g.RemainingBalance.StringFixed(4),
		AllowedCountries: g.AllowedCountries,
		ExpiresAt:        g.ExpiresAt.Format(time.RFC3339),
		Redeemed:         g.Redeemed,
	}
}
