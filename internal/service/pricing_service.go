package service

import (
	"context"
	"fmt"

	"backend/internal/catalog"
	"backend/internal/model"

	"github.com/shopspring/decimal"
)

// Line rejection reasons. Rejected lines are reported back to the caller,
// never silently dropped and never aborting the rest of the basket.
const (
	RejectUnknownFlavor = "UNKNOWN_FLAVOR"
	RejectNotInRegion   = "NOT_AVAILABLE_IN_REGION"
	RejectInvalidWeight = "INVALID_WEIGHT"
	RejectTierRequired  = "TIER_REQUIRED"
)

// --- DTOs ---

type OrderLineRequest struct {
	FlavorCode string `json:"flavor_code" binding:"required"`
	Grams      int64  `json:"grams" binding:"required,gt=0"`
}

type QuoteRequest struct {
	Country       string             `json:"country" binding:"required"`
	FreeZone      bool               `json:"free_zone"`
	PaymentMethod string             `json:"payment_method" binding:"omitempty,oneof=CASH CARD WALLET EGIFT"`
	CustomerTier  string             `json:"customer_tier"`
	Lines         []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type PricedLine struct {
	FlavorCode string          `json:"flavor_code"`
	Grams      int64           `json:"grams"`
	UnitPrice  decimal.Decimal `json:"-"`
	LineTotal  decimal.Decimal `json:"-"`
}

type RejectedLine struct {
	FlavorCode string `json:"flavor_code"`
	Reason     string `json:"reason"`
}

// PriceBreakdown is the result of pricing one basket. Tax for inclusive
// regions is informational (already inside the subtotal); for exclusive
// regions it is added on top.
type PriceBreakdown struct {
	RegionCode    string
	Currency      string
	MinorUnits    int32
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	TaxName       string
	TaxInclusive  bool
	CardSurcharge decimal.Decimal
	Total         decimal.Decimal
	Lines         []PricedLine
	Rejected      []RejectedLine
}

// TotalGrams sums the weight of the lines that actually priced.
func (b *PriceBreakdown) TotalGrams() int64 {
	var total int64
	for _, l := range b.Lines {
		total += l.Grams
	}
	return total
}

// QuoteResponse is the wire shape of a price breakdown.
type QuoteResponse struct {
	RegionCode    string         `json:"region_code"`
	Currency      string         `json:"currency"`
	Subtotal      string         `json:"subtotal"`
	TaxAmount     string         `json:"tax_amount"`
	TaxName       string         `json:"tax_name"`
	TaxInclusive  bool           `json:"tax_inclusive"`
	CardSurcharge string         `json:"card_surcharge"`
	Total         string         `json:"total"`
	Lines         []QuotedLine   `json:"lines"`
	Rejected      []RejectedLine `json:"rejected_lines"`
}

type QuotedLine struct {
	FlavorCode string `json:"flavor_code"`
	Grams      int64  `json:"grams"`
	UnitPrice  string `json:"unit_price"`
	LineTotal  string `json:"line_total"`
}

// --- Pure pricing core ---

var oneThousand = decimal.NewFromInt(1000)

// ComputePrice prices a basket against one region profile. The register sells
// by weight at the region's per-kg price; flavor records gate availability and
// tier access. All money math stays in fixed-point decimals.
func ComputePrice(cat *catalog.Catalog, region *catalog.RegionProfile, lines []OrderLineRequest, customerTier, paymentMethod string) PriceBreakdown {
	breakdown := PriceBreakdown{
		RegionCode:    region.Code,
		Currency:      region.Currency,
		MinorUnits:    region.MinorUnits,
		TaxName:       region.Tax.Name,
		TaxInclusive:  region.Tax.IsInclusive,
		Subtotal:      decimal.Zero,
		TaxAmount:     decimal.Zero,
		CardSurcharge: decimal.Zero,
	}

	unitPrice := region.PricePerKg.Div(oneThousand)

	for _, line := range lines {
		if line.Grams <= 0 {
			breakdown.Rejected = append(breakdown.Rejected, RejectedLine{FlavorCode: line.FlavorCode, Reason: RejectInvalidWeight})
			continue
		}
		flavor, err := cat.Flavor(line.FlavorCode)
		if err != nil {
			breakdown.Rejected = append(breakdown.Rejected, RejectedLine{FlavorCode: line.FlavorCode, Reason: RejectUnknownFlavor})
			continue
		}
		if !flavor.AvailableIn(region.Country) {
			breakdown.Rejected = append(breakdown.Rejected, RejectedLine{FlavorCode: line.FlavorCode, Reason: RejectNotInRegion})
			continue
		}
		if flavor.VIPOnly && model.TierRank(customerTier) < model.TierRank(flavor.MinTierRequired) {
			breakdown.Rejected = append(breakdown.Rejected, RejectedLine{FlavorCode: line.FlavorCode, Reason: RejectTierRequired})
			continue
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(line.Grams))
		breakdown.Lines = append(breakdown.Lines, PricedLine{
			FlavorCode: line.FlavorCode,
			Grams:      line.Grams,
			UnitPrice:  unitPrice,
			LineTotal:  lineTotal,
		})
		breakdown.Subtotal = breakdown.Subtotal.Add(lineTotal)
	}

	breakdown.Subtotal = breakdown.Subtotal.Round(breakdown.MinorUnits)

	rate := region.Tax.Rate
	if region.Tax.IsInclusive {
		// Tax is already inside the sticker price; back it out for reporting.
		// 4dp matches the precision tax rates are stored at.
		divisor := decimal.NewFromInt(1).Add(rate)
		breakdown.TaxAmount = breakdown.Subtotal.Sub(breakdown.Subtotal.Div(divisor)).Round(4)
		breakdown.Total = breakdown.Subtotal
	} else {
		breakdown.TaxAmount = breakdown.Subtotal.Mul(rate).Round(breakdown.MinorUnits)
		breakdown.Total = breakdown.Subtotal.Add(breakdown.TaxAmount)
	}

	if paymentMethod == model.PaymentCard && region.CardSurchargeRate.IsPositive() {
		breakdown.CardSurcharge = breakdown.Total.Mul(region.CardSurchargeRate).Round(breakdown.MinorUnits)
		breakdown.Total = breakdown.Total.Add(breakdown.CardSurcharge)
	}

	return breakdown
}

// --- Interface ---

type PricingService interface {
	Quote(ctx context.Context, req QuoteRequest) (QuoteResponse, error)
}

type pricingService struct {
	catalog *catalog.Catalog
}

func NewPricingService(cat *catalog.Catalog) PricingService {
	return &pricingService{catalog: cat}
}

// --- Implementation ---

func (s *pricingService) Quote(_ context.Context, req QuoteRequest) (QuoteResponse, error) {
	region, err := s.catalog.Resolve(req.Country, req.FreeZone)
	if err != nil {
		return QuoteResponse{}, fmt.Errorf("failed to resolve region: %w", err)
	}

	breakdown := ComputePrice(s.catalog, region, req.Lines, req.CustomerTier, req.PaymentMethod)
	return toQuoteResponse(breakdown), nil
}

func toQuoteResponse(b PriceBreakdown) QuoteResponse {
	lines := make([]QuotedLine, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, QuotedLine{
			FlavorCode: l.FlavorCode,
			Grams:      l.Grams,
			UnitPrice:  l.UnitPrice.StringFixed(4),
			LineTotal:  l.LineTotal.StringFixed(b.MinorUnits),
		})
	}

	return QuoteResponse{
		RegionCode:    b.RegionCode,
		Currency:      b.Currency,
		Subtotal:      b.Subtotal.StringFixed(b.MinorUnits),
		TaxAmount:     b.TaxAmount.StringFixed(4),
		TaxName:       b.TaxName,
		TaxInclusive:  b.TaxInclusive,
		CardSurcharge: b.CardSurcharge.StringFixed(b.MinorUnits),
		Total:         b.Total.StringFixed(b.MinorUnits),
		Lines:         lines,
		Rejected:      b.Rejected,
	}
}
