package service

import (
	"context"
	"testing"

	"backend/internal/catalog"
	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustResolve(t *testing.T, cat *catalog.Catalog, country string, freeZone bool) *catalog.RegionProfile {
	t.Helper()
	region, err := cat.Resolve(country, freeZone)
	require.NoError(t, err)
	return region
}

func TestComputePrice_InclusiveTax(t *testing.T) {
	cat := catalog.Default()
	region := mustResolve(t, cat, catalog.CountryAU, false)

	// 200g at 50.00/kg is 10.00 with 10% GST already inside the price.
	b := ComputePrice(cat, region, []OrderLineRequest{
		{FlavorCode: "VANILLA_BEAN", Grams: 200},
	}, "", model.PaymentCash)

	require.Len(t, b.Lines, 1)
	assert.Empty(t, b.Rejected)
	assert.Equal(t, "10.00", b.Subtotal.StringFixed(2))
	assert.Equal(t, "0.9091", b.TaxAmount.StringFixed(4))
	assert.True(t, b.TaxInclusive)
	assert.Equal(t, "10.00", b.Total.StringFixed(2))
}

func TestComputePrice_FreeZoneZeroRates(t *testing.T) {
	cat := catalog.Default()
	region := mustResolve(t, cat, catalog.CountrySA, true)

	b := ComputePrice(cat, region, []OrderLineRequest{
		{FlavorCode: "VANILLA_BEAN", Grams: 300},
	}, "", model.PaymentCash)

	assert.Equal(t, "55.50", b.Subtotal.StringFixed(2))
	assert.Equal(t, "0.0000", b.TaxAmount.StringFixed(4))
	assert.Equal(t, "55.50", b.Total.StringFixed(2))
}

func TestComputePrice_ExclusiveTaxAddedOnTop(t *testing.T) {
	cat := catalog.Default()
	region := mustResolve(t, cat, catalog.CountrySA, false)

	b := ComputePrice(cat, region, []OrderLineRequest{
		{FlavorCode: "VANILLA_BEAN", Grams: 200},
	}, "", model.PaymentCash)

	// 200g at 185.00/kg is 37.00, plus 15% VAT.
	assert.Equal(t, "37.00", b.Subtotal.StringFixed(2))
	assert.Equal(t, "5.55", b.TaxAmount.StringFixed(2))
	assert.Equal(t, "42.55", b.Total.StringFixed(2))
}

func TestComputePrice_NoDriftAcrossManyOrders(t *testing.T) {
	cat := catalog.Default()
	region := mustResolve(t, cat, catalog.CountrySA, false)

	lines := []OrderLineRequest{{FlavorCode: "VANILLA_BEAN", Grams: 200}}
	sum := decimal.Zero
	for i := 0; i < 10_000; i++ {
		b := ComputePrice(cat, region, lines, "", model.PaymentCash)
		sum = sum.Add(b.Total)
	}

	// 10 000 x 42.55 must land exactly, with no accumulated rounding error.
	assert.Equal(t, "425500.00", sum.StringFixed(2))
}

func TestComputePrice_CardSurcharge(t *testing.T) {
	cat := catalog.Default()
	region := mustResolve(t, cat, catalog.CountryAU, false)

	b := ComputePrice(cat, region, []OrderLineRequest{
		{FlavorCode: "VANILLA_BEAN", Grams: 200},
	}, "", model.PaymentCard)

	assert.Equal(t, "0.15", b.CardSurcharge.StringFixed(2))
	assert.Equal(t, "10.15", b.Total.StringFixed(2))

	cash := ComputePrice(cat, region, []OrderLineRequest{
		{FlavorCode: "VANILLA_BEAN", Grams: 200},
	}, "", model.PaymentCash)
	assert.True(t, cash.CardSurcharge.IsZero())
}

func TestComputePrice_ThreeDecimalCurrency(t *testing.T) {
	cat := catalog.Default()
	region := mustResolve(t, cat, catalog.CountryKW, false)

	b := ComputePrice(cat, region, []OrderLineRequest{
		{FlavorCode: "VANILLA_BEAN", Grams: 200},
	}, "", model.PaymentCash)

	require.EqualValues(t, 3, b.MinorUnits)
	assert.Equal(t, "3.150", b.Total.StringFixed(b.MinorUnits))
}

func TestComputePrice_RejectedLines(t *testing.T) {
	cat := catalog.Default()
	region := mustResolve(t, cat, catalog.CountrySA, false)

	b := ComputePrice(cat, region, []OrderLineRequest{
		{FlavorCode: "VANILLA_BEAN", Grams: 100},
		{FlavorCode: "DOES_NOT_EXIST", Grams: 100},
		{FlavorCode: "MANGO_SORBET", Grams: 100},
		{FlavorCode: "SAFFRON_GOLD", Grams: 100},
		{FlavorCode: "DARK_CHOCOLATE", Grams: 0},
	}, model.TierGold, model.PaymentCash)

	require.Len(t, b.Lines, 1)
	require.Len(t, b.Rejected, 4)

	reasons := map[string]string{}
	for _, r := range b.Rejected {
		reasons[r.FlavorCode] = r.Reason
	}
	assert.Equal(t, RejectUnknownFlavor, reasons["DOES_NOT_EXIST"])
	assert.Equal(t, RejectNotInRegion, reasons["MANGO_SORBET"])
	assert.Equal(t, RejectTierRequired, reasons["SAFFRON_GOLD"])
	assert.Equal(t, RejectInvalidWeight, reasons["DARK_CHOCOLATE"])

	// Survivors still price.
	assert.Equal(t, "18.50", b.Subtotal.StringFixed(2))
}

func TestComputePrice_VIPFlavorForHighTier(t *testing.T) {
	cat := catalog.Default()
	region := mustResolve(t, cat, catalog.CountrySA, false)

	b := ComputePrice(cat, region, []OrderLineRequest{
		{FlavorCode: "SAFFRON_GOLD", Grams: 100},
	}, model.TierPlatinum, model.PaymentCash)

	require.Len(t, b.Lines, 1)
	assert.Empty(t, b.Rejected)
}

func TestQuote_ResolvesRegionAndFormats(t *testing.T) {
	svc := NewPricingService(catalog.Default())

	res, err := svc.Quote(context.Background(), QuoteRequest{
		Country: catalog.CountryAU,
		Lines:   []OrderLineRequest{{FlavorCode: "VANILLA_BEAN", Grams: 500}},
	})
	require.NoError(t, err)
	assert.Equal(t, "RP_AU", res.RegionCode)
	assert.Equal(t, "AUD", res.Currency)
	assert.Equal(t, "25.00", res.Total)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "0.0500", res.Lines[0].UnitPrice)
}

func TestQuote_UnknownCountry(t *testing.T) {
	svc := NewPricingService(catalog.Default())

	_, err := svc.Quote(context.Background(), QuoteRequest{
		Country: "ZZ",
		Lines:   []OrderLineRequest{{FlavorCode: "VANILLA_BEAN", Grams: 100}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnknownRegion)
}
