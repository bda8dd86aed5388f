package catalog

import "github.com/shopspring/decimal"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Default returns the compiled-in catalog used when no CATALOG_DIR override
// is configured. Rates and prices match the current franchise agreements.
func Default() *Catalog {
	regions := []RegionProfile{
		{
			Code: "RP_AU", Country: CountryAU, Currency: "AUD", MinorUnits: 2,
			PricePerKg: dec("50.00"),
			Tax:        TaxConfig{Name: "GST", Rate: dec("0.10"), IsInclusive: true},
			CardSurchargeRate: dec("0.015"), ComplianceCode: "CP_AU",
		},
		{
			Code: "RP_SA", Country: CountrySA, Currency: "SAR", MinorUnits: 2,
			PricePerKg: dec("185.00"),
			Tax:        TaxConfig{Name: "VAT", Rate: dec("0.15"), IsInclusive: false},
			ComplianceCode: "CP_GCC",
		},
		{
			Code: "RP_SA_FZ", Country: CountrySA, Currency: "SAR", MinorUnits: 2,
			PricePerKg: dec("185.00"),
			Tax:        TaxConfig{Name: "VAT", Rate: dec("0"), IsInclusive: false},
			FreeZone:   true, ComplianceCode: "CP_GCC",
		},
		{
			Code: "RP_AE", Country: CountryAE, Currency: "AED", MinorUnits: 2,
			PricePerKg: dec("180.00"),
			Tax:        TaxConfig{Name: "VAT", Rate: dec("0.05"), IsInclusive: false},
			ComplianceCode: "CP_AE",
		},
		{
			Code: "RP_AE_FZ", Country: CountryAE, Currency: "AED", MinorUnits: 2,
			PricePerKg: dec("180.00"),
			Tax:        TaxConfig{Name: "VAT", Rate: dec("0"), IsInclusive: false},
			FreeZone:   true, ComplianceCode: "CP_AE",
		},
		{
			Code: "RP_KW", Country: CountryKW, Currency: "KWD", MinorUnits: 3,
			PricePerKg: dec("15.750"),
			Tax:        TaxConfig{Name: "VAT", Rate: dec("0"), IsInclusive: false},
			ComplianceCode: "CP_GCC",
		},
		{
			Code: "RP_QA", Country: CountryQA, Currency: "QAR", MinorUnits: 2,
			PricePerKg: dec("175.00"),
			Tax:        TaxConfig{Name: "VAT", Rate: dec("0"), IsInclusive: false},
			ComplianceCode: "CP_GCC",
		},
		{
			Code: "RP_MY", Country: CountryMY, Currency: "MYR", MinorUnits: 2,
			PricePerKg: dec("120.00"),
			Tax:        TaxConfig{Name: "SST", Rate: dec("0.06"), IsInclusive: false},
			ComplianceCode: "CP_MY",
		},
	}

	compliance := []ComplianceProfile{
		{Code: "CP_AU", HACCPRequired: true, PrivacyLaw: "AU_PRIVACY_ACT"},
		{Code: "CP_GCC", HalalCertified: true, ArabicLabeling: true, HACCPRequired: true, PrivacyLaw: "SA_PDPL", OfflineModeRequired: true},
		{Code: "CP_AE", HalalCertified: true, ArabicLabeling: true, HACCPRequired: true, PrivacyLaw: "UAE_PDPL", OfflineModeRequired: true},
		{Code: "CP_MY", HalalCertified: true, HACCPRequired: true, PrivacyLaw: "MY_PDPA"},
	}

	flavors := []Flavor{
		{
			Code: "VANILLA_BEAN", Name: "Vanilla Bean", Tier: "CLASSIC",
			Allergens:   []string{"dairy"},
			CostPerGram: dec("0.020"), PricePerGram: dec("0.050"),
		},
		{
			Code: "DARK_CHOCOLATE", Name: "Dark Chocolate 70%", Tier: "CLASSIC",
			Allergens:   []string{"dairy", "soy"},
			CostPerGram: dec("0.024"), PricePerGram: dec("0.055"),
		},
		{
			Code: "SALTED_CARAMEL", Name: "Salted Caramel", Tier: "PREMIUM",
			Allergens:   []string{"dairy"},
			CostPerGram: dec("0.026"), PricePerGram: dec("0.060"),
		},
		{
			Code: "PISTACHIO_ROYAL", Name: "Pistachio Royal", Tier: "PREMIUM",
			Allergens:   []string{"dairy", "tree nuts"},
			CostPerGram: dec("0.035"), PricePerGram: dec("0.075"),
			LoyaltyBoostFactor: dec("1.2"),
		},
		{
			Code: "MANGO_SORBET", Name: "Mango Sorbet", Tier: "CLASSIC",
			CostPerGram: dec("0.018"), PricePerGram: dec("0.045"),
			Regions: []string{CountryAU, CountryMY},
		},
		{
			Code: "SAFFRON_GOLD", Name: "Saffron Gold", Tier: "SIGNATURE",
			Allergens:   []string{"dairy", "tree nuts"},
			CostPerGram: dec("0.060"), PricePerGram: dec("0.120"),
			Regions:            []string{CountrySA, CountryAE, CountryKW, CountryQA},
			LoyaltyBoostFactor: dec("1.5"),
			VIPOnly:            true, MinTierRequired: "PLATINUM",
		},
	}

	c, err := New(regions, compliance, flavors)
	if err != nil {
		// The defaults are compile-time data; failing to build them is a bug.
		panic(err)
	}
	return c
}
