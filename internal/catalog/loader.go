package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// YAML document shapes. Monetary figures travel as decimal strings so the
// files never round-trip through binary floating point.

type regionYAML struct {
	Code       string `yaml:"code"`
	Country    string `yaml:"country"`
	Currency   string `yaml:"currency"`
	MinorUnits int32  `yaml:"minor_units"`
	PricePerKg string `yaml:"price_per_kg"`
	Tax        struct {
		Name        string `yaml:"name"`
		Rate        string `yaml:"rate"`
		IsInclusive bool   `yaml:"is_inclusive"`
	} `yaml:"tax"`
	FreeZone          bool   `yaml:"free_zone"`
	CardSurchargeRate string `yaml:"card_surcharge_rate"`
	ComplianceCode    string `yaml:"compliance_code"`
}

type complianceYAML struct {
	Code                string `yaml:"code"`
	HalalCertified      bool   `yaml:"halal_certified"`
	ArabicLabeling      bool   `yaml:"arabic_labeling"`
	HACCPRequired       bool   `yaml:"haccp_required"`
	PrivacyLaw          string `yaml:"privacy_law"`
	OfflineModeRequired bool   `yaml:"offline_mode_required"`
}

type flavorYAML struct {
	Code               string   `yaml:"code"`
	Name               string   `yaml:"name"`
	Tier               string   `yaml:"tier"`
	Allergens          []string `yaml:"allergens"`
	CostPerGram        string   `yaml:"cost_per_gram"`
	PricePerGram       string   `yaml:"price_per_gram"`
	Regions            []string `yaml:"regions"`
	LoyaltyBoostFactor string   `yaml:"loyalty_boost_factor"`
	VIPOnly            bool     `yaml:"vip_only"`
	MinTierRequired    string   `yaml:"min_tier_required"`
}

type catalogFile struct {
	Regions    []regionYAML     `yaml:"regions"`
	Compliance []complianceYAML `yaml:"compliance"`
	Flavors    []flavorYAML     `yaml:"flavors"`
}

func parseDec(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value %q: %w", field, s, err)
	}
	return d, nil
}

// Load reads catalog.yaml from dir and builds the validated catalog.
func Load(dir string) (*Catalog, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "catalog.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	regions := make([]RegionProfile, 0, len(file.Regions))
	for _, r := range file.Regions {
		price, err := parseDec("price_per_kg", r.PricePerKg)
		if err != nil {
			return nil, err
		}
		rate, err := parseDec("tax.rate", r.Tax.Rate)
		if err != nil {
			return nil, err
		}
		surcharge, err := parseDec("card_surcharge_rate", r.CardSurchargeRate)
		if err != nil {
			return nil, err
		}
		regions = append(regions, RegionProfile{
			Code:       r.Code,
			Country:    r.Country,
			Currency:   r.Currency,
			MinorUnits: r.MinorUnits,
			PricePerKg: price,
			Tax: TaxConfig{
				Name:        r.Tax.Name,
				Rate:        rate,
				IsInclusive: r.Tax.IsInclusive,
			},
			FreeZone:          r.FreeZone,
			CardSurchargeRate: surcharge,
			ComplianceCode:    r.ComplianceCode,
		})
	}

	compliance := make([]ComplianceProfile, 0, len(file.Compliance))
	for _, p := range file.Compliance {
		compliance = append(compliance, ComplianceProfile(p))
	}

	flavors := make([]Flavor, 0, len(file.Flavors))
	for _, f := range file.Flavors {
		cost, err := parseDec("cost_per_gram", f.CostPerGram)
		if err != nil {
			return nil, err
		}
		price, err := parseDec("price_per_gram", f.PricePerGram)
		if err != nil {
			return nil, err
		}
		boost, err := parseDec("loyalty_boost_factor", f.LoyaltyBoostFactor)
		if err != nil {
			return nil, err
		}
		flavors = append(flavors, Flavor{
			Code:               f.Code,
			Name:               f.Name,
			Tier:               f.Tier,
			Allergens:          f.Allergens,
			CostPerGram:        cost,
			PricePerGram:       price,
			Regions:            f.Regions,
			LoyaltyBoostFactor: boost,
			VIPOnly:            f.VIPOnly,
			MinTierRequired:    f.MinTierRequired,
		})
	}

	return New(regions, compliance, flavors)
}
