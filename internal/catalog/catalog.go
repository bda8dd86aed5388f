package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Country code constants — the closed set of jurisdictions the engine prices in.
const (
	CountryAU = "AU"
	CountrySA = "SA"
	CountryAE = "AE"
	CountryKW = "KW"
	CountryQA = "QA"
	CountryMY = "MY"
)

var (
	ErrUnknownRegion     = errors.New("unknown region")
	ErrUnknownCompliance = errors.New("unknown compliance profile")
	ErrUnknownFlavor     = errors.New("unknown flavor")
)

// TaxConfig describes how a jurisdiction taxes a sale.
type TaxConfig struct {
	Name        string          // GST, VAT, SST...
	Rate        decimal.Decimal // e.g. 0.10 = 10%
	IsInclusive bool
}

// RegionProfile holds the commercial rules for one jurisdiction.
// Free-zone profiles share currency and price with their parent country.
type RegionProfile struct {
	Code              string // e.g. RP_AU, RP_SA_FZ
	Country           string
	Currency          string
	MinorUnits        int32 // KWD carries 3
	PricePerKg        decimal.Decimal
	Tax               TaxConfig
	FreeZone          bool
	CardSurchargeRate decimal.Decimal
	ComplianceCode    string
}

// ComplianceProfile is immutable regulatory reference data, one per code.
type ComplianceProfile struct {
	Code                string
	HalalCertified      bool
	ArabicLabeling      bool
	HACCPRequired       bool
	PrivacyLaw          string
	OfflineModeRequired bool
}

// Flavor is a sellable weighed product variant.
type Flavor struct {
	Code               string
	Name               string
	Tier               string // CLASSIC, PREMIUM, SIGNATURE
	Allergens          []string
	CostPerGram        decimal.Decimal
	PricePerGram       decimal.Decimal
	Regions            []string        // empty = all regions
	LoyaltyBoostFactor decimal.Decimal // zero = no boost
	VIPOnly            bool
	MinTierRequired    string
}

// AvailableIn reports whether the flavor may be sold in the given country.
func (f *Flavor) AvailableIn(country string) bool {
	if len(f.Regions) == 0 {
		return true
	}
	for _, r := range f.Regions {
		if r == country {
			return true
		}
	}
	return false
}

// Catalog is the process-wide immutable reference data set, loaded once at
// startup and passed explicitly to the pricing/loyalty engines.
type Catalog struct {
	regions    map[string]*RegionProfile // keyed by country + free-zone flag
	compliance map[string]*ComplianceProfile
	flavors    map[string]*Flavor
}

func regionKey(country string, freeZone bool) string {
	if freeZone {
		return country + "/fz"
	}
	return country
}

// New builds a catalog from explicit profile lists, validating the invariants:
// exactly one standard profile per country, price >= cost per flavor, and
// vip-only flavors carrying a minimum tier gate.
func New(regions []RegionProfile, compliance []ComplianceProfile, flavors []Flavor) (*Catalog, error) {
	c := &Catalog{
		regions:    make(map[string]*RegionProfile, len(regions)),
		compliance: make(map[string]*ComplianceProfile, len(compliance)),
		flavors:    make(map[string]*Flavor, len(flavors)),
	}

	for i := range regions {
		r := regions[i]
		key := regionKey(r.Country, r.FreeZone)
		if _, exists := c.regions[key]; exists {
			return nil, fmt.Errorf("duplicate region profile for %s (free_zone=%v)", r.Country, r.FreeZone)
		}
		if r.Tax.Rate.IsNegative() {
			return nil, fmt.Errorf("region %s: negative tax rate", r.Code)
		}
		c.regions[key] = &r
	}

	// Free-zone profiles must share currency and price with the parent country.
	for _, r := range c.regions {
		if !r.FreeZone {
			continue
		}
		std, ok := c.regions[r.Country]
		if !ok {
			return nil, fmt.Errorf("free-zone profile %s has no standard profile for %s", r.Code, r.Country)
		}
		if std.Currency != r.Currency || !std.PricePerKg.Equal(r.PricePerKg) {
			return nil, fmt.Errorf("free-zone profile %s diverges from %s on currency/price", r.Code, std.Code)
		}
	}

	for i := range compliance {
		p := compliance[i]
		if _, exists := c.compliance[p.Code]; exists {
			return nil, fmt.Errorf("duplicate compliance profile %s", p.Code)
		}
		c.compliance[p.Code] = &p
	}

	for i := range flavors {
		f := flavors[i]
		if _, exists := c.flavors[f.Code]; exists {
			return nil, fmt.Errorf("duplicate flavor code %s", f.Code)
		}
		if f.PricePerGram.LessThan(f.CostPerGram) {
			return nil, fmt.Errorf("flavor %s: price below cost", f.Code)
		}
		if f.VIPOnly && f.MinTierRequired == "" {
			return nil, fmt.Errorf("flavor %s: vip_only requires min_tier_required", f.Code)
		}
		c.flavors[f.Code] = &f
	}

	return c, nil
}

// Resolve returns the region profile for a country. Requesting a free zone
// where none is configured falls back to the standard profile; this mirrors
// the jurisdictions where free-zone registration changes nothing about retail
// sales, and is deliberate rather than silent data loss.
func (c *Catalog) Resolve(country string, freeZone bool) (*RegionProfile, error) {
	if freeZone {
		if r, ok := c.regions[regionKey(country, true)]; ok {
			return r, nil
		}
	}
	r, ok := c.regions[regionKey(country, false)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, country)
	}
	return r, nil
}

// ComplianceFor looks up the regulatory profile by code.
func (c *Catalog) ComplianceFor(code string) (*ComplianceProfile, error) {
	p, ok := c.compliance[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompliance, code)
	}
	return p, nil
}

// Flavor looks up a flavor by its internal code.
func (c *Catalog) Flavor(code string) (*Flavor, error) {
	f, ok := c.flavors[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlavor, code)
	}
	return f, nil
}

// FlavorsForRegion lists flavors sellable in a country, ordered by code.
func (c *Catalog) FlavorsForRegion(country string) []*Flavor {
	out := make([]*Flavor, 0, len(c.flavors))
	for _, f := range c.flavors {
		if f.AvailableIn(country) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Regions lists every configured region profile, ordered by code.
func (c *Catalog) Regions() []*RegionProfile {
	out := make([]*RegionProfile, 0, len(c.regions))
	for _, r := range c.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
