package handler

import (
	"net/http"
	"strconv"

	"backend/internal/catalog"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// Catalog reads are reference data for registers booting up; they stay public
// so a device can configure itself before staff sign in.
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	cat := router.Group("/api/catalog")
	{
		cat.GET("/regions", h.ListRegions)
		cat.GET("/regions/resolve", h.ResolveRegion)
		cat.GET("/flavors", h.ListFlavors)
	}
}

type regionResponse struct {
	Code              string `json:"code"`
	Country           string `json:"country"`
	Currency          string `json:"currency"`
	MinorUnits        int32  `json:"minor_units"`
	PricePerKg        string `json:"price_per_kg"`
	TaxName           string `json:"tax_name"`
	TaxRate           string `json:"tax_rate"`
	TaxInclusive      bool   `json:"tax_inclusive"`
	FreeZone          bool   `json:"free_zone"`
	CardSurchargeRate string `json:"card_surcharge_rate"`
	ComplianceCode    string `json:"compliance_code"`
}

type complianceResponse struct {
	Code                string `json:"code"`
	HalalCertified      bool   `json:"halal_certified"`
	ArabicLabeling      bool   `json:"arabic_labeling"`
	HACCPRequired       bool   `json:"haccp_required"`
	PrivacyLaw          string `json:"privacy_law"`
	OfflineModeRequired bool   `json:"offline_mode_required"`
}

type flavorResponse struct {
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Tier               string   `json:"tier"`
	Allergens          []string `json:"allergens,omitempty"`
	PricePerGram       string   `json:"price_per_gram"`
	Regions            []string `json:"regions,omitempty"`
	LoyaltyBoostFactor string   `json:"loyalty_boost_factor"`
	VIPOnly            bool     `json:"vip_only"`
	MinTierRequired    string   `json:"min_tier_required,omitempty"`
}

// ListRegions lists every region profile the engine prices in
// @Summary      List regions
// @Description  Retrieves all configured region profiles
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/catalog/regions [get]
func (h *CatalogHandler) ListRegions(c *gin.Context) {
	regions := h.catalog.Regions()

	res := make([]regionResponse, 0, len(regions))
	for _, r := range regions {
		res = append(res, toRegionResponse(r))
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"regions": res,
	}))
}

// ResolveRegion resolves a country (and free-zone flag) to its region and compliance profile
// @Summary      Resolve region
// @Description  Resolves a country code to its region profile and compliance requirements
// @Tags         catalog
// @Produce      json
// @Param        country    query     string  true   "ISO country code"
// @Param        free_zone  query     bool    false  "Free-zone outlet"
// @Success      200        {object}  response.Response{data=object}
// @Failure      404        {object}  response.Response
// @Router       /api/catalog/regions/resolve [get]
func (h *CatalogHandler) ResolveRegion(c *gin.Context) {
	country := c.Query("country")
	freeZone, _ := strconv.ParseBool(c.DefaultQuery("free_zone", "false"))

	region, err := h.catalog.Resolve(country, freeZone)
	if err != nil {
		c.JSON(http.StatusNotFound, response.ErrorWithCode(http.StatusNotFound, "UNKNOWN_REGION", err.Error()))
		return
	}

	data := map[string]interface{}{
		"region": toRegionResponse(region),
	}
	if compliance, err := h.catalog.ComplianceFor(region.ComplianceCode); err == nil {
		data["compliance"] = complianceResponse{
			Code:                compliance.Code,
			HalalCertified:      compliance.HalalCertified,
			ArabicLabeling:      compliance.ArabicLabeling,
			HACCPRequired:       compliance.HACCPRequired,
			PrivacyLaw:          compliance.PrivacyLaw,
			OfflineModeRequired: compliance.OfflineModeRequired,
		}
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}

// ListFlavors lists the flavors sellable in a country
// @Summary      List flavors
// @Description  Retrieves the flavors sellable in a country, including global range flavors
// @Tags         catalog
// @Produce      json
// @Param        country  query     string  true  "ISO country code"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/catalog/flavors [get]
func (h *CatalogHandler) ListFlavors(c *gin.Context) {
	country := c.Query("country")
	if country == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "country is required"))
		return
	}
	flavors := h.catalog.FlavorsForRegion(country)

	res := make([]flavorResponse, 0, len(flavors))
	for _, f := range flavors {
		res = append(res, flavorResponse{
			Code:               f.Code,
			Name:               f.Name,
			Tier:               f.Tier,
			Allergens:          f.Allergens,
			PricePerGram:       f.PricePerGram.StringFixed(4),
			Regions:            f.Regions,
			LoyaltyBoostFactor: f.LoyaltyBoostFactor.StringFixed(2),
			VIPOnly:            f.VIPOnly,
			MinTierRequired:    f.MinTierRequired,
		})
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"flavors": res,
	}))
}

func toRegionResponse(r *catalog.RegionProfile) regionResponse {
	return regionResponse{
		Code:              r.Code,
		Country:           r.Country,
		Currency:          r.Currency,
		MinorUnits:        r.MinorUnits,
		PricePerKg:        r.PricePerKg.StringFixed(r.MinorUnits),
		TaxName:           r.Tax.Name,
		TaxRate:           r.Tax.Rate.StringFixed(4),
		TaxInclusive:      r.Tax.IsInclusive,
		FreeZone:          r.FreeZone,
		CardSurchargeRate: r.CardSurchargeRate.StringFixed(4),
		ComplianceCode:    r.ComplianceCode,
	}
}
