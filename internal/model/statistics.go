package model

import (
	"time"
)

// RevenueStatement aggregates settled transaction totals for one store over
// a time range. Figures travel as fixed-point decimal strings.
type RevenueStatement struct {
	StoreID            string          `json:"store_id"`
	Currency           string          `json:"currency"`
	GrossRevenue       string          `json:"gross_revenue"`
	TaxCollected       string          `json:"tax_collected"`
	DiscountsGiven     string          `json:"discounts_given"`
	TransactionCount   int64           `json:"transaction_count"`
	TopFlavors         []FlavorRanking `json:"top_flavors"`
	TimeRangeStartDate time.Time       `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time       `json:"time_range_end_date"`
}

// FlavorRanking represents a ranked flavor based on accumulated grams sold
type FlavorRanking struct {
	FlavorCode string `json:"flavor_code"`
	TotalGrams int64  `json:"total_grams"`
	TotalValue string `json:"total_value"`
}
