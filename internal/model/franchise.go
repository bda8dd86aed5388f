package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Franchise holds the fee schedule agreed with one franchisee. Percentages
// are whole percents (e.g. 6.5 = 6.5%).
type Franchise struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name               string          `gorm:"type:varchar(255);not null" json:"name"`
	StoreID            string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"store_id"`
	Country            string          `gorm:"type:varchar(2);not null" json:"country"`
	Currency           string          `gorm:"type:varchar(3);not null" json:"currency"`
	RoyaltyPercent     decimal.Decimal `gorm:"type:decimal(6,3);not null" json:"royalty_percent"`
	MarketingPercent   decimal.Decimal `gorm:"type:decimal(6,3);not null" json:"marketing_percent"`
	TechnologyPercent  decimal.Decimal `gorm:"type:decimal(6,3);not null" json:"technology_percent"`
	Active             bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// RoyaltyCalculation is one settled royalty run for a franchise and period.
// Unique per (franchise, period) so re-running a period is idempotent.
type RoyaltyCalculation struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FranchiseID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_franchise_period,priority:1" json:"franchise_id"`
	Franchise      *Franchise      `gorm:"foreignKey:FranchiseID" json:"franchise,omitempty"`
	Period         string          `gorm:"type:varchar(7);not null;uniqueIndex:ux_franchise_period,priority:2" json:"period"` // YYYY-MM
	GrossRevenue   decimal.Decimal `gorm:"type:decimal(16,4);not null" json:"gross_revenue"`
	RoyaltyAmount  decimal.Decimal `gorm:"type:decimal(16,4);not null" json:"royalty_amount"`
	MarketingFee   decimal.Decimal `gorm:"type:decimal(16,4);not null" json:"marketing_fee"`
	TechnologyFee  decimal.Decimal `gorm:"type:decimal(16,4);not null" json:"technology_fee"`
	TotalDue       decimal.Decimal `gorm:"type:decimal(16,4);not null" json:"total_due"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`
	CalculatedAt   time.Time       `gorm:"not null" json:"calculated_at"`
	CreatedAt      time.Time       `json:"created_at"`
}
