package model

import (
	"time"

	"github.com/google/uuid"
)

// Risk recommendation constants, ordered by severity.
const (
	RiskClear       = "CLEAR"
	RiskMonitor     = "MONITOR"
	RiskInvestigate = "INVESTIGATE"
	RiskAlert       = "ALERT"
)

// Risk pattern names surfaced to reviewers.
const (
	PatternWeightDiscrepancy = "WEIGHT_DISCREPANCY"
	PatternHighVoidRate      = "HIGH_VOID_RATE"
	PatternHighFreeProduct   = "HIGH_FREE_PRODUCT_RATE"
)

// RiskAssessment is one advisory scoring of a shift or cashier. It feeds the
// human review queue and never blocks anything on its own.
type RiskAssessment struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID         string    `gorm:"type:varchar(50);not null;index" json:"store_id"`
	ShiftRef        string    `gorm:"type:varchar(100)" json:"shift_ref"` // shift or cashier reference
	Score           int       `gorm:"not null" json:"score"`              // 0-100
	Patterns        string    `gorm:"type:jsonb" json:"patterns"`         // JSON array of pattern names
	Recommendation  string    `gorm:"type:varchar(20);not null" json:"recommendation"`
	ScaleWeightG    int64     `gorm:"not null" json:"scale_weight_g"`
	ChargedWeightG  int64     `gorm:"not null" json:"charged_weight_g"`
	VoidRate        float64   `gorm:"not null" json:"void_rate"`
	FreeProductRate float64   `gorm:"not null" json:"free_product_rate"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}
