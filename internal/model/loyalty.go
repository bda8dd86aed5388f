package model

import (
	"time"

	"github.com/google/uuid"
)

// Loyalty tier constants, ascending.
const (
	TierStandard = "STANDARD"
	TierGold     = "GOLD"
	TierPlatinum = "PLATINUM"
	TierDiamond  = "DIAMOND"
)

// TierRank maps a tier name to its ordinal for gate comparisons. Unknown
// tiers rank below STANDARD.
func TierRank(tier string) int {
	switch tier {
	case TierStandard:
		return 1
	case TierGold:
		return 2
	case TierPlatinum:
		return 3
	case TierDiamond:
		return 4
	default:
		return 0
	}
}

// LoyaltyAccount tracks a customer's accrual state. Tier is derived from
// LifetimePoints and never decreases.
type LoyaltyAccount struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"customer_id"`
	PointsBalance  int64     `gorm:"not null;default:0" json:"points_balance"`
	LifetimePoints int64     `gorm:"not null;default:0" json:"lifetime_points"`
	Tier           string    `gorm:"type:varchar(20);not null;default:'STANDARD'" json:"tier"`
	Version        int64     `gorm:"not null;default:0" json:"-"` // optimistic lock
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
