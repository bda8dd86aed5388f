package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EGift is a prepaid, single-redemption gift instrument. Transfer is a policy
// invariant: no e-gift is ever transferable, whatever the row says.
type EGift struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code             string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	PackageCode      string          `gorm:"type:varchar(50);not null" json:"package_code"`
	Currency         string          `gorm:"type:varchar(3);not null" json:"currency"`
	Value            decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"value"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"remaining_balance"`
	AllowedCountries string          `gorm:"type:varchar(100)" json:"allowed_countries"` // comma-separated country codes, empty = all
	ExpiresAt        time.Time       `gorm:"not null;index" json:"expires_at"`
	Redeemed         bool            `gorm:"not null;default:false" json:"redeemed"`
	RedeemedTxID     *uuid.UUID      `gorm:"type:uuid" json:"redeemed_tx_id"`
	Version          int64           `gorm:"not null;default:0" json:"-"` // optimistic lock
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

// AllowsCountry reports whether the gift may be redeemed in the given country.
func (g *EGift) AllowsCountry(country string) bool {
	if g.AllowedCountries == "" {
		return true
	}
	for _, code := range strings.Split(g.AllowedCountries, ",") {
		if strings.TrimSpace(code) == country {
			return true
		}
	}
	return false
}
