package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod constants
const (
	PaymentCash   = "CASH"
	PaymentCard   = "CARD"
	PaymentWallet = "WALLET"
	PaymentEGift  = "EGIFT"
)

// Transaction status constants
const (
	TxStatusSettled = "SETTLED"
	TxStatusVoided  = "VOIDED"
)

// PosTransaction is one settled checkout. Rows are written once when the sale
// settles (live or replayed from an offline buffer) and never mutated after.
type PosTransaction struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID             string            `gorm:"type:varchar(50);not null;index" json:"store_id"`
	DeviceID            string            `gorm:"type:varchar(50);index" json:"device_id"`
	RegionCode          string            `gorm:"type:varchar(20);not null" json:"region_code"`
	Currency            string            `gorm:"type:varchar(3);not null" json:"currency"`
	Subtotal            decimal.Decimal   `gorm:"type:decimal(14,4);not null" json:"subtotal"`
	TaxAmount           decimal.Decimal   `gorm:"type:decimal(14,4);not null" json:"tax_amount"`
	DiscountAmount      decimal.Decimal   `gorm:"type:decimal(14,4);not null" json:"discount_amount"`
	Total               decimal.Decimal   `gorm:"type:decimal(14,4);not null" json:"total"`
	PaymentMethod       string            `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentProviderRef  string            `gorm:"type:varchar(100)" json:"payment_provider_ref"`
	LoyaltyPointsEarned int64             `gorm:"not null;default:0" json:"loyalty_points_earned"`
	CustomerID          *uuid.UUID        `gorm:"type:uuid;index" json:"customer_id"`
	Status              string            `gorm:"type:varchar(20);not null;default:'SETTLED'" json:"status"`
	Lines               []TransactionLine `gorm:"foreignKey:TransactionID" json:"lines"`
	CreatedAt           time.Time         `gorm:"index" json:"created_at"`
}

// TransactionLine is one weighed product line within a transaction.
type TransactionLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	FlavorCode    string          `gorm:"type:varchar(50);not null" json:"flavor_code"`
	Grams         int64           `gorm:"not null" json:"grams"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"unit_price"` // per gram
	LineTotal     decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"line_total"`
}
