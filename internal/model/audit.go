package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCheckout         = "CHECKOUT"
	ActionOfflineCapture   = "OFFLINE_CAPTURE"
	ActionOfflineSyncFail  = "OFFLINE_SYNC_FAILED"
	ActionIssueEGift       = "ISSUE_EGIFT"
	ActionRedeemEGift      = "REDEEM_EGIFT"
	ActionRoyaltyRun       = "ROYALTY_RUN"
	ActionRiskAssessment   = "RISK_ASSESSMENT"
	ActionStockAdjust      = "STOCK_ADJUST"
	ActionCreateCashier    = "CREATE_CASHIER"
	ActionResolveFailed    = "RESOLVE_FAILED_SYNC"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *Cashier   `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
