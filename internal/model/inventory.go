package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inventory alert type constants. Alerts are derived from item state and the
// current clock; they are never stored.
const (
	AlertLowStock     = "LOW_STOCK"
	AlertExpiringSoon = "EXPIRING_SOON"
	AlertExpired      = "EXPIRED"
)

// InventoryItem is the stock of one flavor at one store, tracked in grams.
type InventoryItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID     string         `gorm:"type:varchar(50);not null;uniqueIndex:ux_store_flavor,priority:1" json:"store_id"`
	FlavorCode  string         `gorm:"type:varchar(50);not null;uniqueIndex:ux_store_flavor,priority:2" json:"flavor_code"`
	QuantityG   int64          `gorm:"not null;default:0" json:"quantity_g"`
	SafetyStock int64          `gorm:"not null;default:0" json:"safety_stock_g"`
	BatchCode   string         `gorm:"type:varchar(50)" json:"batch_code"`
	ExpiresAt   *time.Time     `gorm:"index" json:"expires_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// StockMovementType Enum Simulation
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement records every change to an inventory item, strictly append-only.
type StockMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ItemID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"item_id"`
	TransactionID *uuid.UUID `gorm:"type:uuid;index" json:"transaction_id"` // Nullable for manual adjustments
	MovementType  string     `gorm:"type:varchar(10);not null" json:"movement_type"` // IN, OUT
	GramsChanged  int64      `gorm:"not null" json:"grams_changed"`
	StockAfter    int64      `gorm:"not null" json:"stock_after"`
	CreatedAt     time.Time  `json:"created_at"`
}
