package model

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus constants. SYNCED and FAILED are terminal.
const (
	SyncPending = "PENDING"
	SyncSyncing = "SYNCING"
	SyncSynced  = "SYNCED"
	SyncFailed  = "FAILED"
)

// Offline operation bounds. Both are re-checked on every capture attempt.
const (
	OfflineMaxWindow      = 3 * time.Hour
	OfflineMaxBuffered    = 500
	OfflineMaxSyncRetries = 5
)

// OfflineTransaction is a checkout captured while the terminal had no
// connectivity. Payload carries the full priced transaction snapshot so the
// replay is bit-exact. Ordering on replay follows CapturedAt.
type OfflineTransaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID      string     `gorm:"type:varchar(50);not null;index" json:"store_id"`
	DeviceID     string     `gorm:"type:varchar(50);not null;index" json:"device_id"`
	Payload      string     `gorm:"type:jsonb;not null" json:"payload"` // serialized PosTransaction snapshot
	SyncStatus   string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"sync_status"`
	SyncAttempts int        `gorm:"not null;default:0" json:"sync_attempts"`
	LastError    string     `gorm:"type:text" json:"last_error,omitempty"`
	CapturedAt   time.Time  `gorm:"not null;index" json:"captured_at"`
	SyncedAt     *time.Time `json:"synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
