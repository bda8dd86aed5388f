package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Cashier{},
		&model.PosTransaction{},
		&model.TransactionLine{},
		&model.OfflineTransaction{},
		&model.EGift{},
		&model.LoyaltyAccount{},
		&model.Franchise{},
		&model.RoyaltyCalculation{},
		&model.InventoryItem{},
		&model.StockMovement{},
		&model.RiskAssessment{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
