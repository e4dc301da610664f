package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/models"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.MemberProfile{},
		&models.ServiceRequest{},
		&models.WorkOrder{},
		&models.Estimate{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.LoyaltyPointTransaction{},
		&models.TimeSlot{},
		&models.ScheduleConflict{},
		&models.ScheduleAuditLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
