package db

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/homeit/platform/internal/models"
)

// Seed inserts a baseline development dataset: one admin, one contractor,
// and one homeowner with a member profile. Inserts use ON CONFLICT DO
// NOTHING so re-running is harmless.
func Seed(db *gorm.DB) error {
	users := []models.User{
		{ID: "admin-1", Email: "admin@homeit.local", FirstName: "Ada", LastName: "Admin", Role: models.RoleAdmin, Active: true},
		{ID: "contractor-1", Email: "contractor@homeit.local", FirstName: "Carl", LastName: "Contractor", Role: models.RoleContractor, Active: true},
		{ID: "homeowner-1", Email: "homeowner@homeit.local", FirstName: "Holly", LastName: "Homeowner", Role: models.RoleHomeowner, Active: true},
	}
	profiles := []models.MemberProfile{
		{ID: "member-1", UserID: "homeowner-1", MembershipTier: "HomePRO"},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&users).Error; err != nil {
			return fmt.Errorf("db: seed users: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&profiles).Error; err != nil {
			return fmt.Errorf("db: seed member profiles: %w", err)
		}
		return nil
	})
}
