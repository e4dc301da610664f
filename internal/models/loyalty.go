package models

import "time"

// Loyalty transaction types.
const (
	PointsEarned = "earned"
	PointsSpent  = "spent"
)

// LoyaltyPointTransaction is one row of the append-only loyalty ledger.
// Rows are never updated or deleted; a member's balance is the sum of
// earned minus spent. Corrections are made with compensating rows.
type LoyaltyPointTransaction struct {
	ID              string `gorm:"primaryKey;size:36"`
	MemberID        string `gorm:"size:36;not null;index"`
	TransactionType string `gorm:"size:8;not null"`
	Points          int    `gorm:"not null"`
	Description     string `gorm:"size:255"`
	ReferenceID     string `gorm:"size:36;index"`
	ReferenceType   string `gorm:"size:32"` // invoice, deal, adjustment
	CreatedAt       time.Time
}
