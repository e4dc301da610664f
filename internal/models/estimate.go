package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estimate statuses.
const (
	EstimatePending  = "pending"
	EstimateApproved = "approved"
	EstimateRejected = "rejected"
	EstimateExpired  = "expired"
)

// Estimate is a contractor's quote against a service request. Approval is
// what spawns the invoice; the Invoice.EstimateID unique FK guarantees at
// most one invoice ever exists per estimate.
type Estimate struct {
	ID               string          `gorm:"primaryKey;size:36"`
	ServiceRequestID string          `gorm:"size:36;not null;index"`
	ContractorID     string          `gorm:"size:36;not null;index"`
	Status           string          `gorm:"size:16;default:pending;index"`
	Description      string          `gorm:"type:text"`
	LaborCost        decimal.Decimal `gorm:"type:decimal(10,2)"`
	MaterialsCost    decimal.Decimal `gorm:"type:decimal(10,2)"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ValidUntil       time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	ServiceRequest ServiceRequest `gorm:"foreignKey:ServiceRequestID"`
}
