package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service types offered on the platform.
const (
	ServiceFixiT      = "FixiT"
	ServicePreventiT  = "PreventiT"
	ServiceHandleiT   = "HandleiT"
	ServiceCheckiT    = "CheckiT"
	ServiceLoyalizeiT = "LoyalizeiT"
)

// ServiceRequest statuses.
const (
	RequestPending          = "pending"
	RequestAssigned         = "assigned"
	RequestInProgress       = "in_progress"
	RequestCompleted        = "completed"
	RequestCancelled        = "cancelled"
	RequestOnHold           = "on_hold"
	RequestRequiresApproval = "requires_approval"
)

// ServiceRequest is the member-facing entry point of the fulfillment
// pipeline. HomeManagerID is null exactly while status is pending; rows are
// never deleted, the lifecycle ends in completed or cancelled.
type ServiceRequest struct {
	ID                string  `gorm:"primaryKey;size:36"`
	MemberID          string  `gorm:"size:36;not null;index"`
	ServiceType       string  `gorm:"size:16;not null;index"`
	Status            string  `gorm:"size:24;default:pending;index"`
	HomeManagerID     *string `gorm:"size:36;index"`
	Title             string  `gorm:"size:255;not null"`
	Description       string  `gorm:"type:text"`
	PreferredDateTime *time.Time
	EstimatedDuration int             // minutes
	EstimatedCost     decimal.Decimal `gorm:"type:decimal(10,2)"`
	RequiresEscrow    bool            `gorm:"default:false"`
	EscrowAmount      decimal.Decimal `gorm:"type:decimal(10,2)"`
	PointsReward      int             `gorm:"default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time

	WorkOrders []WorkOrder `gorm:"foreignKey:ServiceRequestID"`
	Estimates  []Estimate  `gorm:"foreignKey:ServiceRequestID"`
}
