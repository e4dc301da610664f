package models

import "time"

// WorkOrder statuses.
const (
	WorkOrderCreated    = "created"
	WorkOrderInProgress = "in_progress"
	WorkOrderCompleted  = "completed"
	WorkOrderCancelled  = "cancelled"
)

// WorkOrder is the contractor-side record of a fulfillment. At most one
// non-cancelled work order exists per service request (unique index on
// ServiceRequestID); it is created only by the fulfillment orchestrator as a
// side effect of assignment or estimate approval, never directly by clients.
type WorkOrder struct {
	ID                 string `gorm:"primaryKey;size:36"`
	ServiceRequestID   string `gorm:"size:36;not null;uniqueIndex"`
	ContractorID       string `gorm:"size:36;not null;index"`
	WorkOrderNumber    string `gorm:"size:32;not null;uniqueIndex"`
	Status             string `gorm:"size:16;default:created;index"`
	ScheduledStartDate *time.Time
	ScheduledEndDate   *time.Time
	CompletionNotes    string `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	ServiceRequest ServiceRequest `gorm:"foreignKey:ServiceRequestID"`
}
