package models

import "time"

// Slot types.
const (
	SlotStandard  = "standard"
	SlotEmergency = "emergency"
	SlotTravel    = "travel"
)

// Conflict severities.
const (
	SeverityHard   = "hard"
	SeveritySoft   = "soft"
	SeverityTravel = "travel"
)

// Schedule audit actions.
const (
	AuditSlotGenerated    = "slot_generated"
	AuditSlotBooked       = "slot_booked"
	AuditSlotReleased     = "slot_released"
	AuditConflictDetected = "conflict_detected"
	AuditConflictResolved = "conflict_resolved"
	AuditAdminOverride    = "admin_override"
)

// TimeSlot is a bookable block on a contractor's calendar. StartTime and
// EndTime form a half-open interval [start, end); for one contractor no two
// non-cancelled slots or work orders may overlap unless flagged as a
// conflict.
type TimeSlot struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ContractorID string    `gorm:"size:36;not null;index:idx_slot_contractor_time"`
	SlotDate     time.Time `gorm:"not null;index"`
	StartTime    time.Time `gorm:"not null;index:idx_slot_contractor_time"`
	EndTime      time.Time `gorm:"not null"`
	SlotType     string    `gorm:"size:16;default:standard"`
	IsBooked     bool      `gorm:"default:false"`
	IsBlocked    bool      `gorm:"default:false"`
	WorkOrderID  *string   `gorm:"size:36;index"`
	Notes        string    `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScheduleConflict records a detected booking overlap for human review.
// Resolution is terminal and one-way.
type ScheduleConflict struct {
	ID                   string    `gorm:"primaryKey;size:36"`
	ContractorID         string    `gorm:"size:36;not null;index"`
	WorkOrderID          string    `gorm:"size:36;index"`
	ConflictType         string    `gorm:"size:32;not null"` // work_order_overlap, slot_overlap, travel_buffer
	Severity             string    `gorm:"size:8;not null"`
	ConflictingTimeStart time.Time `gorm:"not null"`
	ConflictingTimeEnd   time.Time `gorm:"not null"`
	Details              string    `gorm:"size:500"`
	IsResolved           bool      `gorm:"default:false;index"`
	ResolvedBy           string    `gorm:"size:36"`
	ResolutionNotes      string    `gorm:"type:text"`
	ResolvedAt           *time.Time
	CreatedAt            time.Time
}

// ScheduleAuditLog is an append-only trace of every scheduling-relevant
// action with JSON before/after snapshots. Never updated or deleted.
type ScheduleAuditLog struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	ContractorID string `gorm:"size:36;index"`
	WorkOrderID  string `gorm:"size:36;index"`
	TimeSlotID   string `gorm:"size:36"`
	Action       string `gorm:"size:32;not null;index"`
	Actor        string `gorm:"size:36"`
	Reason       string `gorm:"size:500"`
	BeforeState  string `gorm:"type:text"`
	AfterState   string `gorm:"type:text"`
	CreatedAt    time.Time
}
