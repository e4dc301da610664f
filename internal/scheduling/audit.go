// Package scheduling computes contractor availability, detects interval
// overlaps between proposed bookings and existing commitments, and records
// conflicts with a severity-based resolution workflow. Every
// scheduling-relevant action lands in the append-only schedule audit log
// with before/after snapshots.
package scheduling

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/models"
)

// auditEntry describes one audit log append.
type auditEntry struct {
	Action       string
	ContractorID string
	WorkOrderID  string
	TimeSlotID   string
	Actor        string
	Reason       string
	Before       any
	After        any
}

// appendAudit writes one row to the schedule audit log inside the caller's
// transaction. Snapshots are stored as JSON; a nil snapshot becomes an
// empty string.
func appendAudit(tx *gorm.DB, e auditEntry) error {
	before, err := snapshot(e.Before)
	if err != nil {
		return err
	}
	after, err := snapshot(e.After)
	if err != nil {
		return err
	}

	row := models.ScheduleAuditLog{
		ContractorID: e.ContractorID,
		WorkOrderID:  e.WorkOrderID,
		TimeSlotID:   e.TimeSlotID,
		Action:       e.Action,
		Actor:        e.Actor,
		Reason:       e.Reason,
		BeforeState:  before,
		AfterState:   after,
		CreatedAt:    time.Now(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("scheduling: append audit %s: %w", e.Action, err)
	}
	return nil
}

func snapshot(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("scheduling: marshal audit snapshot: %w", err)
	}
	return string(b), nil
}

// AuditTrail returns the audit rows for a contractor, oldest first.
func AuditTrail(db *gorm.DB, contractorID string) ([]models.ScheduleAuditLog, error) {
	var rows []models.ScheduleAuditLog
	err := db.Where("contractor_id = ?", contractorID).
		Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("scheduling: audit trail %s: %w", contractorID, err)
	}
	return rows, nil
}
