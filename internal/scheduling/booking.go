package scheduling

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/ident"
	"github.com/homeit/platform/internal/models"
)

// travelBuffer is the minimum gap after another commitment before a new
// booking starts without a travel-time flag.
const travelBuffer = 30 * time.Minute

// BookOpts holds optional booking parameters.
type BookOpts struct {
	SlotType       string // defaults to standard
	Actor          string // user performing the booking, for the audit log
	AdminOverride  bool   // book despite hard conflicts
	OverrideReason string // required when AdminOverride is set
}

// detected is one overlap found while evaluating a booking.
type detected struct {
	conflictType string
	severity     string
	start, end   time.Time
	details      string
}

// BookSlot books [start, end) on a contractor's calendar for a work order.
//
// Severity policy: overlap with another work order or a booked slot is a
// hard conflict and blocks the booking (unless an admin overrides with a
// reason); overlap with a blocked slot is soft, and a commitment ending
// within 30 minutes of the new start is a travel conflict. Soft and travel
// book anyway but leave a ScheduleConflict row for review. Hard conflicts that
// block are also recorded, outside the aborted booking transaction, so the
// rejection is visible to dispatchers.
func BookSlot(db *gorm.DB, contractorID, workOrderID string, start, end time.Time, opts BookOpts) (*models.TimeSlot, error) {
	if contractorID == "" {
		return nil, fmt.Errorf("scheduling: contractorID is required")
	}
	if workOrderID == "" {
		return nil, fmt.Errorf("scheduling: workOrderID is required")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("scheduling: end %s must be after start %s", end, start)
	}
	if opts.AdminOverride && opts.OverrideReason == "" {
		return nil, fmt.Errorf("scheduling: admin override requires a reason")
	}
	if opts.SlotType == "" {
		opts.SlotType = models.SlotStandard
	}

	var order models.WorkOrder
	if err := db.Where("id = ?", workOrderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.ReferentialIntegrity("work_order", workOrderID, "not found")
		}
		return nil, fmt.Errorf("scheduling: load work order %s: %w", workOrderID, err)
	}

	found, err := detectConflicts(db, contractorID, workOrderID, start, end)
	if err != nil {
		return nil, err
	}

	hard := 0
	for _, d := range found {
		if d.severity == models.SeverityHard {
			hard++
		}
	}

	if hard > 0 && !opts.AdminOverride {
		// Booking is rejected; record the conflicts in their own
		// transaction so the evidence survives the rejection.
		if err := recordConflicts(db, contractorID, workOrderID, found); err != nil {
			return nil, err
		}
		return nil, fault.SchedulingConflict(contractorID, hard)
	}

	var slot *models.TimeSlot
	err = db.Transaction(func(tx *gorm.DB) error {
		before := order

		slot = &models.TimeSlot{
			ID:           ident.NewID(),
			ContractorID: contractorID,
			SlotDate:     start.Truncate(24 * time.Hour),
			StartTime:    start,
			EndTime:      end,
			SlotType:     opts.SlotType,
			IsBooked:     true,
			WorkOrderID:  &workOrderID,
		}
		if err := tx.Create(slot).Error; err != nil {
			return fmt.Errorf("scheduling: create slot: %w", err)
		}

		if err := tx.Model(&models.WorkOrder{}).Where("id = ?", workOrderID).
			Updates(map[string]any{
				"scheduled_start_date": start,
				"scheduled_end_date":   end,
			}).Error; err != nil {
			return fmt.Errorf("scheduling: update work order schedule: %w", err)
		}
		order.ScheduledStartDate = &start
		order.ScheduledEndDate = &end

		for _, d := range found {
			if d.severity == models.SeverityHard && !opts.AdminOverride {
				continue
			}
			if err := createConflict(tx, contractorID, workOrderID, d); err != nil {
				return err
			}
		}

		action := models.AuditSlotBooked
		reason := ""
		if opts.AdminOverride && hard > 0 {
			action = models.AuditAdminOverride
			reason = opts.OverrideReason
		}
		return appendAudit(tx, auditEntry{
			Action:       action,
			ContractorID: contractorID,
			WorkOrderID:  workOrderID,
			TimeSlotID:   slot.ID,
			Actor:        opts.Actor,
			Reason:       reason,
			Before:       before,
			After:        order,
		})
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// detectConflicts classifies every overlap of [start, end) with the
// contractor's existing commitments.
func detectConflicts(db *gorm.DB, contractorID, workOrderID string, start, end time.Time) ([]detected, error) {
	var found []detected

	orders, err := OverlappingWorkOrders(db, contractorID, start, end, workOrderID)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		found = append(found, detected{
			conflictType: "work_order_overlap",
			severity:     models.SeverityHard,
			start:        *o.ScheduledStartDate,
			end:          *o.ScheduledEndDate,
			details:      fmt.Sprintf("overlaps work order %s", o.WorkOrderNumber),
		})
	}

	slots, err := OverlappingTimeSlots(db, contractorID, start, end)
	if err != nil {
		return nil, err
	}
	for _, s := range slots {
		severity := models.SeverityHard
		details := fmt.Sprintf("overlaps booked slot %s", s.ID)
		if s.IsBlocked && !s.IsBooked {
			severity = models.SeveritySoft
			details = fmt.Sprintf("overlaps blocked slot %s", s.ID)
		}
		found = append(found, detected{
			conflictType: "slot_overlap",
			severity:     severity,
			start:        s.StartTime,
			end:          s.EndTime,
			details:      details,
		})
	}

	travel, err := travelConflicts(db, contractorID, workOrderID, start)
	if err != nil {
		return nil, err
	}
	return append(found, travel...), nil
}

// travelConflicts finds commitments ending inside (start-30m, start]: no
// overlap, but not enough travel time between jobs.
func travelConflicts(db *gorm.DB, contractorID, workOrderID string, start time.Time) ([]detected, error) {
	windowStart := start.Add(-travelBuffer)

	var orders []models.WorkOrder
	err := db.Where("contractor_id = ? AND status <> ? AND id <> ?", contractorID, models.WorkOrderCancelled, workOrderID).
		Where("scheduled_end_date > ? AND scheduled_end_date <= ?", windowStart, start).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("scheduling: travel check for %s: %w", contractorID, err)
	}

	var found []detected
	for _, o := range orders {
		found = append(found, detected{
			conflictType: "travel_buffer",
			severity:     models.SeverityTravel,
			start:        *o.ScheduledStartDate,
			end:          *o.ScheduledEndDate,
			details:      fmt.Sprintf("work order %s ends within %s of proposed start", o.WorkOrderNumber, travelBuffer),
		})
	}
	return found, nil
}

// createConflict inserts one ScheduleConflict row.
func createConflict(tx *gorm.DB, contractorID, workOrderID string, d detected) error {
	row := models.ScheduleConflict{
		ID:                   ident.NewID(),
		ContractorID:         contractorID,
		WorkOrderID:          workOrderID,
		ConflictType:         d.conflictType,
		Severity:             d.severity,
		ConflictingTimeStart: d.start,
		ConflictingTimeEnd:   d.end,
		Details:              d.details,
		CreatedAt:            time.Now(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("scheduling: create conflict: %w", err)
	}
	return appendAudit(tx, auditEntry{
		Action:       models.AuditConflictDetected,
		ContractorID: contractorID,
		WorkOrderID:  workOrderID,
		After:        row,
	})
}

// recordConflicts persists detected conflicts in their own transaction,
// used when the booking itself is rejected.
func recordConflicts(db *gorm.DB, contractorID, workOrderID string, found []detected) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, d := range found {
			if err := createConflict(tx, contractorID, workOrderID, d); err != nil {
				return err
			}
		}
		return nil
	})
}
