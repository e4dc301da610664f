package scheduling

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/models"
)

// Half-open interval overlap: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 AND s2 < e1. Touching boundaries do not overlap, so a job ending
// at 12:00 and one starting at 12:00 coexist. The predicate runs in SQL
// against the indexed timestamp columns.

// OverlappingWorkOrders returns the contractor's non-cancelled work orders
// whose scheduled window overlaps [start, end). excludeID skips the work
// order being (re)scheduled itself.
func OverlappingWorkOrders(db *gorm.DB, contractorID string, start, end time.Time, excludeID string) ([]models.WorkOrder, error) {
	q := db.Where("contractor_id = ? AND status <> ?", contractorID, models.WorkOrderCancelled).
		Where("scheduled_start_date IS NOT NULL AND scheduled_end_date IS NOT NULL").
		Where("scheduled_start_date < ? AND ? < scheduled_end_date", end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var orders []models.WorkOrder
	if err := q.Order("scheduled_start_date ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("scheduling: overlapping work orders for %s: %w", contractorID, err)
	}
	return orders, nil
}

// OverlappingTimeSlots returns the contractor's booked or blocked slots
// overlapping [start, end). Open availability slots are capacity, not
// commitments, so they are not reported.
func OverlappingTimeSlots(db *gorm.DB, contractorID string, start, end time.Time) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	err := db.Where("contractor_id = ?", contractorID).
		Where("is_booked = ? OR is_blocked = ?", true, true).
		Where("start_time < ? AND ? < end_time", end, start).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("scheduling: overlapping time slots for %s: %w", contractorID, err)
	}
	return slots, nil
}

// Availability returns the contractor's open (unbooked, unblocked) slots
// within [from, to), oldest first.
func Availability(db *gorm.DB, contractorID string, from, to time.Time) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	err := db.Where("contractor_id = ? AND is_booked = ? AND is_blocked = ?", contractorID, false, false).
		Where("start_time >= ? AND start_time < ?", from, to).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("scheduling: availability for %s: %w", contractorID, err)
	}
	return slots, nil
}
