package scheduling

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/models"
)

// ResolveConflict marks a schedule conflict resolved. Resolution is
// one-way: the guarded update only matches unresolved rows, so a second
// resolution attempt fails instead of silently rewriting the notes.
func ResolveConflict(db *gorm.DB, conflictID, resolvedBy, notes string) (*models.ScheduleConflict, error) {
	if conflictID == "" {
		return nil, fmt.Errorf("scheduling: conflictID is required")
	}
	if resolvedBy == "" {
		return nil, fmt.Errorf("scheduling: resolvedBy is required")
	}
	if notes == "" {
		return nil, fmt.Errorf("scheduling: resolution notes are required")
	}

	var conflict models.ScheduleConflict

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", conflictID).First(&conflict).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.ReferentialIntegrity("schedule_conflict", conflictID, "not found")
			}
			return fmt.Errorf("scheduling: load conflict %s: %w", conflictID, err)
		}

		before := conflict
		now := time.Now()

		result := tx.Model(&models.ScheduleConflict{}).
			Where("id = ? AND is_resolved = ?", conflictID, false).
			Updates(map[string]any{
				"is_resolved":      true,
				"resolved_by":      resolvedBy,
				"resolution_notes": notes,
				"resolved_at":      now,
			})
		if result.Error != nil {
			return fmt.Errorf("scheduling: resolve conflict %s: %w", conflictID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fault.DuplicateOperation("resolve_conflict",
				fmt.Sprintf("conflict %s is already resolved", conflictID))
		}

		conflict.IsResolved = true
		conflict.ResolvedBy = resolvedBy
		conflict.ResolutionNotes = notes
		conflict.ResolvedAt = &now

		return appendAudit(tx, auditEntry{
			Action:       models.AuditConflictResolved,
			ContractorID: conflict.ContractorID,
			WorkOrderID:  conflict.WorkOrderID,
			Actor:        resolvedBy,
			Reason:       notes,
			Before:       before,
			After:        conflict,
		})
	})
	if err != nil {
		return nil, err
	}
	return &conflict, nil
}

// OpenConflicts returns a contractor's unresolved conflicts, most severe
// first.
func OpenConflicts(db *gorm.DB, contractorID string) ([]models.ScheduleConflict, error) {
	var conflicts []models.ScheduleConflict
	err := db.Where("contractor_id = ? AND is_resolved = ?", contractorID, false).
		Order("CASE severity WHEN 'hard' THEN 0 WHEN 'soft' THEN 1 ELSE 2 END, created_at ASC").
		Find(&conflicts).Error
	if err != nil {
		return nil, fmt.Errorf("scheduling: open conflicts for %s: %w", contractorID, err)
	}
	return conflicts, nil
}
