package scheduling

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/ident"
	"github.com/homeit/platform/internal/models"
)

// GenerateOpts controls daily slot generation.
type GenerateOpts struct {
	StartHour    int           // first slot start, local hour (default 9)
	EndHour      int           // no slot starts at or after this hour (default 17)
	SlotDuration time.Duration // default 1h
	Actor        string
}

// GenerateDailySlots creates a contractor's open availability slots for one
// day, skipping any window that already overlaps an existing slot. Each
// created slot is audited as slot_generated.
func GenerateDailySlots(db *gorm.DB, contractorID string, day time.Time, opts GenerateOpts) ([]models.TimeSlot, error) {
	if contractorID == "" {
		return nil, fmt.Errorf("scheduling: contractorID is required")
	}
	if opts.StartHour == 0 {
		opts.StartHour = 9
	}
	if opts.EndHour == 0 {
		opts.EndHour = 17
	}
	if opts.SlotDuration == 0 {
		opts.SlotDuration = time.Hour
	}
	if opts.EndHour <= opts.StartHour {
		return nil, fmt.Errorf("scheduling: end hour %d must be after start hour %d", opts.EndHour, opts.StartHour)
	}

	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	var created []models.TimeSlot
	err := db.Transaction(func(tx *gorm.DB) error {
		for start := date.Add(time.Duration(opts.StartHour) * time.Hour); start.Hour() < opts.EndHour; start = start.Add(opts.SlotDuration) {
			end := start.Add(opts.SlotDuration)

			var existing int64
			if err := tx.Model(&models.TimeSlot{}).
				Where("contractor_id = ?", contractorID).
				Where("start_time < ? AND ? < end_time", end, start).
				Count(&existing).Error; err != nil {
				return fmt.Errorf("scheduling: check existing slots: %w", err)
			}
			if existing > 0 {
				continue
			}

			slot := models.TimeSlot{
				ID:           ident.NewID(),
				ContractorID: contractorID,
				SlotDate:     date,
				StartTime:    start,
				EndTime:      end,
				SlotType:     models.SlotStandard,
			}
			if err := tx.Create(&slot).Error; err != nil {
				return fmt.Errorf("scheduling: create slot: %w", err)
			}
			if err := appendAudit(tx, auditEntry{
				Action:       models.AuditSlotGenerated,
				ContractorID: contractorID,
				TimeSlotID:   slot.ID,
				Actor:        opts.Actor,
				After:        slot,
			}); err != nil {
				return err
			}
			created = append(created, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
