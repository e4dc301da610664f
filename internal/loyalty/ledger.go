// Package loyalty manages the append-only loyalty-point ledger. Ledger rows
// are never updated or deleted; a member's balance is derived by summing
// them. The cached balance on the member profile is written only in the
// same transaction as its ledger row, so the two cannot diverge.
package loyalty

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/ident"
	"github.com/homeit/platform/internal/models"
)

// ErrInsufficientBalance is returned when a spend exceeds the member's
// ledger balance.
var ErrInsufficientBalance = errors.New("loyalty: insufficient point balance")

// Opts holds the optional reference link for a ledger entry.
type Opts struct {
	ReferenceID   string
	ReferenceType string // invoice, deal, adjustment
}

// Add credits points to a member. The ledger row and the cached balance
// increment commit in one transaction.
func Add(db *gorm.DB, memberID string, points int, description string, opts Opts) (*models.LoyaltyPointTransaction, error) {
	if points <= 0 {
		return nil, fmt.Errorf("loyalty: points must be positive, got %d", points)
	}

	entry := &models.LoyaltyPointTransaction{
		ID:              ident.NewID(),
		MemberID:        memberID,
		TransactionType: models.PointsEarned,
		Points:          points,
		Description:     description,
		ReferenceID:     opts.ReferenceID,
		ReferenceType:   opts.ReferenceType,
		CreatedAt:       time.Now(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return Credit(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Spend debits points from a member. The available balance is recomputed
// from the ledger inside the transaction, not read from the cache.
func Spend(db *gorm.DB, memberID string, points int, description string, opts Opts) (*models.LoyaltyPointTransaction, error) {
	if points <= 0 {
		return nil, fmt.Errorf("loyalty: points must be positive, got %d", points)
	}

	entry := &models.LoyaltyPointTransaction{
		ID:              ident.NewID(),
		MemberID:        memberID,
		TransactionType: models.PointsSpent,
		Points:          points,
		Description:     description,
		ReferenceID:     opts.ReferenceID,
		ReferenceType:   opts.ReferenceType,
		CreatedAt:       time.Now(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		balance, err := Balance(tx, memberID)
		if err != nil {
			return err
		}
		if balance < points {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, balance, points)
		}

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("loyalty: append spend: %w", err)
		}
		return adjustCache(tx, memberID, -points)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Credit appends an earned entry and bumps the cached balance inside an
// already-open transaction. The fulfillment orchestrator uses this so the
// payment, the ledger row, and the cache move in one commit.
func Credit(tx *gorm.DB, entry *models.LoyaltyPointTransaction) error {
	if entry.ID == "" {
		entry.ID = ident.NewID()
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("loyalty: append earn: %w", err)
	}
	return adjustCache(tx, entry.MemberID, entry.Points)
}

// Balance computes a member's balance from the ledger: sum of earned minus
// sum of spent.
func Balance(db *gorm.DB, memberID string) (int, error) {
	var balance int
	err := db.Model(&models.LoyaltyPointTransaction{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(CASE WHEN transaction_type = ? THEN points ELSE -points END), 0)", models.PointsEarned).
		Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("loyalty: balance %s: %w", memberID, err)
	}
	return balance, nil
}

// History returns a member's ledger entries, newest first.
func History(db *gorm.DB, memberID string) ([]models.LoyaltyPointTransaction, error) {
	var entries []models.LoyaltyPointTransaction
	err := db.Where("member_id = ?", memberID).
		Order("created_at DESC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("loyalty: history %s: %w", memberID, err)
	}
	return entries, nil
}

// adjustCache moves the denormalized balance on the member profile by
// delta. Zero rows means the member profile does not exist.
func adjustCache(tx *gorm.DB, memberID string, delta int) error {
	result := tx.Model(&models.MemberProfile{}).
		Where("id = ?", memberID).
		Update("loyalty_point_balance", gorm.Expr("loyalty_point_balance + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("loyalty: update cached balance %s: %w", memberID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.ReferentialIntegrity("member_profile", memberID, "not found")
	}
	return nil
}
