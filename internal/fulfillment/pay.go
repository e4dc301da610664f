package fulfillment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/loyalty"
	"github.com/homeit/platform/internal/models"
	"github.com/homeit/platform/internal/status"
)

// loyaltyEarnRate is the fraction of an invoice total credited back as
// loyalty points on payment.
var loyaltyEarnRate = decimal.NewFromFloat(0.01)

// PayInvoice marks an invoice paid and credits the member's loyalty ledger,
// all in one transaction. The transactionID is the idempotency key: a
// replay of an already-settled payment returns the paid invoice unchanged
// without double-crediting points, while a transactionID seen on a
// different invoice is rejected. The update is double-guarded
// (status sent/overdue AND transaction_id IS NULL) so two concurrent
// attempts cannot both succeed.
func PayInvoice(db *gorm.DB, invoiceID, paymentMethod, transactionID string) (*models.Invoice, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("fulfillment: invoiceID is required")
	}
	if paymentMethod == "" {
		return nil, fmt.Errorf("fulfillment: paymentMethod is required")
	}
	if transactionID == "" {
		return nil, fmt.Errorf("fulfillment: transactionID is required")
	}

	var invoice models.Invoice

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.ReferentialIntegrity(status.EntityInvoice, invoiceID, "not found")
			}
			return fmt.Errorf("fulfillment: load invoice %s: %w", invoiceID, err)
		}

		// Idempotency check before touching anything.
		var settled models.Invoice
		err := tx.Where("transaction_id = ?", transactionID).First(&settled).Error
		switch {
		case err == nil:
			if settled.ID == invoiceID && settled.Status == models.InvoicePaid {
				// Replay of a completed payment: success, not error.
				invoice = settled
				return nil
			}
			return fault.DuplicateOperation("pay_invoice",
				fmt.Sprintf("transaction %s already recorded against invoice %s", transactionID, settled.ID))
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First sighting of this transaction, proceed.
		default:
			return fmt.Errorf("fulfillment: check transaction %s: %w", transactionID, err)
		}

		if invoice.Status != models.InvoiceSent && invoice.Status != models.InvoiceOverdue {
			return fault.InvalidStatusTransition(status.EntityInvoice, invoice.Status, models.InvoicePaid)
		}

		now := time.Now()
		result := tx.Model(&models.Invoice{}).
			Where("id = ? AND status IN ? AND transaction_id IS NULL",
				invoiceID, []string{models.InvoiceSent, models.InvoiceOverdue}).
			Updates(map[string]any{
				"status":         models.InvoicePaid,
				"payment_method": paymentMethod,
				"transaction_id": transactionID,
				"paid_at":        now,
				"amount_due":     decimal.Zero,
			})
		if result.Error != nil {
			return fmt.Errorf("fulfillment: pay invoice %s: %w", invoiceID, result.Error)
		}
		if result.RowsAffected == 0 {
			// Lost the race. Re-read to tell "someone else paid it" apart
			// from an invalid prior status.
			current, err := status.Current(tx, status.EntityInvoice, invoiceID)
			if err != nil {
				return err
			}
			if current == models.InvoicePaid {
				return fault.DuplicateOperation("pay_invoice",
					fmt.Sprintf("invoice %s is already paid", invoiceID))
			}
			return fault.InvalidStatusTransition(status.EntityInvoice, current, models.InvoicePaid)
		}

		points := int(invoice.Total.Mul(loyaltyEarnRate).Floor().IntPart())
		if points > 0 {
			entry := &models.LoyaltyPointTransaction{
				MemberID:        invoice.MemberID,
				TransactionType: models.PointsEarned,
				Points:          points,
				Description:     fmt.Sprintf("Payment of invoice %s", invoice.InvoiceNumber),
				ReferenceID:     invoice.ID,
				ReferenceType:   "invoice",
				CreatedAt:       now,
			}
			if err := loyalty.Credit(tx, entry); err != nil {
				return err
			}
		}

		invoice.Status = models.InvoicePaid
		invoice.PaymentMethod = paymentMethod
		invoice.TransactionID = &transactionID
		invoice.PaidAt = &now
		invoice.AmountDue = decimal.Zero
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
