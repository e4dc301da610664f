package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// Invoice bills a member for fulfilled work. TransactionID is the payment
// idempotency key: unique when present, and set if and only if the invoice
// is paid.
type Invoice struct {
	ID            string          `gorm:"primaryKey;size:36"`
	InvoiceNumber string          `gorm:"size:32;not null;uniqueIndex"`
	EstimateID    *string         `gorm:"size:36;uniqueIndex"`
	WorkOrderID   *string         `gorm:"size:36;index"`
	MemberID      string          `gorm:"size:36;not null;index"`
	Status        string          `gorm:"size:16;default:draft;index"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Tax           decimal.Decimal `gorm:"type:decimal(10,2)"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	AmountDue     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DueDate       *time.Time
	PaymentMethod string  `gorm:"size:32"`
	TransactionID *string `gorm:"size:64;uniqueIndex"`
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

// InvoiceItem is a single line on an invoice.
type InvoiceItem struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	InvoiceID   string          `gorm:"size:36;not null;index"`
	Description string          `gorm:"size:500;not null"`
	Quantity    int             `gorm:"default:1"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time
}
