package fulfillment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/ident"
	"github.com/homeit/platform/internal/models"
	"github.com/homeit/platform/internal/status"
)

// invoiceTermDays is how long a member has to pay an invoice spawned from
// an approved estimate.
const invoiceTermDays = 30

// ApproveEstimate approves a pending estimate, finds or creates the work
// order for its service request, and issues the invoice. The
// Invoice.EstimateID unique FK guarantees at most one invoice per estimate;
// the work-order insert race (two approvals for the same request landing
// together) is resolved by catching the unique violation and re-reading the
// row the other transaction created.
func ApproveEstimate(db *gorm.DB, estimateID string) (*models.Estimate, error) {
	if estimateID == "" {
		return nil, fmt.Errorf("fulfillment: estimateID is required")
	}

	var estimate models.Estimate

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", estimateID).First(&estimate).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.ReferentialIntegrity(status.EntityEstimate, estimateID, "not found")
			}
			return fmt.Errorf("fulfillment: load estimate %s: %w", estimateID, err)
		}
		if estimate.Status != models.EstimatePending {
			return fault.InvalidStatusTransition(status.EntityEstimate, estimate.Status, models.EstimateApproved)
		}

		var invoiced int64
		if err := tx.Model(&models.Invoice{}).
			Where("estimate_id = ?", estimateID).
			Count(&invoiced).Error; err != nil {
			return fmt.Errorf("fulfillment: check existing invoice: %w", err)
		}
		if invoiced > 0 {
			return fault.DuplicateOperation("approve_estimate",
				fmt.Sprintf("invoice already exists for estimate %s", estimateID))
		}

		if err := status.Transition(tx, status.EntityEstimate, estimateID,
			models.EstimatePending, models.EstimateApproved, nil); err != nil {
			return err
		}

		var request models.ServiceRequest
		if err := tx.Where("id = ?", estimate.ServiceRequestID).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.ReferentialIntegrity(status.EntityServiceRequest, estimate.ServiceRequestID, "not found")
			}
			return fmt.Errorf("fulfillment: load service request %s: %w", estimate.ServiceRequestID, err)
		}

		order, err := findOrCreateWorkOrder(tx, &request, estimate.ContractorID)
		if err != nil {
			return err
		}

		if _, err := createInvoiceFromEstimate(tx, &estimate, &request, order); err != nil {
			return err
		}

		estimate.Status = models.EstimateApproved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

// RejectEstimate sets a pending estimate to rejected. No side effects.
func RejectEstimate(db *gorm.DB, estimateID string) (*models.Estimate, error) {
	if estimateID == "" {
		return nil, fmt.Errorf("fulfillment: estimateID is required")
	}

	var estimate models.Estimate

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", estimateID).First(&estimate).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.ReferentialIntegrity(status.EntityEstimate, estimateID, "not found")
			}
			return fmt.Errorf("fulfillment: load estimate %s: %w", estimateID, err)
		}

		if err := status.Transition(tx, status.EntityEstimate, estimateID,
			estimate.Status, models.EstimateRejected, nil); err != nil {
			return err
		}

		estimate.Status = models.EstimateRejected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

// findOrCreateWorkOrder returns the request's work order, creating it if
// absent. Insert optimistically; on a unique violation another transaction
// got there first, so re-read and use that row instead of failing.
func findOrCreateWorkOrder(tx *gorm.DB, request *models.ServiceRequest, contractorID string) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := tx.Where("service_request_id = ?", request.ID).First(&order).Error
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fulfillment: find work order for %s: %w", request.ID, err)
	}

	created, err := createWorkOrder(tx, request, contractorID)
	if err == nil {
		return created, nil
	}
	if !fault.IsDuplicateOperation(err) {
		return nil, err
	}

	if err := tx.Where("service_request_id = ?", request.ID).First(&order).Error; err != nil {
		return nil, fmt.Errorf("fulfillment: re-read work order for %s: %w", request.ID, err)
	}
	return &order, nil
}

// createInvoiceFromEstimate issues the sent invoice for an approved
// estimate, with line items derived from the estimate's cost breakdown.
func createInvoiceFromEstimate(tx *gorm.DB, estimate *models.Estimate, request *models.ServiceRequest, order *models.WorkOrder) (*models.Invoice, error) {
	now := time.Now()
	number, err := ident.InvoiceNumber(now)
	if err != nil {
		return nil, err
	}
	due := now.AddDate(0, 0, invoiceTermDays)

	invoice := &models.Invoice{
		ID:            ident.NewID(),
		InvoiceNumber: number,
		EstimateID:    &estimate.ID,
		WorkOrderID:   &order.ID,
		MemberID:      request.MemberID,
		Status:        models.InvoiceSent,
		Subtotal:      estimate.TotalCost,
		Tax:           decimal.Zero,
		Total:         estimate.TotalCost,
		AmountDue:     estimate.TotalCost,
		DueDate:       &due,
		Items:         invoiceItems(estimate),
	}

	if err := tx.Create(invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fault.DuplicateOperation("create_invoice",
				fmt.Sprintf("invoice already exists for estimate %s", estimate.ID))
		}
		return nil, fmt.Errorf("fulfillment: create invoice: %w", err)
	}
	return invoice, nil
}

// invoiceItems derives line items from an estimate's cost breakdown,
// falling back to a single line when no breakdown was provided.
func invoiceItems(estimate *models.Estimate) []models.InvoiceItem {
	var items []models.InvoiceItem
	if estimate.LaborCost.IsPositive() {
		items = append(items, models.InvoiceItem{
			Description: "Labor",
			Quantity:    1,
			UnitPrice:   estimate.LaborCost,
			Amount:      estimate.LaborCost,
		})
	}
	if estimate.MaterialsCost.IsPositive() {
		items = append(items, models.InvoiceItem{
			Description: "Materials",
			Quantity:    1,
			UnitPrice:   estimate.MaterialsCost,
			Amount:      estimate.MaterialsCost,
		})
	}
	if len(items) == 0 {
		items = append(items, models.InvoiceItem{
			Description: "Service per approved estimate",
			Quantity:    1,
			UnitPrice:   estimate.TotalCost,
			Amount:      estimate.TotalCost,
		})
	}
	return items
}
