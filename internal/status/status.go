// Package status is the guarded state machine for fulfillment entities. It
// owns the allowed-transition tables and performs status updates with a
// compound WHERE predicate so a concurrent transition loses the race
// atomically. No side effects happen here; orchestration lives in the
// fulfillment package.
package status

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/models"
)

// Entity type names used in error details.
const (
	EntityServiceRequest = "service_request"
	EntityWorkOrder      = "work_order"
	EntityEstimate       = "estimate"
	EntityInvoice        = "invoice"
)

// Transition tables. A missing key is a terminal state.
var (
	serviceRequestTransitions = map[string][]string{
		models.RequestPending:          {models.RequestAssigned, models.RequestCancelled, models.RequestOnHold, models.RequestRequiresApproval},
		models.RequestRequiresApproval: {models.RequestPending, models.RequestCancelled},
		models.RequestAssigned:         {models.RequestInProgress, models.RequestCancelled, models.RequestOnHold},
		models.RequestInProgress:       {models.RequestCompleted, models.RequestCancelled, models.RequestOnHold},
		models.RequestOnHold:           {models.RequestPending, models.RequestAssigned, models.RequestInProgress, models.RequestCancelled},
	}

	workOrderTransitions = map[string][]string{
		models.WorkOrderCreated:    {models.WorkOrderInProgress, models.WorkOrderCancelled},
		models.WorkOrderInProgress: {models.WorkOrderCompleted, models.WorkOrderCancelled},
	}

	estimateTransitions = map[string][]string{
		models.EstimatePending: {models.EstimateApproved, models.EstimateRejected, models.EstimateExpired},
	}

	invoiceTransitions = map[string][]string{
		models.InvoiceDraft:   {models.InvoiceSent, models.InvoiceCancelled},
		models.InvoiceSent:    {models.InvoicePaid, models.InvoiceOverdue, models.InvoiceCancelled},
		models.InvoiceOverdue: {models.InvoicePaid, models.InvoiceCancelled},
	}

	tables = map[string]map[string][]string{
		EntityServiceRequest: serviceRequestTransitions,
		EntityWorkOrder:      workOrderTransitions,
		EntityEstimate:       estimateTransitions,
		EntityInvoice:        invoiceTransitions,
	}

	entityModels = map[string]func() any{
		EntityServiceRequest: func() any { return &models.ServiceRequest{} },
		EntityWorkOrder:      func() any { return &models.WorkOrder{} },
		EntityEstimate:       func() any { return &models.Estimate{} },
		EntityInvoice:        func() any { return &models.Invoice{} },
	}
)

// Allowed reports whether the edge from -> to exists in entityType's table.
func Allowed(entityType, from, to string) bool {
	table, ok := tables[entityType]
	if !ok {
		return false
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves entity id from one status to another inside the caller's
// transaction. The update is guarded (`id = ? AND status = from`); when the
// edge is not in the table, or a concurrent transition already moved the
// row, a typed InvalidStatusTransition error carrying the actual persisted
// status is returned.
//
// extra columns are written in the same guarded update so dependent fields
// (assignee, payment details, timestamps) change atomically with the status.
func Transition(tx *gorm.DB, entityType, id, from, to string, extra map[string]any) error {
	if _, ok := tables[entityType]; !ok {
		return fmt.Errorf("status: unknown entity type %q", entityType)
	}
	if !Allowed(entityType, from, to) {
		return fault.InvalidStatusTransition(entityType, from, to)
	}

	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.Model(entityModels[entityType]()).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("status: transition %s %s %s->%s: %w", entityType, id, from, to, result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race or the caller's read was stale. Re-read to report
		// the real current status; the row may also be gone entirely.
		current, err := Current(tx, entityType, id)
		if err != nil {
			return err
		}
		return fault.InvalidStatusTransition(entityType, current, to)
	}
	return nil
}

// Current reads the persisted status of entity id.
func Current(tx *gorm.DB, entityType, id string) (string, error) {
	newModel, ok := entityModels[entityType]
	if !ok {
		return "", fmt.Errorf("status: unknown entity type %q", entityType)
	}
	var statuses []string
	if err := tx.Model(newModel()).Where("id = ?", id).Limit(1).Pluck("status", &statuses).Error; err != nil {
		return "", fmt.Errorf("status: read %s %s: %w", entityType, id, err)
	}
	if len(statuses) == 0 {
		return "", fault.ReferentialIntegrity(entityType, id, "not found")
	}
	return statuses[0], nil
}
