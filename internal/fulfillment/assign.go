// Package fulfillment composes status transitions into the atomic
// multi-entity operations of the service pipeline: assignment spawns the
// work order, estimate approval spawns the invoice, payment credits the
// loyalty ledger. Every operation runs in exactly one database transaction;
// any typed error aborts and rolls back the whole thing.
package fulfillment

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/ident"
	"github.com/homeit/platform/internal/models"
	"github.com/homeit/platform/internal/status"
)

// AssignServiceRequest moves a pending service request to assigned under a
// home manager and creates its single work order. The guarded status update
// plus the unique index on WorkOrder.ServiceRequestID make the operation
// safe under concurrent retries: one caller wins, the rest get typed
// errors.
func AssignServiceRequest(db *gorm.DB, serviceRequestID, managerID string) (*models.ServiceRequest, error) {
	if serviceRequestID == "" {
		return nil, fmt.Errorf("fulfillment: serviceRequestID is required")
	}
	if managerID == "" {
		return nil, fmt.Errorf("fulfillment: managerID is required")
	}

	var request models.ServiceRequest

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", serviceRequestID).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.ReferentialIntegrity(status.EntityServiceRequest, serviceRequestID, "not found")
			}
			return fmt.Errorf("fulfillment: load service request %s: %w", serviceRequestID, err)
		}
		if request.Status != models.RequestPending {
			return fault.InvalidStatusTransition(status.EntityServiceRequest, request.Status, models.RequestAssigned)
		}

		var manager models.User
		if err := tx.Where("id = ?", managerID).First(&manager).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.ReferentialIntegrity("user", managerID, "not found")
			}
			return fmt.Errorf("fulfillment: load manager %s: %w", managerID, err)
		}
		if !manager.Active {
			return fault.ReferentialIntegrity("user", managerID, "account is inactive")
		}
		if manager.Role != models.RoleContractor && manager.Role != models.RoleAdmin {
			return fault.ReferentialIntegrity("user", managerID,
				fmt.Sprintf("role %q cannot manage service requests", manager.Role))
		}

		var existing int64
		if err := tx.Model(&models.WorkOrder{}).
			Where("service_request_id = ?", serviceRequestID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("fulfillment: check existing work order: %w", err)
		}
		if existing > 0 {
			return fault.DuplicateOperation("assign_service_request",
				fmt.Sprintf("work order already exists for service request %s", serviceRequestID))
		}

		if err := status.Transition(tx, status.EntityServiceRequest, serviceRequestID,
			models.RequestPending, models.RequestAssigned,
			map[string]any{"home_manager_id": managerID}); err != nil {
			return err
		}

		if _, err := createWorkOrder(tx, &request, managerID); err != nil {
			return err
		}

		request.Status = models.RequestAssigned
		request.HomeManagerID = &managerID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// createWorkOrder inserts the work order for a request, copying the
// request's schedule hints.
func createWorkOrder(tx *gorm.DB, request *models.ServiceRequest, contractorID string) (*models.WorkOrder, error) {
	now := time.Now()
	number, err := ident.WorkOrderNumber(now)
	if err != nil {
		return nil, err
	}

	order := &models.WorkOrder{
		ID:               ident.NewID(),
		ServiceRequestID: request.ID,
		ContractorID:     contractorID,
		WorkOrderNumber:  number,
		Status:           models.WorkOrderCreated,
	}
	if request.PreferredDateTime != nil {
		start := *request.PreferredDateTime
		order.ScheduledStartDate = &start
		if request.EstimatedDuration > 0 {
			end := start.Add(time.Duration(request.EstimatedDuration) * time.Minute)
			order.ScheduledEndDate = &end
		}
	}

	if err := tx.Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fault.DuplicateOperation("create_work_order",
				fmt.Sprintf("work order already exists for service request %s", request.ID))
		}
		return nil, fmt.Errorf("fulfillment: create work order: %w", err)
	}
	return order, nil
}
