// Package fault defines the typed errors raised by the fulfillment and
// scheduling transactions. Every error carries a stable machine code plus
// structured details so the route layer can map it to an HTTP response
// without parsing messages.
package fault

import (
	"errors"
	"fmt"
)

// Machine codes carried by TransactionError.
const (
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeReferentialIntegrity    = "REFERENTIAL_INTEGRITY"
	CodeDuplicateOperation      = "DUPLICATE_OPERATION"
	CodeSchedulingConflict      = "SCHEDULING_CONFLICT"
)

// TransactionError is the base type for all typed transaction failures.
// Raising one inside a gorm transaction closure aborts and rolls back the
// whole transaction.
type TransactionError struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// InvalidStatusTransition reports an attempted edge that is not in the
// entity's transition table, or the zero-row guarded-update race case.
func InvalidStatusTransition(entityType, current, requested string) *TransactionError {
	return &TransactionError{
		Code:    CodeInvalidStatusTransition,
		Message: fmt.Sprintf("%s cannot transition from %q to %q", entityType, current, requested),
		Details: map[string]any{
			"entityType": entityType,
			"current":    current,
			"requested":  requested,
		},
	}
}

// ReferentialIntegrity reports a missing referenced entity or a failed role
// check on one.
func ReferentialIntegrity(entityType, id, reason string) *TransactionError {
	return &TransactionError{
		Code:    CodeReferentialIntegrity,
		Message: fmt.Sprintf("%s %s: %s", entityType, id, reason),
		Details: map[string]any{
			"entityType": entityType,
			"id":         id,
			"reason":     reason,
		},
	}
}

// DuplicateOperation reports an at-most-once side effect that has already
// occurred.
func DuplicateOperation(operation, reason string) *TransactionError {
	return &TransactionError{
		Code:    CodeDuplicateOperation,
		Message: fmt.Sprintf("%s: %s", operation, reason),
		Details: map[string]any{
			"operation": operation,
			"reason":    reason,
		},
	}
}

// SchedulingConflict reports a hard booking overlap that blocked a slot
// booking.
func SchedulingConflict(contractorID string, overlaps int) *TransactionError {
	return &TransactionError{
		Code:    CodeSchedulingConflict,
		Message: fmt.Sprintf("contractor %s has %d overlapping commitments", contractorID, overlaps),
		Details: map[string]any{
			"contractorId": contractorID,
			"overlaps":     overlaps,
		},
	}
}

// CodeOf returns the machine code of err, or "" if err is not a
// TransactionError.
func CodeOf(err error) string {
	var te *TransactionError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func is(err error, code string) bool { return CodeOf(err) == code }

// IsInvalidStatusTransition reports whether err is an invalid-transition error.
func IsInvalidStatusTransition(err error) bool { return is(err, CodeInvalidStatusTransition) }

// IsReferentialIntegrity reports whether err is a referential-integrity error.
func IsReferentialIntegrity(err error) bool { return is(err, CodeReferentialIntegrity) }

// IsDuplicateOperation reports whether err is a duplicate-operation error.
func IsDuplicateOperation(err error) bool { return is(err, CodeDuplicateOperation) }

// IsSchedulingConflict reports whether err is a scheduling-conflict error.
func IsSchedulingConflict(err error) bool { return is(err, CodeSchedulingConflict) }
