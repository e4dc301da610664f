// Package ident generates entity identifiers and human-facing document
// numbers.
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a UUID string for use as an entity primary key.
func NewID() string {
	return uuid.NewString()
}

// number builds a document number like "WO-20260828-a3f91c": prefix, UTC
// date stamp, 6-char random hex suffix.
func number(prefix string, now time.Time) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ident: generate %s number: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), hex.EncodeToString(b)), nil
}

// WorkOrderNumber returns a unique work-order number.
func WorkOrderNumber(now time.Time) (string, error) {
	return number("WO", now)
}

// InvoiceNumber returns a unique invoice number.
func InvoiceNumber(now time.Time) (string, error) {
	return number("INV", now)
}

// IsWorkOrderNumber reports whether s has the work-order number shape.
func IsWorkOrderNumber(s string) bool {
	return strings.HasPrefix(s, "WO-") && len(s) == len("WO-20060102-abcdef")
}
