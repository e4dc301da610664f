package fulfillment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/homeit/platform/internal/fault"
	"github.com/homeit/platform/internal/ident"
	"github.com/homeit/platform/internal/loyalty"
	"github.com/homeit/platform/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.MemberProfile{},
		&models.ServiceRequest{},
		&models.WorkOrder{},
		&models.Estimate{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.LoyaltyPointTransaction{},
	)
	if err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, role string, active bool) {
	t.Helper()
	u := &models.User{ID: id, Email: id + "@example.com", Role: role, Active: active}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	// Create swaps a zero bool for its gorm default (true), so inactive
	// users need an explicit update to land as false.
	if !active {
		if err := db.Model(u).Update("active", false).Error; err != nil {
			t.Fatalf("deactivate user %s: %v", id, err)
		}
	}
}

func seedRequest(t *testing.T, db *gorm.DB, id, status string) *models.ServiceRequest {
	t.Helper()
	preferred := time.Date(2026, time.September, 10, 9, 0, 0, 0, time.UTC)
	r := &models.ServiceRequest{
		ID:                id,
		MemberID:          "member-1",
		ServiceType:       models.ServiceFixiT,
		Status:            status,
		Title:             "Leaky faucet",
		PreferredDateTime: &preferred,
		EstimatedDuration: 120,
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed request %s: %v", id, err)
	}
	return r
}

func seedEstimate(t *testing.T, db *gorm.DB, id, requestID, status string, total float64) *models.Estimate {
	t.Helper()
	e := &models.Estimate{
		ID:               id,
		ServiceRequestID: requestID,
		ContractorID:     "contractor-1",
		Status:           status,
		LaborCost:        decimal.NewFromFloat(total * 0.7),
		MaterialsCost:    decimal.NewFromFloat(total * 0.3),
		TotalCost:        decimal.NewFromFloat(total),
		ValidUntil:       time.Now().Add(7 * 24 * time.Hour),
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("seed estimate %s: %v", id, err)
	}
	return e
}

func seedInvoice(t *testing.T, db *gorm.DB, id, memberID, status string, total float64) *models.Invoice {
	t.Helper()
	number, err := ident.InvoiceNumber(time.Now())
	if err != nil {
		t.Fatalf("invoice number: %v", err)
	}
	amount := decimal.NewFromFloat(total)
	inv := &models.Invoice{
		ID:            id,
		InvoiceNumber: number,
		MemberID:      memberID,
		Status:        status,
		Subtotal:      amount,
		Total:         amount,
		AmountDue:     amount,
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("seed invoice %s: %v", id, err)
	}
	return inv
}

func seedMemberProfile(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	p := &models.MemberProfile{ID: id, UserID: "u-" + id}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed member profile %s: %v", id, err)
	}
}

func TestAssignServiceRequest(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "mgr-1", models.RoleContractor, true)
	seedRequest(t, db, "sr-1", models.RequestPending)

	request, err := AssignServiceRequest(db, "sr-1", "mgr-1")
	if err != nil {
		t.Fatalf("AssignServiceRequest() error: %v", err)
	}
	if request.Status != models.RequestAssigned {
		t.Errorf("status = %q, want assigned", request.Status)
	}
	if request.HomeManagerID == nil || *request.HomeManagerID != "mgr-1" {
		t.Errorf("home manager = %v, want mgr-1", request.HomeManagerID)
	}

	var order models.WorkOrder
	if err := db.Where("service_request_id = ?", "sr-1").First(&order).Error; err != nil {
		t.Fatalf("work order not created: %v", err)
	}
	if order.ContractorID != "mgr-1" {
		t.Errorf("work order contractor = %q, want mgr-1", order.ContractorID)
	}
	if order.Status != models.WorkOrderCreated {
		t.Errorf("work order status = %q, want created", order.Status)
	}
	if !ident.IsWorkOrderNumber(order.WorkOrderNumber) {
		t.Errorf("work order number %q malformed", order.WorkOrderNumber)
	}
	if order.ScheduledStartDate == nil || order.ScheduledEndDate == nil {
		t.Fatal("schedule hints not copied from request")
	}
	if got := order.ScheduledEndDate.Sub(*order.ScheduledStartDate); got != 2*time.Hour {
		t.Errorf("scheduled window = %v, want 2h", got)
	}
}

func TestAssignServiceRequest_SecondCallDuplicates(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "mgr-1", models.RoleContractor, true)
	seedRequest(t, db, "sr-1", models.RequestPending)

	if _, err := AssignServiceRequest(db, "sr-1", "mgr-1"); err != nil {
		t.Fatalf("first assign: %v", err)
	}

	_, err := AssignServiceRequest(db, "sr-1", "mgr-1")
	if !fault.IsInvalidStatusTransition(err) {
		t.Fatalf("second assign err = %v, want invalid status transition", err)
	}

	var count int64
	db.Model(&models.WorkOrder{}).Where("service_request_id = ?", "sr-1").Count(&count)
	if count != 1 {
		t.Errorf("work orders = %d, want exactly 1", count)
	}
}

func TestAssignServiceRequest_HomeownerRoleRejected(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "owner-1", models.RoleHomeowner, true)
	seedRequest(t, db, "sr-1", models.RequestPending)

	_, err := AssignServiceRequest(db, "sr-1", "owner-1")
	if !fault.IsReferentialIntegrity(err) {
		t.Fatalf("err = %v, want referential integrity", err)
	}

	// The rejected assignment must leave the request untouched.
	var request models.ServiceRequest
	if err := db.First(&request, "id = ?", "sr-1").Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if request.Status != models.RequestPending {
		t.Errorf("status = %q, want pending", request.Status)
	}
	if request.HomeManagerID != nil {
		t.Errorf("home manager = %v, want nil", request.HomeManagerID)
	}
	var count int64
	db.Model(&models.WorkOrder{}).Count(&count)
	if count != 0 {
		t.Errorf("work orders = %d, want 0", count)
	}
}

func TestAssignServiceRequest_InactiveManager(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "mgr-1", models.RoleContractor, false)
	seedRequest(t, db, "sr-1", models.RequestPending)

	if _, err := AssignServiceRequest(db, "sr-1", "mgr-1"); !fault.IsReferentialIntegrity(err) {
		t.Fatalf("err = %v, want referential integrity", err)
	}
}

func TestAssignServiceRequest_MissingRows(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "mgr-1", models.RoleContractor, true)

	if _, err := AssignServiceRequest(db, "sr-missing", "mgr-1"); !fault.IsReferentialIntegrity(err) {
		t.Fatalf("missing request err = %v, want referential integrity", err)
	}

	seedRequest(t, db, "sr-1", models.RequestPending)
	if _, err := AssignServiceRequest(db, "sr-1", "mgr-missing"); !fault.IsReferentialIntegrity(err) {
		t.Fatalf("missing manager err = %v, want referential integrity", err)
	}
}

func TestApproveEstimate(t *testing.T) {
	db := openTestDB(t)
	seedRequest(t, db, "sr-1", models.RequestAssigned)
	seedEstimate(t, db, "est-1", "sr-1", models.EstimatePending, 450)

	estimate, err := ApproveEstimate(db, "est-1")
	if err != nil {
		t.Fatalf("ApproveEstimate() error: %v", err)
	}
	if estimate.Status != models.EstimateApproved {
		t.Errorf("status = %q, want approved", estimate.Status)
	}

	var invoice models.Invoice
	if err := db.Preload("Items").Where("estimate_id = ?", "est-1").First(&invoice).Error; err != nil {
		t.Fatalf("invoice not created: %v", err)
	}
	if invoice.Status != models.InvoiceSent {
		t.Errorf("invoice status = %q, want sent", invoice.Status)
	}
	if !invoice.Total.Equal(decimal.NewFromInt(450)) {
		t.Errorf("invoice total = %s, want 450", invoice.Total)
	}
	if invoice.MemberID != "member-1" {
		t.Errorf("invoice member = %q, want member-1", invoice.MemberID)
	}
	if invoice.DueDate == nil {
		t.Fatal("due date not set")
	}
	wantDue := time.Now().AddDate(0, 0, invoiceTermDays)
	if diff := invoice.DueDate.Sub(wantDue); diff < -time.Minute || diff > time.Minute {
		t.Errorf("due date %v not ~%d days out", invoice.DueDate, invoiceTermDays)
	}
	if len(invoice.Items) != 2 {
		t.Fatalf("line items = %d, want labor + materials", len(invoice.Items))
	}

	// Approval with no existing work order creates one.
	var orders int64
	db.Model(&models.WorkOrder{}).Where("service_request_id = ?", "sr-1").Count(&orders)
	if orders != 1 {
		t.Errorf("work orders = %d, want 1", orders)
	}
}

func TestApproveEstimate_ReusesExistingWorkOrder(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "mgr-1", models.RoleContractor, true)
	seedRequest(t, db, "sr-1", models.RequestPending)
	if _, err := AssignServiceRequest(db, "sr-1", "mgr-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	seedEstimate(t, db, "est-1", "sr-1", models.EstimatePending, 300)

	if _, err := ApproveEstimate(db, "est-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var orders int64
	db.Model(&models.WorkOrder{}).Where("service_request_id = ?", "sr-1").Count(&orders)
	if orders != 1 {
		t.Errorf("work orders = %d, want the assignment's single order reused", orders)
	}
}

func TestApproveEstimate_DoubleApprove(t *testing.T) {
	db := openTestDB(t)
	seedRequest(t, db, "sr-1", models.RequestAssigned)
	seedEstimate(t, db, "est-1", "sr-1", models.EstimatePending, 450)

	if _, err := ApproveEstimate(db, "est-1"); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := ApproveEstimate(db, "est-1")
	if !fault.IsInvalidStatusTransition(err) {
		t.Fatalf("second approve err = %v, want invalid status transition", err)
	}

	var invoices int64
	db.Model(&models.Invoice{}).Where("estimate_id = ?", "est-1").Count(&invoices)
	if invoices != 1 {
		t.Errorf("invoices = %d, want exactly 1", invoices)
	}
}

func TestApproveEstimate_ExistingInvoiceDuplicates(t *testing.T) {
	db := openTestDB(t)
	seedRequest(t, db, "sr-1", models.RequestAssigned)
	est := seedEstimate(t, db, "est-1", "sr-1", models.EstimatePending, 450)

	// An invoice already pointing at the still-pending estimate means a
	// prior approval half-landed; the retry must refuse to issue another.
	inv := seedInvoice(t, db, "inv-1", "member-1", models.InvoiceSent, 450)
	if err := db.Model(inv).Update("estimate_id", est.ID).Error; err != nil {
		t.Fatalf("link invoice: %v", err)
	}

	_, err := ApproveEstimate(db, "est-1")
	if !fault.IsDuplicateOperation(err) {
		t.Fatalf("err = %v, want duplicate operation", err)
	}
}

func TestRejectEstimate(t *testing.T) {
	db := openTestDB(t)
	seedRequest(t, db, "sr-1", models.RequestAssigned)
	seedEstimate(t, db, "est-1", "sr-1", models.EstimatePending, 450)

	estimate, err := RejectEstimate(db, "est-1")
	if err != nil {
		t.Fatalf("RejectEstimate() error: %v", err)
	}
	if estimate.Status != models.EstimateRejected {
		t.Errorf("status = %q, want rejected", estimate.Status)
	}

	// Rejecting an already-approved estimate is not a legal edge.
	seedEstimate(t, db, "est-2", "sr-1", models.EstimateApproved, 200)
	if _, err := RejectEstimate(db, "est-2"); !fault.IsInvalidStatusTransition(err) {
		t.Fatalf("err = %v, want invalid status transition", err)
	}

	var invoices int64
	db.Model(&models.Invoice{}).Count(&invoices)
	if invoices != 0 {
		t.Errorf("invoices = %d, rejection must not bill", invoices)
	}
}

func TestPayInvoice(t *testing.T) {
	db := openTestDB(t)
	seedMemberProfile(t, db, "member-1")
	seedInvoice(t, db, "inv-1", "member-1", models.InvoiceSent, 1000)

	invoice, err := PayInvoice(db, "inv-1", "credit_card", "txn-abc")
	if err != nil {
		t.Fatalf("PayInvoice() error: %v", err)
	}
	if invoice.Status != models.InvoicePaid {
		t.Errorf("status = %q, want paid", invoice.Status)
	}
	if invoice.TransactionID == nil || *invoice.TransactionID != "txn-abc" {
		t.Errorf("transaction id = %v, want txn-abc", invoice.TransactionID)
	}
	if !invoice.AmountDue.IsZero() {
		t.Errorf("amount due = %s, want 0", invoice.AmountDue)
	}
	if invoice.PaidAt == nil {
		t.Error("paid_at not set")
	}

	// $1000 at 1% floors to exactly 10 points.
	balance, err := loyalty.Balance(db, "member-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 10 {
		t.Errorf("loyalty balance = %d, want 10", balance)
	}
}

func TestPayInvoice_ReplayIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	seedMemberProfile(t, db, "member-1")
	seedInvoice(t, db, "inv-1", "member-1", models.InvoiceSent, 1000)

	if _, err := PayInvoice(db, "inv-1", "credit_card", "txn-abc"); err != nil {
		t.Fatalf("first pay: %v", err)
	}
	invoice, err := PayInvoice(db, "inv-1", "credit_card", "txn-abc")
	if err != nil {
		t.Fatalf("replay should succeed, got: %v", err)
	}
	if invoice.Status != models.InvoicePaid {
		t.Errorf("replay status = %q, want paid", invoice.Status)
	}

	// No double credit.
	balance, _ := loyalty.Balance(db, "member-1")
	if balance != 10 {
		t.Errorf("loyalty balance = %d, want 10 after replay", balance)
	}
	var ledgerRows int64
	db.Model(&models.LoyaltyPointTransaction{}).Count(&ledgerRows)
	if ledgerRows != 1 {
		t.Errorf("ledger rows = %d, want 1", ledgerRows)
	}
}

func TestPayInvoice_TransactionReuseAcrossInvoices(t *testing.T) {
	db := openTestDB(t)
	seedMemberProfile(t, db, "member-1")
	seedInvoice(t, db, "inv-1", "member-1", models.InvoiceSent, 100)
	seedInvoice(t, db, "inv-2", "member-1", models.InvoiceSent, 200)

	if _, err := PayInvoice(db, "inv-1", "credit_card", "txn-abc"); err != nil {
		t.Fatalf("first pay: %v", err)
	}
	_, err := PayInvoice(db, "inv-2", "credit_card", "txn-abc")
	if !fault.IsDuplicateOperation(err) {
		t.Fatalf("err = %v, want duplicate operation", err)
	}

	var invoice models.Invoice
	db.First(&invoice, "id = ?", "inv-2")
	if invoice.Status != models.InvoiceSent {
		t.Errorf("inv-2 status = %q, want still sent", invoice.Status)
	}
}

func TestPayInvoice_OverdueIsPayable(t *testing.T) {
	db := openTestDB(t)
	seedMemberProfile(t, db, "member-1")
	seedInvoice(t, db, "inv-1", "member-1", models.InvoiceOverdue, 250)

	invoice, err := PayInvoice(db, "inv-1", "ach", "txn-late")
	if err != nil {
		t.Fatalf("PayInvoice() error: %v", err)
	}
	if invoice.Status != models.InvoicePaid {
		t.Errorf("status = %q, want paid", invoice.Status)
	}
	balance, _ := loyalty.Balance(db, "member-1")
	if balance != 2 {
		t.Errorf("loyalty balance = %d, want floor(250*0.01) = 2", balance)
	}
}

func TestPayInvoice_DraftRejected(t *testing.T) {
	db := openTestDB(t)
	seedMemberProfile(t, db, "member-1")
	seedInvoice(t, db, "inv-1", "member-1", models.InvoiceDraft, 100)

	_, err := PayInvoice(db, "inv-1", "credit_card", "txn-abc")
	if !fault.IsInvalidStatusTransition(err) {
		t.Fatalf("err = %v, want invalid status transition", err)
	}
	balance, _ := loyalty.Balance(db, "member-1")
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestPayInvoice_SmallTotalsEarnNothing(t *testing.T) {
	db := openTestDB(t)
	seedMemberProfile(t, db, "member-1")
	seedInvoice(t, db, "inv-1", "member-1", models.InvoiceSent, 99.99)

	if _, err := PayInvoice(db, "inv-1", "credit_card", "txn-tiny"); err != nil {
		t.Fatalf("PayInvoice() error: %v", err)
	}
	// floor(99.99 * 0.01) = 0: no ledger row at all.
	var ledgerRows int64
	db.Model(&models.LoyaltyPointTransaction{}).Count(&ledgerRows)
	if ledgerRows != 0 {
		t.Errorf("ledger rows = %d, want 0", ledgerRows)
	}
}

func TestPayInvoice_RequiredArguments(t *testing.T) {
	db := openTestDB(t)
	if _, err := PayInvoice(db, "", "credit_card", "txn"); err == nil {
		t.Error("expected error for empty invoice id")
	}
	if _, err := PayInvoice(db, "inv-1", "", "txn"); err == nil {
		t.Error("expected error for empty payment method")
	}
	if _, err := PayInvoice(db, "inv-1", "credit_card", ""); err == nil {
		t.Error("expected error for empty transaction id")
	}
}
