// Package sweep runs scheduled maintenance over the fulfillment store:
// sent invoices past their due date become overdue, pending estimates past
// their validity become expired. Both are guarded bulk updates, so a row
// that transitions concurrently (for example a payment landing mid-sweep)
// simply drops out of the affected set.
package sweep

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/homeit/platform/internal/config"
	"github.com/homeit/platform/internal/models"
	"github.com/homeit/platform/internal/notify"
)

// Sweeper owns the cron scheduler for maintenance jobs.
type Sweeper struct {
	db       *gorm.DB
	cfg      config.SweepConfig
	notifier *notify.Notifier
	logger   *zap.Logger
	cron     *cron.Cron
}

// New creates a Sweeper. notifier may be nil.
func New(db *gorm.DB, cfg config.SweepConfig, notifier *notify.Notifier, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		db:       db,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start registers the cron entries and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.OverdueInvoices, func() { s.runOverdue() }); err != nil {
		return fmt.Errorf("sweep: schedule overdue invoices: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.ExpireEstimates, func() { s.runExpiry() }); err != nil {
		return fmt.Errorf("sweep: schedule estimate expiry: %w", err)
	}
	s.cron.Start()
	s.logger.Info("sweep scheduler started",
		zap.String("overdue_invoices", s.cfg.OverdueInvoices),
		zap.String("expire_estimates", s.cfg.ExpireEstimates))
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce executes both sweeps immediately and reports the affected row
// counts.
func (s *Sweeper) RunOnce() (overdue, expired int64, err error) {
	overdue, err = MarkOverdueInvoices(s.db, time.Now())
	if err != nil {
		return 0, 0, err
	}
	expired, err = ExpireEstimates(s.db, time.Now())
	if err != nil {
		return overdue, 0, err
	}
	s.notifier.SweepSummary(overdue, expired)
	return overdue, expired, nil
}

func (s *Sweeper) runOverdue() {
	n, err := MarkOverdueInvoices(s.db, time.Now())
	if err != nil {
		s.logger.Error("overdue invoice sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("invoices marked overdue", zap.Int64("count", n))
		s.notifier.SweepSummary(n, 0)
	}
}

func (s *Sweeper) runExpiry() {
	n, err := ExpireEstimates(s.db, time.Now())
	if err != nil {
		s.logger.Error("estimate expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("estimates expired", zap.Int64("count", n))
		s.notifier.SweepSummary(0, n)
	}
}

// MarkOverdueInvoices flips sent invoices whose due date has passed to
// overdue. Guarded on status, so invoices paid since the query planner read
// them are untouched.
func MarkOverdueInvoices(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Invoice{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", models.InvoiceSent, now).
		Update("status", models.InvoiceOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("sweep: mark overdue invoices: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ExpireEstimates flips pending estimates past their validity window to
// expired.
func ExpireEstimates(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Estimate{}).
		Where("status = ? AND valid_until < ?", models.EstimatePending, now).
		Update("status", models.EstimateExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("sweep: expire estimates: %w", result.Error)
	}
	return result.RowsAffected, nil
}
