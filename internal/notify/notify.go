// Package notify posts operational alerts to a Slack channel. Delivery is
// best-effort: failures are logged, never propagated into the transaction
// that triggered them.
package notify

import (
	"fmt"

	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/homeit/platform/internal/models"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier posts alerts to one ops channel. A nil Notifier is valid and
// does nothing, so callers never need to branch on whether Slack is
// configured.
type Notifier struct {
	client  slackClient
	channel string
	logger  *zap.Logger
}

// New creates a Notifier for the given bot token and channel. Returns nil
// when the token is empty (notifications disabled).
func New(botToken, channel string, logger *zap.Logger) *Notifier {
	if botToken == "" {
		return nil
	}
	return &Notifier{
		client:  slackapi.New(botToken),
		channel: channel,
		logger:  logger,
	}
}

// newWithClient is the injection point for tests.
func newWithClient(client slackClient, channel string, logger *zap.Logger) *Notifier {
	return &Notifier{client: client, channel: channel, logger: logger}
}

// HardConflict announces a hard scheduling conflict that blocked a booking.
func (n *Notifier) HardConflict(conflict *models.ScheduleConflict) {
	if n == nil {
		return
	}
	text := fmt.Sprintf(":warning: Hard schedule conflict for contractor %s on work order %s: %s (%s – %s)",
		conflict.ContractorID, conflict.WorkOrderID, conflict.Details,
		conflict.ConflictingTimeStart.Format("Jan 2 15:04"),
		conflict.ConflictingTimeEnd.Format("15:04"))
	n.post(text)
}

// SweepSummary announces the outcome of a maintenance sweep.
func (n *Notifier) SweepSummary(overdueInvoices, expiredEstimates int64) {
	if n == nil {
		return
	}
	if overdueInvoices == 0 && expiredEstimates == 0 {
		return
	}
	n.post(fmt.Sprintf("Nightly sweep: %d invoices marked overdue, %d estimates expired",
		overdueInvoices, expiredEstimates))
}

func (n *Notifier) post(text string) {
	if _, _, err := n.client.PostMessage(n.channel, slackapi.MsgOptionText(text, false)); err != nil {
		n.logger.Warn("slack post failed", zap.Error(err), zap.String("channel", n.channel))
	}
}
