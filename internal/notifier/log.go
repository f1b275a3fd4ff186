package notifier

import (
	"log/slog"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes added or updated applications to the given logger as
// structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each record via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each record with company, position, status, date, and account.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(records []model.ApplicationRecord) error {
	for _, r := range records {
		n.logger.Info("application tracked",
			"company", r.Company,
			"position", r.Position,
			"status", r.Status,
			"date", r.Date.Format(model.DateLayout),
			"account", r.Account,
		)
	}
	return nil
}
