package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/filter"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/ratelimit"
)

// AccountScanner owns the incremental scan for one run: walk a mailbox
// newest-first, stop at the watermark, classify, and emit candidate records.
// It mutates no shared state; it is purely a producer.
type AccountScanner struct {
	mailbox    model.MailboxSource
	classifier model.Classifier
	subjects   *filter.SubjectFilter
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// NewAccountScanner creates a scanner wired with all its dependencies.
func NewAccountScanner(
	mailbox model.MailboxSource,
	classifier model.Classifier,
	subjects *filter.SubjectFilter,
	limiter *ratelimit.Limiter,
	logger *slog.Logger,
) *AccountScanner {
	return &AccountScanner{
		mailbox:    mailbox,
		classifier: classifier,
		subjects:   subjects,
		limiter:    limiter,
		logger:     logger,
	}
}

// Scan walks account's mailbox most-recent-first and returns a candidate
// record for every message newer than watermark that classifies as a job
// application. The first message with timestamp <= watermark ends the scan:
// everything older is already processed. The watermark message itself is
// excluded.
//
// Per-message classification failures are logged and skipped; mailbox
// failures abort the scan for this account, returning the candidates gathered
// so far alongside the error.
func (s *AccountScanner) Scan(ctx context.Context, account model.Account, watermark time.Time) ([]model.ApplicationRecord, error) {
	session, err := s.mailbox.Open(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", account.Address, err)
	}
	defer session.Close()

	ids, err := session.MessageIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: listing messages: %w", account.Address, err)
	}

	watermark = watermark.UTC()

	var (
		candidates []model.ApplicationRecord
		scanned    int
	)
	for _, id := range ids {
		if err := s.limiter.Wait(ctx, account.Address); err != nil {
			return candidates, fmt.Errorf("scanning %s: %w", account.Address, err)
		}

		msg, err := session.Fetch(ctx, id)
		if err != nil {
			return candidates, fmt.Errorf("scanning %s: fetching message %d: %w", account.Address, id, err)
		}

		// Incremental boundary: this message and everything older is
		// already processed.
		if !msg.Date.UTC().After(watermark) {
			break
		}
		scanned++

		if !s.subjects.Pass(msg.Subject) {
			s.logger.Debug("subject excluded locally", "subject", msg.Subject)
			continue
		}

		cls, err := s.classifier.Classify(ctx, msg)
		if err != nil {
			if ctx.Err() != nil {
				return candidates, fmt.Errorf("scanning %s: %w", account.Address, ctx.Err())
			}
			s.logger.Warn("classification failed, skipping message",
				"account", account.Address,
				"subject", msg.Subject,
				"error", err,
			)
			continue
		}

		record, ok := candidateFrom(msg, cls, account.Address)
		if !ok {
			continue
		}

		s.logger.Info("found application email",
			"account", account.Address,
			"company", record.Company,
			"position", record.Position,
			"status", record.Status,
		)
		candidates = append(candidates, record)
	}

	s.logger.Info("scanned account",
		"account", account.Address,
		"new_messages", scanned,
		"candidates", len(candidates),
	)

	return candidates, nil
}

// candidateFrom applies the acceptance predicate: the classification must be
// a job application with at least one of company/position extracted. Partial
// extraction is tolerated. A status of applied-or-unset is recorded as
// applied; anything else passes through unchanged.
func candidateFrom(msg model.RawMessage, cls model.Classification, account string) (model.ApplicationRecord, bool) {
	if !cls.IsJobApplication {
		return model.ApplicationRecord{}, false
	}
	if cls.Company == "" && cls.Position == "" {
		return model.ApplicationRecord{}, false
	}

	status := cls.Status
	if status == "" || status == model.StatusApplied {
		status = model.StatusApplied
	}

	return model.ApplicationRecord{
		Date:     msg.Date,
		Company:  cls.Company,
		Position: cls.Position,
		Status:   status,
		Account:  account,
	}, true
}
