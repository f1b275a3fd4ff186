package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/merge"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

// Scanner produces candidate records for one account, walking its mailbox
// newest-first and stopping at the watermark.
type Scanner interface {
	Scan(ctx context.Context, account model.Account, watermark time.Time) ([]model.ApplicationRecord, error)
}

// Summary reports what one sync run did.
type Summary struct {
	Accounts       int
	FailedAccounts []string
	Candidates     int
	Changed        int
	Total          int
	Watermark      time.Time
	Advanced       bool
	DryRun         bool
}

// Pipeline owns the full sync run: read watermark → scan accounts → merge →
// persist → notify → advance watermark.
type Pipeline struct {
	accounts []model.Account
	scanner  Scanner
	store    model.RecordStore
	state    model.WatermarkStore
	notifier model.Notifier
	backfill time.Duration
	clock    func() time.Time
	dryRun   bool
	logger   *slog.Logger
}

// Options configures optional pipeline behavior.
type Options struct {
	// Backfill bounds the first run (no watermark yet): scan back this far
	// instead of the whole mailbox.
	Backfill time.Duration
	// DryRun scans and merges but skips persisting, notifying, and the
	// watermark write.
	DryRun bool
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// New creates a pipeline wired with all its dependencies.
func New(
	accounts []model.Account,
	scanner Scanner,
	store model.RecordStore,
	state model.WatermarkStore,
	notifier model.Notifier,
	opts Options,
	logger *slog.Logger,
) *Pipeline {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		accounts: accounts,
		scanner:  scanner,
		store:    store,
		state:    state,
		notifier: notifier,
		backfill: opts.Backfill,
		clock:    clock,
		dryRun:   opts.DryRun,
		logger:   logger,
	}
}

// RunOnce runs one sync cycle and discards the summary. It satisfies the
// watch loop's runner contract.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	_, err := p.Run(ctx)
	return err
}

// Run executes one sync cycle across all configured accounts.
//
// Accounts are isolated: a failing account is logged and skipped, its partial
// candidates still merged, and the remaining accounts still scanned. The
// watermark advances to the run's start time only when every account scanned
// cleanly; otherwise the next run re-covers the same window, which the
// merge keeps idempotent.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := p.clock()

	watermark, err := p.state.ReadWatermark()
	if err != nil {
		p.logger.Warn("could not read watermark, falling back to backfill window", "error", err)
		watermark = time.Time{}
	}
	if watermark.IsZero() {
		watermark = start.Add(-p.backfill)
		p.logger.Info("no previous run recorded", "scanning_since", watermark)
	}

	prior, err := p.store.Load()
	if err != nil {
		p.logger.Warn("could not load existing records, starting from empty", "error", err)
		prior = nil
	}

	summary := Summary{Accounts: len(p.accounts), Watermark: watermark, DryRun: p.dryRun}

	var (
		candidates []model.ApplicationRecord
		scanErrs   []error
	)
	for _, account := range p.accounts {
		recs, err := p.scanner.Scan(ctx, account, watermark)
		candidates = append(candidates, recs...)
		if err != nil {
			p.logger.Error("account scan failed", "account", account.Address, "error", err)
			summary.FailedAccounts = append(summary.FailedAccounts, account.Address)
			scanErrs = append(scanErrs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
	}
	summary.Candidates = len(candidates)

	merged, changed := merge.Merge(prior, candidates)
	summary.Changed = len(changed)
	summary.Total = len(merged)

	if p.dryRun {
		p.logger.Info("dry run: skipping persist and watermark",
			"candidates", len(candidates),
			"would_change", len(changed),
		)
		return summary, errors.Join(scanErrs...)
	}

	if err := p.store.SaveAtomic(merged); err != nil {
		return summary, fmt.Errorf("saving records: %w", err)
	}

	if len(changed) > 0 {
		if err := p.notifier.Notify(changed); err != nil {
			p.logger.Warn("notification failed", "error", err)
		}
	}

	if len(scanErrs) == 0 {
		if err := p.state.WriteWatermark(start); err != nil {
			return summary, fmt.Errorf("advancing watermark: %w", err)
		}
		summary.Advanced = true
		summary.Watermark = start
	} else {
		p.logger.Warn("watermark not advanced, some accounts failed",
			"failed", summary.FailedAccounts,
		)
	}

	p.logger.Info("sync complete",
		"accounts", len(p.accounts),
		"failed", len(summary.FailedAccounts),
		"candidates", summary.Candidates,
		"changed", summary.Changed,
		"total", summary.Total,
		"watermark_advanced", summary.Advanced,
	)

	return summary, errors.Join(scanErrs...)
}
