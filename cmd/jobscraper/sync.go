package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var dryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle and exit",
	Long:  "Scans all enabled accounts for new application emails since the last run, merges them into the tracker, and advances the watermark.",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "scan and classify, but do not persist or advance the watermark")
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"accounts", len(cfg.Accounts),
		"storage", cfg.Storage.Type,
		"backfill", cfg.Scan.Backfill.String(),
	)
	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be persisted")
	}

	p, cleanup, err := buildPipeline(cfg, dryRun, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := p.Run(ctx)
	if err != nil {
		logger.Error("sync finished with errors",
			"failed_accounts", sum.FailedAccounts,
			"error", err,
		)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
