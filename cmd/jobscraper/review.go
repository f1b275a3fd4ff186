package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse tracked applications interactively (TUI)",
	Long:  "Launches a full-screen browser over the record store with status filtering and a detail view.",
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	recordStore, cleanup, err := buildStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	records, err := recordStore.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load records: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Println("No applications tracked yet. Run `jobscraper sync` first.")
		return nil
	}

	return review.RunReviewTUI(records)
}
