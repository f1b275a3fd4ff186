package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List tracked applications",
	Long:  "Reads the record store and prints a table of all tracked applications.",
	RunE:  runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("%-10s %-25s %-35s %-13s %s\n", "Date", "Company", "Position", "Status", "Account")
	fmt.Println(strings.Repeat("─", 100))

	counts := make(map[model.Status]int)
	for _, r := range records {
		fmt.Printf("%-10s %-25s %-35s %-13s %s\n",
			r.Date.Format(model.DateLayout), r.Company, r.Position, r.Status, r.Account)
		counts[r.Status]++
	}

	fmt.Printf("\nTotal: %d applications (%d applied, %d interviewing, %d rejected, %d accepted)\n",
		len(records),
		counts[model.StatusApplied],
		counts[model.StatusInterviewing],
		counts[model.StatusRejected],
		counts[model.StatusAccepted],
	)
	return nil
}
