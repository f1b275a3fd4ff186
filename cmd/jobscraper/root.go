package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/ai"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/config"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/credential"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/filter"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/mailbox"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/notifier"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/pipeline"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/ratelimit"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/retry"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/scanner"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/state"
	"github.com/jacobwcallahan/gmail-job-scraper/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscraper",
	Short: "Track job applications straight from your inbox",
	Long:  "Jobscraper scans your mailboxes for application emails, classifies them with an LLM, and keeps a deduplicated application tracker up to date.",
	// Default to `sync` so that `jobscraper` with no args runs one sync cycle.
	RunE: runSync,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCRAPER_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "scan and classify, but do not persist or advance the watermark")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCRAPER_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSCRAPER_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildStore opens the configured record store. The returned cleanup closes
// backends that hold a connection; it is a no-op for CSV.
func buildStore(cfg *config.Config) (model.RecordStore, func(), error) {
	switch cfg.Storage.Type {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, func() { s.Close() }, nil
	default:
		return store.NewCSVStore(cfg.Storage.Path), func() {}, nil
	}
}

// buildClassifier assembles the oracle chain:
// provider → retry decorator → two-stage classifier → rate-limit decorator.
func buildClassifier(cfg *config.Config, limiter *ratelimit.Limiter, logger *slog.Logger) model.Classifier {
	httpClient := &http.Client{Timeout: cfg.Oracle.Timeout}
	provider := ai.NewOpenAIProvider(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model, httpClient)
	retried := retry.NewRetryProvider(provider, 2, 5*time.Second, logger)
	classifier := ai.NewEmailClassifier(retried, logger)
	return ratelimit.NewLimitedClassifier(classifier, limiter)
}

// resolveAccounts turns enabled account configs into scan-ready accounts,
// pulling passwords from the keyring when the config leaves them empty.
func resolveAccounts(cfg *config.Config) ([]model.Account, error) {
	var accounts []model.Account
	for _, a := range cfg.Accounts {
		if !a.Enabled {
			continue
		}
		password := a.Password
		if password == "" {
			stored, err := credential.Get(a.Address)
			if err != nil {
				return nil, fmt.Errorf("no password for %s in config or keyring (run `jobscraper login %s`): %w", a.Address, a.Address, err)
			}
			password = stored
		}
		accounts = append(accounts, model.Account{
			Address:  a.Address,
			Host:     a.Host,
			Port:     a.Port,
			Password: password,
		})
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no enabled accounts")
	}
	return accounts, nil
}

// buildPipeline wires the full sync pipeline from config. The returned cleanup
// must be called after the pipeline is done.
func buildPipeline(cfg *config.Config, dry bool, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	accounts, err := resolveAccounts(cfg)
	if err != nil {
		return nil, nil, err
	}

	recordStore, cleanup, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	limiter := ratelimit.NewLimiter(cfg.Scan.Throttle)
	classifier := buildClassifier(cfg, limiter, logger)
	subjects := filter.NewSubjectFilter(cfg.Filters.SubjectExcludeKeywords)
	source := mailbox.NewIMAPSource(logger)

	sc := scanner.NewAccountScanner(source, classifier, subjects, limiter, logger)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)

	p := pipeline.New(
		accounts,
		sc,
		recordStore,
		state.NewFileStore(cfg.StatePath),
		n,
		pipeline.Options{Backfill: cfg.Scan.Backfill, DryRun: dry},
		logger,
	)
	return p, cleanup, nil
}
