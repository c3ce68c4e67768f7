package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"listing-analytics/config"
	"listing-analytics/services"
	"listing-analytics/storage"
	"listing-analytics/utils"
)

func main() {
	// ================== Bootstrap ====================
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	// =============== Command ===================
	root := newRootCmd(cfg, logger)
	if err := root.Execute(); err != nil {
		logger.Error("Run failed: %+v", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing-analytics",
		Short: "Descriptive statistics over short-term rental listings",
		Long: `listing-analytics reads the listing collection and prints booking-rate
estimates per room type, review-count medians, and neighbourhood density
and demand rankings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetLevel(cfg.LogLevel)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.ConnectStrategy, "strategy", cfg.ConnectStrategy, "connection strategy: immediate or wait-for-primary")
	flags.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "connection attempts when waiting for a primary")
	flags.IntVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "milliseconds between connection attempts")
	flags.IntVar(&cfg.TopN, "top", cfg.TopN, "neighbourhoods kept in rankings (0 keeps all)")
	flags.BoolVar(&cfg.ExtendedReport, "extended", cfg.ExtendedReport, "append host and booking statistics")
	flags.StringVar(&cfg.DataSource, "source", cfg.DataSource, "listing store: mongo or postgres")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	return cmd
}

// run owns the source for the whole process: it is opened once and closed
// on every return path, panics included
func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Info("Listing analytics on %s.%s (source: %s, strategy: %s)",
		cfg.Database, cfg.Collection, cfg.DataSource, cfg.ConnectStrategy)

	// =========== Listing store ======================
	source, err := openSource(ctx, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "cannot connect to the listing store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := source.Close(closeCtx); cerr != nil {
			logger.Warn("Closing source: %v", cerr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during analysis: %v\n%s", r, debug.Stack())
		}
	}()

	// ==== Analyses ============================
	runner := services.NewRunner(source, services.NewReporter(reportOutput), services.RunnerOptions{
		Database:   cfg.Database,
		Collection: cfg.Collection,
		TopN:       cfg.TopN,
		Extended:   cfg.ExtendedReport,
	}, logger)

	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	logger.Info("Done")
	return nil
}

// reportOutput receives the printed report
var reportOutput io.Writer = os.Stdout

// openSource connects to the configured listing store. Tests replace it.
var openSource = func(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.ListingSource, error) {
	if cfg.DataSource == config.SourcePostgres {
		return storage.OpenPostgresSource(ctx, cfg, logger)
	}
	return storage.OpenMongoSource(ctx, cfg, logger)
}
