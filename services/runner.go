package services

import (
	"context"

	"listing-analytics/models"
	"listing-analytics/storage"
	"listing-analytics/utils"
)

// RunnerOptions controls what a run computes
type RunnerOptions struct {
	Database   string
	Collection string
	TopN       int
	Extended   bool // append the market overview after the core analyses
}

// Runner executes the analyses one after another, printing each block as
// soon as it is computed
type Runner struct {
	source   storage.ListingSource
	pipeline *Pipeline
	insights *InsightService
	reporter *Reporter
	opts     RunnerOptions
	logger   *utils.Logger
}

// NewRunner wires a runner around an open source
func NewRunner(source storage.ListingSource, reporter *Reporter, opts RunnerOptions, logger *utils.Logger) *Runner {
	return &Runner{
		source:   source,
		pipeline: NewPipeline(source, logger),
		insights: NewInsightService(source, logger),
		reporter: reporter,
		opts:     opts,
		logger:   logger,
	}
}

// Run computes and prints the full report. The first failing analysis
// aborts the run.
func (r *Runner) Run(ctx context.Context) (*models.Report, error) {
	report := &models.Report{
		Database:   r.opts.Database,
		Collection: r.opts.Collection,
	}

	count, err := r.source.EstimatedCount(ctx)
	if err != nil {
		r.logger.Warn("Could not count documents: %v", err)
	} else {
		r.logger.Info("Connection OK, %d documents in %s", count, r.opts.Collection)
	}
	report.DocumentCount = count
	r.reporter.PrintHeader(report)

	for _, a := range CoreAnalyses(r.opts.TopN) {
		result, err := r.pipeline.Run(ctx, a)
		if err != nil {
			return report, err
		}
		report.Analyses = append(report.Analyses, result)
		r.reporter.PrintAnalysis(result)
	}

	if r.opts.Extended {
		overview, err := r.insights.Generate(ctx)
		if err != nil {
			return report, err
		}
		report.Overview = overview
		r.reporter.PrintOverview(overview)
	}

	r.reporter.PrintFooter()
	return report, nil
}
