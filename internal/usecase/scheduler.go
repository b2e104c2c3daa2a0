package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clcruickshank2/datenight/internal/ports"
)

// Scheduler binds cron drivers to the ingestion and weekly curation jobs.
type Scheduler struct {
	curation ports.Scheduler
	ingest   ports.Scheduler
	pipeline *Pipeline
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs. Either driver may be nil.
func NewScheduler(curation, ingest ports.Scheduler, pipeline *Pipeline, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{curation: curation, ingest: ingest, pipeline: pipeline, timeout: timeout, logger: logger}
}

// Start registers both jobs with their drivers.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.pipeline == nil {
		return nil
	}

	if s.ingest != nil {
		err := s.ingest.Start(ctx, func(trigger time.Time) {
			jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			report, err := s.pipeline.IngestFeeds(jobCtx)
			if err != nil {
				logWarn(s.logger, "scheduled ingestion failed", "trigger", trigger, "error", err)
				return
			}
			logInfo(s.logger, "scheduled ingestion done", "fetched", report.Fetched, "upserted", report.Upserted,
				"source_errors", len(report.Errors))
		})
		if err != nil {
			return err
		}
	}

	if s.curation != nil {
		err := s.curation.Start(ctx, func(trigger time.Time) {
			jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			report, err := s.pipeline.RunWeeklyCuration(jobCtx)
			if err != nil {
				logWarn(s.logger, "scheduled curation failed", "trigger", trigger, "run_id", report.RunID, "error", err)
				return
			}
			logInfo(s.logger, "scheduled curation done", "run_id", report.RunID, "curated", report.CuratedCount,
				"trending", report.TrendingAcceptedCount, "rejected", report.Error)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully tears down both drivers.
func (s *Scheduler) Stop(ctx context.Context) error {
	var errs []error
	for _, d := range []ports.Scheduler{s.ingest, s.curation} {
		if d == nil {
			continue
		}
		if err := d.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
