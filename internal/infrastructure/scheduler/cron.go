package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clcruickshank2/datenight/internal/ports"
)

// CronScheduler runs one job on a robfig/cron spec. Overlapping runs are skipped.
type CronScheduler struct {
	spec       string
	loc        *time.Location
	runOnStart bool
	logger     *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, loc *time.Location, runOnStart bool, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, loc: loc, runOnStart: runOnStart, logger: logger}
}

// Start registers the job and starts the cron loop. With runOnStart the job
// also fires once immediately in the background.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	log := cronLogger{logger: c.logger}
	cr := cron.New(
		cron.WithLocation(c.loc),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log)),
	)
	wrapped := cron.NewChain(cron.SkipIfStillRunning(log)).Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now().In(c.loc))
	}))
	if _, err := cr.AddJob(c.spec, wrapped); err != nil {
		return fmt.Errorf("cron add %q: %w", c.spec, err)
	}

	cr.Start()
	c.cron = cr
	c.info("cron started", "spec", c.spec, "location", c.loc.String())

	if c.runOnStart {
		go wrapped.Run()
	}

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts the cron loop and waits for a running job until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()
	if cr == nil {
		return nil
	}

	done := cr.Stop()
	select {
	case <-done.Done():
		c.info("cron stopped", "spec", c.spec)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron stop: %w", ctx.Err())
	}
}

func (c *CronScheduler) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Debug("cron: "+msg, keysAndValues...)
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
	}
}
