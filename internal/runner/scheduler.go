package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

// Harvester runs one source; *Runner implements it.
type Harvester interface {
	Harvest(ctx context.Context, name string, ov Overrides) (harvest.Report, error)
}

// Scheduler triggers resumed harvests of a fixed source list on a cron
// schedule. Sources in one trigger run one after another; a trigger that
// fires while the previous one is still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	h       Harvester
	log     logger.Logger
	sources []string
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler parses spec (standard five fields or a descriptor such as
// "@hourly") and prepares a job harvesting sources in order.
func NewScheduler(spec string, sources []string, h Harvester, log logger.Logger) (*Scheduler, error) {
	if len(sources) == 0 {
		return nil, errors.New("no sources to schedule")
	}

	s := &Scheduler{h: h, log: log, sources: sources}
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})))
	if _, err := s.cron.AddFunc(spec, s.trigger); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

// Next reports when the job fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start begins scheduling. Runs use a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.log.Info("Scheduler started",
		logger.Strings("sources", s.sources), logger.String("next_run", s.Next().Format(time.RFC3339)))
}

// Stop cancels in-flight runs and waits for them to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// RunNow harvests every source once, in order, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) []harvest.Report {
	resume := true
	reports := make([]harvest.Report, 0, len(s.sources))
	for _, name := range s.sources {
		if ctx.Err() != nil {
			break
		}
		report, err := s.h.Harvest(ctx, name, Overrides{Resume: &resume})
		if err != nil {
			s.log.Error("Scheduled harvest could not start", logger.Source(name), logger.Error(err))
			continue
		}
		reports = append(reports, report)
	}
	return reports
}

func (s *Scheduler) trigger() {
	start := time.Now()
	reports := s.RunNow(s.ctx)
	failed := 0
	for _, r := range reports {
		if !r.OK() {
			failed++
		}
	}
	s.log.Info("Scheduled harvest finished",
		logger.Int("runs", len(reports)), logger.Int("failed", failed),
		logger.Duration("elapsed", time.Since(start)))
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, logger.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, logger.Error(err), logger.Any("details", keysAndValues))
}
