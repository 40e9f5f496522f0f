// Package runner builds the harvest pipeline for a configured source and
// runs it, alone or on a schedule.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/attachments"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/config"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/fetcher"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/index"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/metrics"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/ratelimit"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sink"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources"
)

// ErrAlreadyRunning is returned when a source is harvested twice at once.
var ErrAlreadyRunning = errors.New("harvest already running")

// Runner owns the long-lived pieces shared by every run: the limiter,
// fetcher, metrics, and optional Redis and Elasticsearch mirrors.
type Runner struct {
	cfg      *config.Config
	log      logger.Logger
	registry *sources.Registry
	board    *harvest.Board
	metrics  *metrics.Metrics
	policy   *attachments.Policy
	fetcher  *fetcher.Fetcher
	redis    *sink.RedisCursorStore
	index    *index.Mirror
}

// Option customises a Runner.
type Option func(*runnerOptions)

type runnerOptions struct {
	registerer prometheus.Registerer
	fetchOpts  []fetcher.Option
}

// WithRegisterer registers metrics with reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *runnerOptions) { o.registerer = reg }
}

// WithFetcherOptions passes extra options to the fetcher.
func WithFetcherOptions(opts ...fetcher.Option) Option {
	return func(o *runnerOptions) { o.fetchOpts = append(o.fetchOpts, opts...) }
}

// New connects the configured mirrors and builds the shared fetcher.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Runner, error) {
	var o runnerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Runner{
		cfg:      cfg,
		log:      log,
		registry: cfg.Registry(),
		board:    harvest.NewBoard(),
		metrics:  metrics.NewMetrics(o.registerer),
		policy:   attachments.NewPolicy(cfg.Attachments.Policy),
	}

	limiter := ratelimit.New(cfg.RateLimit)
	fetchOpts := []fetcher.Option{fetcher.WithObserver(r.metrics)}
	if cfg.Fetcher.RespectRobots {
		client := fetcher.NewHTTPClient(cfg.Fetcher.RequestTimeout, cfg.Fetcher.MaxRedirects)
		robots := fetcher.NewRobotsChecker(client, limiter, cfg.Fetcher.UserAgent, cfg.Fetcher.RobotsCacheTTL)
		fetchOpts = append(fetchOpts, fetcher.WithRobots(robots))
	}
	r.fetcher = fetcher.New(cfg.Fetcher, limiter, log, append(fetchOpts, o.fetchOpts...)...)

	if cfg.Redis.Enabled {
		client := sink.NewRedisClient(cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", cfg.Redis.Addr, err)
		}
		r.redis = sink.NewRedisCursorStore(client, cfg.Redis.KeyPrefix, cfg.Redis.EventTTL)
	}

	if cfg.Elasticsearch.Enabled {
		client, err := index.NewClient(ctx, cfg.Elasticsearch, log)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.index = index.NewMirror(client, cfg.Elasticsearch.IndexPrefix, log)
	}

	return r, nil
}

// Board exposes live and last-run status per source.
func (r *Runner) Board() *harvest.Board { return r.board }

// Registry returns the configured sources.
func (r *Runner) Registry() *sources.Registry { return r.registry }

// Overrides adjust one run without touching the shared config.
type Overrides struct {
	Resume    *bool
	StartPage int
	MaxPages  int
	MaxItems  int
}

// Harvest runs source name to a terminal state. The returned error covers
// setup failures only; run failures are reported in the Report.
func (r *Runner) Harvest(ctx context.Context, name string, ov Overrides) (harvest.Report, error) {
	src, err := r.registry.Build(name, r.policy.IsCandidate)
	if err != nil {
		return harvest.Report{}, err
	}

	runCfg := r.cfg.Harvest
	runCfg.RunID = uuid.NewString()
	if ov.Resume != nil {
		runCfg.Resume = *ov.Resume
	}
	if ov.StartPage > 0 {
		runCfg.StartPage = ov.StartPage
	}
	if ov.MaxPages > 0 {
		runCfg.MaxPages = ov.MaxPages
	}
	if ov.MaxItems > 0 {
		runCfg.MaxItems = ov.MaxItems
	}

	log := r.log.With(logger.Source(name), logger.String("run_id", runCfg.RunID))
	outDir := r.cfg.Sink.OutputDir

	sinkOpts := sink.Options{Dir: outDir, RunID: runCfg.RunID}
	if r.redis != nil {
		sinkOpts.Mirrors = []sink.CursorStore{r.redis}
	}
	s, err := sink.Open(ctx, name, sinkOpts, log)
	if err != nil {
		return harvest.Report{}, fmt.Errorf("open sink: %w", err)
	}

	closers := []func() error{s.Close}
	defer func() {
		var result *multierror.Error
		for _, c := range closers {
			if cerr := c(); cerr != nil {
				result = multierror.Append(result, cerr)
			}
		}
		if cerr := result.ErrorOrNil(); cerr != nil {
			log.Warn("Failed to close run resources", logger.Error(cerr))
		}
	}()

	opts := []harvest.Option{harvest.WithRecorder(r.metrics)}
	if r.cfg.Sink.ErrorLog {
		errlog, err := sink.OpenErrorLog(outDir, name)
		if err != nil {
			return harvest.Report{}, err
		}
		closers = append(closers, errlog.Close)
		opts = append(opts, harvest.WithErrorLog(errlog))
	}
	if r.index != nil {
		opts = append(opts, harvest.WithMirror(r.index))
	}

	var processor harvest.AttachmentProcessor = attachments.NewClassifier(r.policy)
	if r.cfg.Attachments.Enabled {
		d := attachments.NewDownloader(r.fetcher, r.policy, outDir, r.cfg.Attachments.Concurrency, log)
		d.SetObserver(r.metrics)
		processor = d
	}

	o := harvest.New(src, r.fetcher, processor, s, runCfg, log, opts...)
	if !r.board.Start(name, o) {
		return harvest.Report{}, fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}
	report := o.Run(ctx)
	r.board.Finish(report)
	return report, nil
}

// Close releases the mirrors. Sinks never close them, so one Redis client
// serves every run of the process.
func (r *Runner) Close() error {
	var result *multierror.Error
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
		}
		r.redis = nil
	}
	return result.ErrorOrNil()
}
