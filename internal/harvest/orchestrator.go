package harvest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/pagination"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sink"
)

// DefaultShutdownGrace is how long in-flight downloads may run after
// cancellation.
const DefaultShutdownGrace = 10 * time.Second

// Stop reasons reported for successful runs.
const (
	StopListingEnded = "listing ended"
	StopItemLimit    = "item limit reached"
	StopPageLimit    = "page limit reached"
)

// Config controls one run.
type Config struct {
	// StartPage is the first page when there is nothing to resume from.
	StartPage int `mapstructure:"start_page" yaml:"start_page"`
	// Resume continues after the cursor's last committed page.
	Resume bool `mapstructure:"resume" yaml:"resume"`
	// MaxPages caps the pages fetched in this run; 0 means no cap.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`
	// MaxItems caps the new records committed in this run; 0 means no cap.
	MaxItems int `mapstructure:"max_items" yaml:"max_items"`
	// MergePolicy resolves listing and detail conflicts.
	MergePolicy extract.MergePolicy `mapstructure:"merge_policy" yaml:"merge_policy"`
	// ShutdownGrace bounds how long downloads continue after cancellation.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace" yaml:"shutdown_grace"`
	// RunID tags the report.
	RunID string `mapstructure:"-" yaml:"-"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.StartPage < 1 {
		c.StartPage = 1
	}
	if c.MergePolicy == "" {
		c.MergePolicy = extract.LastWriteWins
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
	return c
}

// Orchestrator runs one source. Run must not be called concurrently;
// Status may be called from any goroutine.
type Orchestrator struct {
	source      Source
	enricher    Enricher
	fetcher     PageFetcher
	attachments AttachmentProcessor
	sink        Committer
	mirrors     []Mirror
	recorder    Recorder
	errlog      ErrorRecorder
	cfg         Config
	log         logger.Logger
	now         func() time.Time

	mu     sync.RWMutex
	report Report
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMirror adds a post-commit mirror.
func WithMirror(m Mirror) Option {
	return func(o *Orchestrator) { o.mirrors = append(o.mirrors, m) }
}

// WithRecorder sets the progress recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithErrorLog sets where non-fatal failures are recorded.
func WithErrorLog(e ErrorRecorder) Option {
	return func(o *Orchestrator) { o.errlog = e }
}

// New wires an orchestrator for src. If src also implements Enricher,
// every new record is enriched from its detail page.
func New(
	src Source,
	fetcher PageFetcher,
	attachments AttachmentProcessor,
	committer Committer,
	cfg Config,
	log logger.Logger,
	opts ...Option,
) *Orchestrator {
	cfg = cfg.WithDefaults()
	o := &Orchestrator{
		source:      src,
		fetcher:     fetcher,
		attachments: attachments,
		sink:        committer,
		cfg:         cfg,
		log:         log.With(logger.Source(src.Name())),
		now:         time.Now,
	}
	if e, ok := src.(Enricher); ok {
		o.enricher = e
	}
	for _, opt := range opts {
		opt(o)
	}
	o.report = Report{Source: src.Name(), RunID: cfg.RunID, State: StateIdle}
	return o
}

// Status returns a snapshot of the run.
func (o *Orchestrator) Status() Report {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.report
}

func (o *Orchestrator) update(fn func(r *Report)) {
	o.mu.Lock()
	fn(&o.report)
	o.mu.Unlock()
}

func (o *Orchestrator) setState(s State) {
	o.update(func(r *Report) { r.State = s })
	o.log.Debug("State changed", logger.String("state", s.String()))
}

// Run harvests until the listing ends, a limit is reached, a listing page
// fails, or ctx is cancelled. Only fully processed pages are committed, so
// the cursor in the report always reflects durable progress.
func (o *Orchestrator) Run(ctx context.Context) Report {
	cursor := o.sink.Cursor()
	lastPage := cursor.LastPage

	start := o.cfg.StartPage
	if o.cfg.Resume {
		start = cursor.NextPage(o.cfg.StartPage)
	}

	o.update(func(r *Report) {
		r.StartedAt = o.now()
		r.LastPage = lastPage
	})
	o.log.Info("Harvest starting",
		logger.Int("start_page", start),
		logger.Int("last_committed_page", lastPage),
		logger.Int("max_pages", o.cfg.MaxPages),
		logger.Int("max_items", o.cfg.MaxItems),
	)

	walker := pagination.NewWalker(o.fetcher, o.source, start, o.cfg.MaxPages, o.log)

	for {
		if o.cfg.MaxItems > 0 && o.Status().Committed >= o.cfg.MaxItems {
			return o.finish(StateDone, StopItemLimit, nil)
		}

		o.setState(StateFetching)
		page, err := walker.Next(ctx)
		if errors.Is(err, pagination.ErrDone) {
			reason := StopListingEnded
			if o.cfg.MaxPages > 0 && walker.Yielded() >= o.cfg.MaxPages {
				reason = StopPageLimit
			}
			return o.finish(StateDone, reason, nil)
		}
		if err != nil {
			var pageErr *pagination.PageError
			if errors.As(err, &pageErr) {
				o.recordError(fmt.Sprintf("page-%d", pageErr.Page), pageErr.Err.Error())
			}
			return o.finish(StateFailed, "", err)
		}
		o.update(func(r *Report) { r.Page = page.Number })

		o.setState(StateExtracting)
		records, skipped, truncated, err := o.extractPage(ctx, page)
		if err != nil {
			return o.finish(StateFailed, "", err)
		}

		o.setState(StateDownloading)
		o.download(ctx, records)
		if err := ctx.Err(); err != nil {
			o.log.Warn("Cancelled before commit, page discarded", logger.Page(page.Number))
			return o.finish(StateFailed, "", err)
		}

		o.setState(StateCommitting)
		partial := truncated || page.Number <= lastPage
		res, err := o.commit(ctx, page.Number, records, partial)
		if err != nil {
			return o.finish(StateFailed, "", fmt.Errorf("commit page %d: %w", page.Number, err))
		}
		if !partial {
			lastPage = page.Number
		}
		o.afterCommit(ctx, page.Number, res.Written, skipped+res.Skipped, lastPage)

		if truncated {
			return o.finish(StateDone, StopItemLimit, nil)
		}
	}
}

// extractPage turns a listing page into the new records to commit. Items
// already committed are dropped before any detail fetch, and the batch is
// cut to the remaining item budget. Only cancellation is returned as an
// error: detail failures degrade the record.
func (o *Orchestrator) extractPage(ctx context.Context, page *domain.ListingPage) ([]domain.ItemRecord, int, bool, error) {
	all := o.source.Extract(page)

	fresh := make([]domain.ItemRecord, 0, len(all))
	seen := make(map[string]bool, len(all))
	skipped := 0
	for _, rec := range all {
		if rec.ID == "" {
			o.recordError(fmt.Sprintf("page-%d", page.Number), "record without id dropped")
			continue
		}
		if o.sink.Has(rec.ID) || seen[rec.ID] {
			skipped++
			continue
		}
		seen[rec.ID] = true
		rec.Source = o.source.Name()
		rec.Page = page.Number
		fresh = append(fresh, rec)
	}

	truncated := false
	if o.cfg.MaxItems > 0 {
		remaining := o.cfg.MaxItems - o.Status().Committed
		if len(fresh) > remaining {
			fresh = fresh[:remaining]
			truncated = true
		}
	}

	o.log.Debug("Page extracted",
		logger.Page(page.Number),
		logger.Int("items", len(all)),
		logger.Int("new", len(fresh)),
		logger.Int("already_committed", skipped),
	)

	if o.enricher != nil {
		for i := range fresh {
			if err := o.enrich(ctx, &fresh[i]); err != nil {
				return nil, 0, false, err
			}
		}
	}

	now := o.now().UTC()
	for i := range fresh {
		fresh[i].HarvestedAt = now
	}
	return fresh, skipped, truncated, nil
}

// enrich merges rec's detail page into it. It returns an error only when
// ctx is done.
func (o *Orchestrator) enrich(ctx context.Context, rec *domain.ItemRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	detailURL := o.enricher.DetailURL(*rec)
	if detailURL == "" {
		return nil
	}

	body, err := o.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		o.log.Warn("Detail fetch failed, keeping listing fields",
			logger.ItemID(rec.ID), logger.URL(detailURL), logger.Error(err))
		rec.MarkDegraded("detail fetch failed: " + err.Error())
		return nil
	}

	detail, err := o.enricher.Enrich(*rec, body)
	if err != nil {
		rec.MarkDegraded("detail parse failed: " + err.Error())
		return nil
	}
	*rec = extract.Merge(o.cfg.MergePolicy, *rec, detail)
	return nil
}

// download resolves attachments. Once ctx is cancelled, in-flight work
// gets the shutdown grace period before it is abandoned.
func (o *Orchestrator) download(ctx context.Context, records []domain.ItemRecord) {
	if o.attachments == nil || len(records) == 0 {
		return
	}

	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		o.log.Warn("Cancelled, waiting for in-flight downloads",
			logger.Duration("grace", o.cfg.ShutdownGrace))
		timer := time.NewTimer(o.cfg.ShutdownGrace)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			cancel()
		}
	}()

	o.attachments.Process(dctx, records)
}

func (o *Orchestrator) commit(ctx context.Context, page int, records []domain.ItemRecord, partial bool) (sink.CommitResult, error) {
	if partial {
		return o.sink.Append(ctx, page, records)
	}
	return o.sink.Commit(ctx, page, records)
}

// afterCommit updates counters and feeds the mirrors, the recorder, and
// the error log. Nothing here can fail the run.
func (o *Orchestrator) afterCommit(ctx context.Context, page int, written []domain.ItemRecord, skipped, lastPage int) {
	var tally AttachmentTally
	degraded := 0
	for i := range written {
		rec := &written[i]
		ok, skip, failed := rec.AttachmentCounts()
		tally.Succeeded += ok
		tally.Skipped += skip
		tally.Failed += failed

		if rec.Degraded {
			degraded++
			o.recordError(rec.ID, "degraded: "+strings.Join(rec.DegradedReasons, "; "))
		}
		for _, ref := range rec.Attachments {
			if ref.Result != nil && ref.Result.Outcome == domain.OutcomeFailed {
				o.recordError(rec.ID, fmt.Sprintf("attachment %s: %s", ref.URL, ref.Result.Error))
			}
		}
	}

	o.update(func(r *Report) {
		r.Pages++
		r.Committed += len(written)
		r.Skipped += skipped
		r.Degraded += degraded
		r.Attachments.Succeeded += tally.Succeeded
		r.Attachments.Skipped += tally.Skipped
		r.Attachments.Failed += tally.Failed
		r.LastPage = lastPage
	})

	o.log.Info("Page committed",
		logger.Page(page),
		logger.Int("written", len(written)),
		logger.Int("skipped", skipped),
		logger.Int("degraded", degraded),
		logger.Int("attachments_ok", tally.Succeeded),
		logger.Int("attachments_failed", tally.Failed),
	)

	if o.recorder != nil {
		o.recorder.PageCommitted(o.source.Name(), len(written), skipped, degraded)
	}
	if len(written) == 0 {
		return
	}
	for _, m := range o.mirrors {
		if err := m.Index(ctx, o.source.Name(), written); err != nil {
			o.log.Warn("Mirror failed", logger.Page(page), logger.Error(err))
		}
	}
}

func (o *Orchestrator) recordError(id, message string) {
	if o.errlog == nil {
		return
	}
	if err := o.errlog.Record(id, message); err != nil {
		o.log.Warn("Error log write failed", logger.Error(err))
	}
}

func (o *Orchestrator) finish(state State, reason string, err error) Report {
	cursor := o.sink.Cursor()
	o.update(func(r *Report) {
		r.State = state
		r.StopReason = reason
		r.Err = err
		if err != nil {
			r.Error = err.Error()
		}
		r.Cursor = cursor
		r.LastPage = cursor.LastPage
		r.FinishedAt = o.now()
	})
	report := o.Status()

	fields := []logger.Field{
		logger.String("state", state.String()),
		logger.Int("pages", report.Pages),
		logger.Int("committed", report.Committed),
		logger.Int("skipped", report.Skipped),
		logger.Int("degraded", report.Degraded),
		logger.Int("last_page", report.LastPage),
		logger.Duration("elapsed", report.Elapsed()),
	}
	if err != nil {
		o.log.Error("Harvest failed", append(fields, logger.Error(err))...)
	} else {
		o.log.Info("Harvest finished", append(fields, logger.String("reason", reason))...)
	}

	if o.recorder != nil {
		o.recorder.RunFinished(o.source.Name(), state, report.Elapsed())
	}
	return report
}
