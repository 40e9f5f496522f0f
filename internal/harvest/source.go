package harvest

import (
	"context"
	"time"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sink"
)

//go:generate mockgen -source=source.go -destination=mocks/mock_harvest.go -package=mocks

// Source is one site's capability set: how to address and parse its
// listing pages and how to turn listing items into records.
type Source interface {
	// Name identifies the source in output file names and logs.
	Name() string
	// ListingURL returns the URL of listing page n.
	ListingURL(n int) string
	// ParseListing returns the page's items and whether a next page exists.
	ParseListing(n int, pageURL string, body []byte) ([]domain.ItemRef, bool, error)
	// Extract returns one record per item. Items that cannot be fully
	// parsed come back degraded, never as an error.
	Extract(page *domain.ListingPage) []domain.ItemRecord
}

// Enricher is implemented by sources whose records need a detail page.
type Enricher interface {
	// DetailURL returns the detail page of rec, or "" to skip enrichment.
	DetailURL(rec domain.ItemRecord) string
	// Enrich parses a detail page into a record carrying the detail fields
	// only. The orchestrator merges it into the listing record.
	Enrich(rec domain.ItemRecord, body []byte) (domain.ItemRecord, error)
}

// PageFetcher retrieves listing and detail pages.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// AttachmentProcessor resolves every attachment of records in place.
type AttachmentProcessor interface {
	Process(ctx context.Context, records []domain.ItemRecord)
}

// Committer is the resumable sink as seen by the orchestrator.
type Committer interface {
	Commit(ctx context.Context, page int, records []domain.ItemRecord) (sink.CommitResult, error)
	Append(ctx context.Context, page int, records []domain.ItemRecord) (sink.CommitResult, error)
	Cursor() *domain.HarvestCursor
	Has(id string) bool
}

// Mirror receives committed records after the sink has made them durable.
// Mirror failures are logged and never fail the run.
type Mirror interface {
	Index(ctx context.Context, source string, records []domain.ItemRecord) error
}

// Recorder observes run progress.
type Recorder interface {
	PageCommitted(source string, written, skipped, degraded int)
	RunFinished(source string, state State, elapsed time.Duration)
}

// ErrorRecorder appends non-fatal failures to the per-source error log.
type ErrorRecorder interface {
	Record(id, message string) error
}
