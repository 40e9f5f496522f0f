// Package pagination walks a source's listing pages in order until the
// listing runs out, a page cap is reached, or a page cannot be fetched.
package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

// ErrDone is returned by Next once the listing has naturally ended.
var ErrDone = errors.New("pagination: no more pages")

// PageFetcher retrieves a listing page body.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Lister addresses and parses one source's listing pages.
type Lister interface {
	// ListingURL returns the URL of listing page n.
	ListingURL(n int) string
	// ParseListing returns the page's items and whether a next page exists.
	ParseListing(n int, pageURL string, body []byte) (items []domain.ItemRef, hasNext bool, err error)
}

// PageError reports a listing page that could not be fetched or parsed.
// It ends the walk as a failure rather than a natural end.
type PageError struct {
	Page int
	URL  string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("listing page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Walker yields listing pages lazily. It is not restartable: once Next has
// returned an error, every later call returns the same error without
// fetching.
type Walker struct {
	fetcher  PageFetcher
	lister   Lister
	log      logger.Logger
	next     int
	maxPages int
	yielded  int
	err      error
}

// NewWalker starts at page start. maxPages <= 0 means no cap.
func NewWalker(f PageFetcher, l Lister, start, maxPages int, log logger.Logger) *Walker {
	if start < 1 {
		start = 1
	}
	return &Walker{
		fetcher:  f,
		lister:   l,
		log:      log,
		next:     start,
		maxPages: maxPages,
	}
}

// Next fetches the next page. It returns ErrDone when the listing ended
// naturally or the page cap was reached, and a *PageError when a page
// failed after retries.
func (w *Walker) Next(ctx context.Context) (*domain.ListingPage, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.maxPages > 0 && w.yielded >= w.maxPages {
		w.log.Info("Page cap reached", logger.Int("max_pages", w.maxPages))
		w.err = ErrDone
		return nil, w.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := w.next
	pageURL := w.lister.ListingURL(n)

	body, err := w.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			w.err = ctxErr
			return nil, w.err
		}
		w.err = &PageError{Page: n, URL: pageURL, Err: err}
		return nil, w.err
	}

	items, hasNext, err := w.lister.ParseListing(n, pageURL, body)
	if err != nil {
		w.err = &PageError{Page: n, URL: pageURL, Err: fmt.Errorf("parse listing: %w", err)}
		return nil, w.err
	}

	if len(items) == 0 {
		w.log.Info("Listing page is empty, stopping", logger.Page(n))
		w.err = ErrDone
		return nil, w.err
	}

	page := &domain.ListingPage{
		Number: n,
		URL:    pageURL,
		Body:   body,
		Items:  items,
		Last:   !hasNext,
	}

	w.yielded++
	w.next++
	if page.Last {
		w.log.Info("No next page, stopping after this one", logger.Page(n))
		w.err = ErrDone
	}

	return page, nil
}

// Yielded reports how many pages have been returned so far.
func (w *Walker) Yielded() int { return w.yielded }
