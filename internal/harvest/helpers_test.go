package harvest_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/fetcher"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sink"
)

const testSourceName = "fake"

// fakeSource serves listing pages whose bodies are comma-separated ids.
type fakeSource struct {
	lastPage int
}

func (s *fakeSource) Name() string { return testSourceName }

func (s *fakeSource) ListingURL(n int) string { return listingURL(n) }

func (s *fakeSource) ParseListing(n int, pageURL string, body []byte) ([]domain.ItemRef, bool, error) {
	var items []domain.ItemRef
	for _, id := range strings.Split(string(body), ",") {
		if id = strings.TrimSpace(id); id != "" {
			items = append(items, domain.ItemRef{ID: id, URL: detailURL(id), Title: "title " + id})
		}
	}
	return items, n < s.lastPage, nil
}

func (s *fakeSource) Extract(page *domain.ListingPage) []domain.ItemRecord {
	records := make([]domain.ItemRecord, 0, len(page.Items))
	for _, item := range page.Items {
		records = append(records, domain.ItemRecord{
			ID:          item.ID,
			URL:         item.URL,
			Title:       item.Title,
			Attachments: []domain.AttachmentRef{{URL: "https://files.test/" + item.ID + ".jpg"}},
		})
	}
	return records
}

// enrichingSource adds a detail fetch whose body becomes the description.
type enrichingSource struct {
	fakeSource
}

func (s *enrichingSource) DetailURL(rec domain.ItemRecord) string { return rec.URL }

func (s *enrichingSource) Enrich(rec domain.ItemRecord, body []byte) (domain.ItemRecord, error) {
	return domain.ItemRecord{ID: rec.ID, Description: string(body)}, nil
}

func listingURL(n int) string { return fmt.Sprintf("https://listing.test/?page=%d", n) }

func detailURL(id string) string { return "https://detail.test/" + id }

// fakeFetcher serves canned bodies and errors and records every request.
type fakeFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	errs     map[string]error
	requests []string
}

func newFakeFetcher(pages ...string) *fakeFetcher {
	f := &fakeFetcher{bodies: map[string]string{}, errs: map[string]error{}}
	for i, body := range pages {
		f.bodies[listingURL(i+1)] = body
	}
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, rawURL)
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	if body, ok := f.bodies[rawURL]; ok {
		return []byte(body), nil
	}
	return nil, &fetcher.StatusError{URL: rawURL, StatusCode: 404}
}

func (f *fakeFetcher) requested(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// okAttachments marks every attachment as downloaded.
type okAttachments struct{}

func (okAttachments) Process(_ context.Context, records []domain.ItemRecord) {
	for i := range records {
		for j := range records[i].Attachments {
			records[i].Attachments[j].Result = &domain.DownloadResult{Outcome: domain.OutcomeSucceeded}
		}
	}
}

// recordingErrorLog captures error log entries.
type recordingErrorLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingErrorLog) Record(id, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, id+" | "+message)
	return nil
}

func openSink(t *testing.T, dir string) *sink.Sink {
	t.Helper()

	s, err := sink.Open(context.Background(), testSourceName, sink.Options{Dir: dir}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func readRecords(t *testing.T, path string) []domain.ItemRecord {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []domain.ItemRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.ItemRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, scanner.Err())
	return out
}

func ids(records []domain.ItemRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}

func sinkResult() sink.CommitResult { return sink.CommitResult{} }
