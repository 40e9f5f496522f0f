package attachments_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/attachments"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/fetcher"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

// fakeStreamer serves bodies by URL and records every request.
type fakeStreamer struct {
	mu        sync.Mutex
	requested []string
	bodies    map[string]string
	failures  map[string]error
	delay     time.Duration
	inFlight  atomic.Int32
	maxSeen   atomic.Int32
}

func (s *fakeStreamer) Stream(_ context.Context, rawURL string, consume func(io.Reader) error) (int, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(s.delay)

	s.mu.Lock()
	s.requested = append(s.requested, rawURL)
	s.mu.Unlock()

	if err := s.failures[rawURL]; err != nil {
		return 3, err
	}
	return 1, consume(strings.NewReader(s.bodies[rawURL]))
}

func (s *fakeStreamer) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requested...)
}

func refs(urls ...string) []domain.AttachmentRef {
	out := make([]domain.AttachmentRef, len(urls))
	for i, u := range urls {
		out[i] = domain.AttachmentRef{URL: u}
	}
	return out
}

func TestPolicy_Partition(t *testing.T) {
	t.Parallel()

	eligible, skipped := attachments.DefaultPolicy().Partition(refs(
		"https://x.org/a.mp3", "https://x.org/b.jpg", "https://x.org/c.pdf", "https://x.org/d.mov",
	))

	require.Len(t, eligible, 2)
	assert.Equal(t, "https://x.org/b.jpg", eligible[0].URL)
	assert.Equal(t, domain.KindImage, eligible[0].Kind)
	assert.Equal(t, "https://x.org/c.pdf", eligible[1].URL)
	assert.Equal(t, domain.KindDocument, eligible[1].Kind)

	require.Len(t, skipped, 2)
	assert.Equal(t, domain.KindAudio, skipped[0].Kind)
	assert.Equal(t, domain.KindVideo, skipped[1].Kind)
	for _, ref := range skipped {
		require.NotNil(t, ref.Result)
		assert.Equal(t, domain.OutcomeSkipped, ref.Result.Outcome)
	}
}

func TestPolicy_UnknownExtensionIsIneligible(t *testing.T) {
	t.Parallel()

	p := attachments.DefaultPolicy()
	assert.False(t, p.Classify(domain.AttachmentRef{URL: "https://x.org/archive.zip"}).Eligible)
	assert.False(t, p.Classify(domain.AttachmentRef{URL: "https://x.org/items/show/4"}).Eligible)
	assert.False(t, p.IsCandidate("https://x.org/items/show/4"))
	assert.True(t, p.IsCandidate("https://x.org/song.flac"))
}

func TestPolicy_Overrides(t *testing.T) {
	t.Parallel()

	p := attachments.NewPolicy(attachments.PolicyConfig{Allow: []string{".MP3", "pdf"}, Deny: []string{"pdf"}})

	assert.True(t, p.Classify(domain.AttachmentRef{URL: "https://x.org/a.mp3"}).Eligible)
	assert.False(t, p.Classify(domain.AttachmentRef{URL: "https://x.org/c.pdf"}).Eligible)
	assert.False(t, p.Classify(domain.AttachmentRef{URL: "https://x.org/b.jpg"}).Eligible)
}

func TestClassifier_ResolvesWithoutDownloading(t *testing.T) {
	t.Parallel()

	records := []domain.ItemRecord{{
		ID:          "11",
		Attachments: refs("https://x.org/a.mp3", "https://x.org/b.jpg", "https://x.org/c.pdf"),
	}}
	attachments.NewClassifier(nil).Process(context.Background(), records)

	got := records[0].Attachments
	require.Len(t, got, 3)

	assert.Equal(t, "mp3", got[0].Extension)
	assert.Equal(t, domain.KindAudio, got[0].Kind)
	assert.False(t, got[0].Eligible)
	require.NotNil(t, got[0].Result)
	assert.Equal(t, domain.OutcomeSkipped, got[0].Result.Outcome)

	assert.Equal(t, "jpg", got[1].Extension)
	assert.Equal(t, domain.KindImage, got[1].Kind)
	assert.True(t, got[1].Eligible)
	assert.Nil(t, got[1].Result)

	assert.Equal(t, domain.KindDocument, got[2].Kind)
	assert.True(t, got[2].Eligible)

	ok, skipped, failed := records[0].AttachmentCounts()
	assert.Equal(t, [3]int{0, 1, 0}, [3]int{ok, skipped, failed})
}

func TestProcess_SkippedLinksAreNeverFetched(t *testing.T) {
	t.Parallel()

	streamer := &fakeStreamer{bodies: map[string]string{
		"https://x.org/b.jpg": "jpeg-bytes",
		"https://x.org/c.pdf": "pdf-bytes",
	}}
	d := attachments.NewDownloader(streamer, nil, t.TempDir(), 2, logger.NewNop())

	records := []domain.ItemRecord{{
		ID:          "42",
		Attachments: refs("https://x.org/a.mp3", "https://x.org/b.jpg", "https://x.org/c.pdf", "https://x.org/d.mov"),
	}}
	d.Process(context.Background(), records)

	assert.ElementsMatch(t, []string{"https://x.org/b.jpg", "https://x.org/c.pdf"}, streamer.requests())

	got := records[0].Attachments
	assert.Equal(t, domain.OutcomeSkipped, got[0].Result.Outcome)
	assert.Equal(t, domain.OutcomeSucceeded, got[1].Result.Outcome)
	assert.Equal(t, domain.OutcomeSucceeded, got[2].Result.Outcome)
	assert.Equal(t, domain.OutcomeSkipped, got[3].Result.Outcome)

	data, err := os.ReadFile(got[1].Result.Path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, int64(len("jpeg-bytes")), got[1].Result.Size)
}

func TestProcess_FailureIsRecordedNotReturned(t *testing.T) {
	t.Parallel()

	missing := &fetcher.StatusError{URL: "https://x.org/gone.jpg", StatusCode: 404}
	streamer := &fakeStreamer{failures: map[string]error{"https://x.org/gone.jpg": missing}}
	d := attachments.NewDownloader(streamer, nil, t.TempDir(), 1, logger.NewNop())

	records := []domain.ItemRecord{{ID: "7", Attachments: refs("https://x.org/gone.jpg")}}
	d.Process(context.Background(), records)

	res := records[0].Attachments[0].Result
	require.NotNil(t, res)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Error, "404")
	assert.Empty(t, res.Path)

	ok, skipped, failed := records[0].AttachmentCounts()
	assert.Equal(t, [3]int{0, 0, 1}, [3]int{ok, skipped, failed})
}

func TestProcess_IdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	streamer := &fakeStreamer{bodies: map[string]string{"https://x.org/p.png": "png"}}
	d := attachments.NewDownloader(streamer, nil, root, 1, logger.NewNop())

	for range 2 {
		records := []domain.ItemRecord{{ID: "9", Attachments: refs("https://x.org/p.png")}}
		d.Process(context.Background(), records)
		assert.Equal(t, domain.OutcomeSucceeded, records[0].Attachments[0].Result.Outcome)
	}

	assert.Len(t, streamer.requests(), 1)

	entries, err := os.ReadDir(filepath.Join(root, "attachments", "9"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no duplicate or temp files left behind")
}

func TestProcess_RespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{}
	var urls []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		u := "https://x.org/" + name + ".jpg"
		bodies[u] = name
		urls = append(urls, u)
	}
	streamer := &fakeStreamer{bodies: bodies, delay: 10 * time.Millisecond}
	d := attachments.NewDownloader(streamer, nil, t.TempDir(), 2, logger.NewNop())

	d.Process(context.Background(), []domain.ItemRecord{{ID: "1", Attachments: refs(urls...)}})

	assert.LessOrEqual(t, streamer.maxSeen.Load(), int32(2))
	assert.Len(t, streamer.requests(), len(urls))
}

// retryingStreamer hands consume a partial body before the full one.
type retryingStreamer struct{}

func (retryingStreamer) Stream(_ context.Context, _ string, consume func(io.Reader) error) (int, error) {
	if err := consume(io.MultiReader(strings.NewReader("part"), errReader{})); err == nil {
		return 1, errors.New("expected failure")
	}
	return 2, consume(strings.NewReader("complete"))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestProcess_RetryDiscardsPartialBody(t *testing.T) {
	t.Parallel()

	d := attachments.NewDownloader(retryingStreamer{}, nil, t.TempDir(), 1, logger.NewNop())
	records := []domain.ItemRecord{{ID: "3", Attachments: refs("https://x.org/doc.txt")}}
	d.Process(context.Background(), records)

	res := records[0].Attachments[0].Result
	require.Equal(t, domain.OutcomeSucceeded, res.Outcome)
	assert.Equal(t, 2, res.Attempts)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "complete", string(data))
}

// openGate lets every request through.
type openGate struct{}

func (openGate) Acquire(ctx context.Context) error { return ctx.Err() }

func TestProcess_OversizeAttachmentFails(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, strings.Repeat("x", 100))
	}))
	defer server.Close()

	f := fetcher.New(fetcher.Config{MaxFileBytes: 10}, openGate{}, logger.NewNop())
	root := t.TempDir()
	d := attachments.NewDownloader(f, nil, root, 1, logger.NewNop())

	for run := 1; run <= 2; run++ {
		records := []domain.ItemRecord{{ID: "5", Attachments: refs(server.URL + "/big.pdf")}}
		d.Process(context.Background(), records)

		res := records[0].Attachments[0].Result
		require.NotNil(t, res)
		assert.Equal(t, domain.OutcomeFailed, res.Outcome)
		assert.Contains(t, res.Error, "exceeds 10 bytes")
		assert.Empty(t, res.Path)
		assert.Equal(t, int32(run), hits.Load(), "a failed download is retried on the next run")
	}

	entries, err := os.ReadDir(filepath.Join(root, "attachments", "5"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temp file left behind")
}

func TestPath_DeterministicAndSanitized(t *testing.T) {
	t.Parallel()

	d := attachments.NewDownloader(&fakeStreamer{}, nil, "/out", 1, logger.NewNop())

	p1 := d.Path("jdoe/dead-archive", "https://x.org/files/my%20poster.png", "png")
	p2 := d.Path("jdoe/dead-archive", "https://x.org/files/my%20poster.png", "png")
	p3 := d.Path("jdoe/dead-archive", "https://y.org/files/my%20poster.png", "png")

	assert.Equal(t, p1, p2)
	assert.NotEqual(t, p1, p3)
	assert.Equal(t, filepath.Join("/out", "attachments", "jdoe_dead-archive"), filepath.Dir(p1))
	assert.True(t, strings.HasSuffix(p1, "_my_poster.png"), p1)
}
