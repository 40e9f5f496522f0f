package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/fetcher"
)

const testCacheTTL = time.Hour

func newTestChecker(gate fetcher.Gate) *fetcher.RobotsChecker {
	return fetcher.NewRobotsChecker(&http.Client{Timeout: 5 * time.Second}, gate, testAgent, testCacheTTL)
}

func TestIsAllowed_Rules(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\nCrawl-delay: 2\n"))
	}))
	defer server.Close()

	checker := newTestChecker(nil)

	tests := []struct {
		path string
		want bool
	}{
		{"/public/page", true},
		{"/private/secret", false},
		{"", true},
	}
	for _, tt := range tests {
		allowed, err := checker.IsAllowed(context.Background(), server.URL+tt.path)
		if err != nil {
			t.Fatalf("IsAllowed(%q) error = %v", tt.path, err)
		}
		if allowed != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.path, allowed, tt.want)
		}
	}

	host := server.Listener.Addr().String()
	if got := checker.CrawlDelay(host); got != 2*time.Second {
		t.Errorf("CrawlDelay() = %v, want 2s", got)
	}
}

func TestIsAllowed_MissingRobotsAllowsAll(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	allowed, err := newTestChecker(nil).IsAllowed(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("expected allow-all when robots.txt is missing")
	}
}

func TestIsAllowed_CachesPerHostAndUsesGate(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
	}))
	defer server.Close()

	gate := &countingGate{}
	checker := newTestChecker(gate)

	for range 3 {
		if _, err := checker.IsAllowed(context.Background(), server.URL+"/page"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if fetches.Load() != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", fetches.Load())
	}
	if gate.calls.Load() != 1 {
		t.Errorf("gate acquired %d times, want 1", gate.calls.Load())
	}
}

func TestIsAllowed_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := newTestChecker(nil).IsAllowed(context.Background(), "/relative/only"); err == nil {
		t.Error("expected error for URL without host")
	}
}
