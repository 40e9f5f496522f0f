package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/temoto/robotstxt"
)

// Default cache TTL for robots.txt entries.
const defaultRobotsCacheTTL = 24 * time.Hour

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024

// RobotsChecker checks and caches robots.txt rules per host.
// A missing, unreadable, or non-2xx robots.txt allows everything.
type RobotsChecker struct {
	httpClient *http.Client
	gate       Gate
	userAgent  string
	cache      *ttlcache.Cache[string, *robotsEntry]
}

type robotsEntry struct {
	data     *robotstxt.RobotsData
	allowAll bool
}

// NewRobotsChecker creates a RobotsChecker. gate may be nil; when set,
// robots.txt requests share the harvest's rate limit.
func NewRobotsChecker(httpClient *http.Client, gate Gate, userAgent string, cacheTTL time.Duration) *RobotsChecker {
	if cacheTTL <= 0 {
		cacheTTL = defaultRobotsCacheTTL
	}

	return &RobotsChecker{
		httpClient: httpClient,
		gate:       gate,
		userAgent:  userAgent,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *robotsEntry](cacheTTL),
			ttlcache.WithDisableTouchOnHit[string, *robotsEntry](),
		),
	}
}

// IsAllowed reports whether robots.txt for the URL's host allows the path.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	entry, err := r.entry(ctx, host, parsed.Scheme)
	if err != nil {
		return false, err
	}
	if entry.allowAll {
		return true, nil
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return entry.data.TestAgent(path, r.userAgent), nil
}

// CrawlDelay returns the cached crawl-delay for host, or 0.
func (r *RobotsChecker) CrawlDelay(host string) time.Duration {
	item := r.cache.Get(strings.ToLower(host))
	if item == nil || item.Value().allowAll {
		return 0
	}

	group := item.Value().data.FindGroup(r.userAgent)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}

func (r *RobotsChecker) entry(ctx context.Context, host, scheme string) (*robotsEntry, error) {
	if item := r.cache.Get(host); item != nil {
		return item.Value(), nil
	}

	if scheme == "" {
		scheme = "https"
	}

	if r.gate != nil {
		if err := r.gate.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	body, status, err := r.fetch(ctx, scheme+"://"+host+robotsTxtPath)
	entry := &robotsEntry{allowAll: true}
	if err == nil && status >= statusOK && status < statusMultiple {
		if data, parseErr := robotstxt.FromBytes(body); parseErr == nil {
			entry = &robotsEntry{data: data}
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.cache.Set(host, entry, ttlcache.DefaultTTL)
	return entry, nil
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (body []byte, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("robots: create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("robots: fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("robots: read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
