// Package deadcast harvests podcast episode transcripts. The listing is a
// single index page; each episode's transcript comes from its own page.
package deadcast

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
)

const (
	// DefaultBaseURL is the podcast's site.
	DefaultBaseURL = "https://www.dead.net"
	// DefaultIndexPath lists every episode.
	DefaultIndexPath = "/deadcast-index"

	episodeMarker   = "/deadcast/"
	minTitleLen     = 5
	minTranscript   = 200
	fieldTranscript = "transcript"
	fieldWordCount  = "word_count"
)

// transcriptSelectors are tried in order; the first with enough text wins.
var transcriptSelectors = []string{
	".field-name-field-transcript",
	".field-name-body",
	".field-content",
	".content",
	"article",
}

// Config configures the source.
type Config struct {
	Name      string
	BaseURL   string
	IndexPath string
}

// Source implements the transcript listing.
type Source struct {
	name  string
	base  *url.URL
	index string
}

// New returns a Source for cfg.
func New(cfg Config) (*Source, error) {
	if cfg.Name == "" {
		cfg.Name = "deadcast"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = DefaultIndexPath
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Source{name: cfg.Name, base: base, index: cfg.IndexPath}, nil
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// ListingURL returns the index page. The index is not paginated, so
// pages after the first carry a marker the parser recognises as empty.
func (s *Source) ListingURL(n int) string {
	u := s.base.ResolveReference(&url.URL{Path: s.index})
	if n > 1 {
		u.RawQuery = "page=" + strconv.Itoa(n)
	}
	return u.String()
}

// ParseListing returns every distinct episode link on the index. Only the
// first page has items.
func (s *Source) ParseListing(n int, pageURL string, body []byte) ([]domain.ItemRef, bool, error) {
	if n > 1 {
		return nil, false, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = s.base
	}

	var items []domain.ItemRef
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, episodeMarker) {
			return
		}
		title := extract.NodeText(a)
		if len([]rune(title)) <= minTitleLen {
			return
		}
		abs := extract.Resolve(base, href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		items = append(items, domain.ItemRef{ID: slug(abs), URL: abs, Title: title})
	})

	return items, false, nil
}

// slug is the episode's last path segment.
func slug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(strings.TrimSuffix(u.Path, "/"))
}

// Extract builds one record per episode link.
func (s *Source) Extract(page *domain.ListingPage) []domain.ItemRecord {
	records := make([]domain.ItemRecord, 0, len(page.Items))
	for _, item := range page.Items {
		rec := domain.ItemRecord{ID: item.ID, URL: item.URL, Title: item.Title, Type: "transcript"}
		if rec.ID == "" || rec.ID == "." || rec.ID == "deadcast" {
			rec.ID = extract.FallbackID(item.URL)
			rec.MarkDegraded("episode slug missing from link")
		}
		records = append(records, rec)
	}
	return records
}

// DetailURL returns the episode page.
func (s *Source) DetailURL(rec domain.ItemRecord) string { return rec.URL }

// Enrich extracts the transcript, title, and date from an episode page.
// A page without a substantial transcript yields a degraded record.
func (s *Source) Enrich(rec domain.ItemRecord, body []byte) (domain.ItemRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.ItemRecord{}, fmt.Errorf("parse html: %w", err)
	}

	out := domain.ItemRecord{ID: rec.ID}
	out.Title = extract.FirstText(doc, "h1")
	extract.SetDate(&out, extract.FirstText(doc, ".date", ".published", "time"))

	transcript := selectTranscript(doc)
	if transcript == "" {
		transcript = readableText(body, rec.URL)
	}
	if transcript == "" {
		out.MarkDegraded("no transcript found")
		return out, nil
	}

	out.SetField(fieldTranscript, transcript)
	out.SetField(fieldWordCount, strconv.Itoa(len(strings.Fields(transcript))))
	return out, nil
}

func selectTranscript(doc *goquery.Document) string {
	for _, selector := range transcriptSelectors {
		text := extract.NodeText(doc.Find(selector).First())
		if len(text) > minTranscript {
			return text
		}
	}
	return ""
}

// readableText falls back to readability's main-content detection.
func readableText(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	text := extract.CleanText(article.TextContent)
	if len(text) <= minTranscript {
		return ""
	}
	return text
}
