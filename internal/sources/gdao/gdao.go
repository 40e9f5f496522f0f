// Package gdao harvests the Grateful Dead Archive Online item listing.
// Listing pages are search results; each item is enriched from its
// detail page.
package gdao

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
)

const (
	// DefaultBaseURL is the archive's public site.
	DefaultBaseURL = "https://www.gdao.org"
	// ItemsPerPage is the fixed size of a search results page.
	ItemsPerPage = 25
	// SiteSuffix is appended to every page title by the site.
	SiteSuffix = "· Grateful Dead Archive Online"

	creatorName = "Grateful Dead"
)

var (
	itemPath    = regexp.MustCompile(`/items/show/(\d+)`)
	resultCount = regexp.MustCompile(`of ([\d,]+) results`)
	liveAt      = regexp.MustCompile(`Live at (.+?) on \d{4}-\d{2}-\d{2}`)
)

// Config configures the source.
type Config struct {
	Name    string
	BaseURL string
	// Query is the search query; empty lists everything.
	Query string
	// IsCandidate selects which detail-page links are attachment candidates.
	IsCandidate func(rawURL string) bool
}

// Source implements the GDAO listing and detail extraction.
type Source struct {
	name        string
	base        *url.URL
	query       string
	isCandidate func(string) bool
}

// New returns a Source for cfg.
func New(cfg Config) (*Source, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Name == "" {
		cfg.Name = "gdao"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.IsCandidate == nil {
		cfg.IsCandidate = func(string) bool { return false }
	}
	return &Source{name: cfg.Name, base: base, query: cfg.Query, isCandidate: cfg.IsCandidate}, nil
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// ListingURL returns the search results URL of page n.
func (s *Source) ListingURL(n int) string {
	u := *s.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/solr-search"
	q := url.Values{}
	q.Set("q", s.query)
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}

// ParseListing collects item links in page order and detects whether the
// results continue past page n.
func (s *Source) ParseListing(n int, pageURL string, body []byte) ([]domain.ItemRef, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = s.base
	}

	var items []domain.ItemRef
	index := make(map[string]int)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := itemPath.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		title := extract.NodeText(a)

		if i, ok := index[id]; ok {
			if items[i].Title == "" {
				items[i].Title = title
			}
			return
		}
		index[id] = len(items)
		items = append(items, domain.ItemRef{
			ID:    id,
			URL:   extract.Resolve(base, href),
			Title: title,
		})
	})

	return items, hasNextPage(doc, n), nil
}

// hasNextPage looks for a "Next" link, a link to page n+1, or a result
// count implying more pages.
func hasNextPage(doc *goquery.Document, n int) bool {
	want := strconv.Itoa(n + 1)
	found := false
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := extract.NodeText(a)
		if strings.EqualFold(strings.TrimRight(text, " »›>"), "next") || text == want {
			found = true
		}
		return !found
	})
	if found {
		return true
	}

	m := resultCount.FindStringSubmatch(doc.Text())
	if m == nil {
		return false
	}
	total, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return false
	}
	pages := (total + ItemsPerPage - 1) / ItemsPerPage
	return n < pages
}

// Extract builds listing-level records. A result without a readable
// title is kept but marked degraded.
func (s *Source) Extract(page *domain.ListingPage) []domain.ItemRecord {
	records := make([]domain.ItemRecord, 0, len(page.Items))
	for _, item := range page.Items {
		rec := domain.ItemRecord{
			ID:    item.ID,
			URL:   item.URL,
			Title: extract.TrimSiteSuffix(item.Title, SiteSuffix),
		}
		if rec.ID == "" {
			rec.ID = extract.FallbackID(item.URL, item.Title)
			rec.MarkDegraded("item id missing from listing link")
		}
		if rec.Title == "" {
			rec.MarkDegraded("listing title missing")
		}
		extract.SetDate(&rec, extract.FindISODate(rec.Title))
		records = append(records, rec)
	}
	return records
}

// DetailURL returns the item page.
func (s *Source) DetailURL(rec domain.ItemRecord) string { return rec.URL }

// Enrich parses an item detail page. Sources of metadata are applied in
// increasing priority: title, JSON-LD, then dt/dd pairs.
func (s *Source) Enrich(rec domain.ItemRecord, body []byte) (domain.ItemRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.ItemRecord{}, fmt.Errorf("parse html: %w", err)
	}

	out := domain.ItemRecord{ID: rec.ID}

	out.Title = extract.TrimSiteSuffix(extract.FirstText(doc, "h1", "title"), SiteSuffix)

	if err := applyJSONLD(doc, &out); err != nil {
		out.MarkDegraded(err.Error())
	}
	applyDefinitionList(doc, &out)
	applyMetadataBlocks(doc, &out)

	if out.DateRaw == "" {
		title := out.Title
		if title == "" {
			title = rec.Title
		}
		extract.SetDate(&out, extract.FindISODate(title))
	}
	if out.Creator == "" && rec.Creator == "" &&
		strings.Contains(strings.ToLower(doc.Text()), strings.ToLower(creatorName)) {
		out.Creator = creatorName
	}
	for _, title := range []string{out.Title, rec.Title} {
		if m := liveAt.FindStringSubmatch(title); m != nil {
			out.AddTag("Venue: " + m[1])
			out.SetField("venue", m[1])
			break
		}
	}

	base, err := url.Parse(rec.URL)
	if err != nil || rec.URL == "" {
		base = s.base
	}
	out.Attachments = s.attachmentLinks(doc, base)

	return out, nil
}

// jsonLD is the subset of schema.org fields the archive publishes.
type jsonLD struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Creator       json.RawMessage `json:"creator"`
	DateCreated   string          `json:"dateCreated"`
	DatePublished string          `json:"datePublished"`
	Genre         string          `json:"genre"`
	Keywords      json.RawMessage `json:"keywords"`
}

func applyJSONLD(doc *goquery.Document, out *domain.ItemRecord) error {
	script := doc.Find(`script[type="application/ld+json"]`).First()
	if script.Length() == 0 {
		return nil
	}

	var ld jsonLD
	if err := json.Unmarshal([]byte(script.Text()), &ld); err != nil {
		return fmt.Errorf("json-ld: %w", err)
	}

	if v := extract.CleanText(ld.Name); v != "" {
		out.Title = v
	}
	if v := extract.CleanText(ld.Description); v != "" {
		out.Description = v
	}
	if v := creatorOf(ld.Creator); v != "" {
		out.Creator = v
	}
	if ld.DatePublished != "" {
		extract.SetDate(out, ld.DatePublished)
	} else if ld.DateCreated != "" {
		extract.SetDate(out, ld.DateCreated)
	}
	if v := extract.CleanText(ld.Genre); v != "" {
		out.Type = v
	}
	for _, kw := range stringOrList(ld.Keywords) {
		out.AddTag(extract.CleanText(kw))
	}
	return nil
}

// creatorOf accepts a plain name or a {"name": ...} object.
func creatorOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var name string
	if json.Unmarshal(raw, &name) == nil {
		return extract.CleanText(name)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return extract.CleanText(obj.Name)
	}
	return ""
}

func stringOrList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var one string
	if json.Unmarshal(raw, &one) == nil && one != "" {
		return []string{one}
	}
	return nil
}

func applyDefinitionList(doc *goquery.Document, out *domain.ItemRecord) {
	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.NextFiltered("dd")
		if dd.Length() == 0 {
			return
		}
		key := strings.ToLower(extract.NodeText(dt))
		value := extract.NodeText(dd)
		if value == "" {
			return
		}

		switch {
		case strings.Contains(key, "creator"):
			out.Creator = value
		case strings.Contains(key, "date"):
			extract.SetDate(out, value)
		case strings.Contains(key, "type"), strings.Contains(key, "format"):
			out.Type = value
		case strings.Contains(key, "description"):
			out.Description = value
		case strings.Contains(key, "subject"):
			out.AddSubject(value)
		case strings.Contains(key, "tag"):
			out.AddTag(value)
		default:
			out.SetField(fieldKey(key), value)
		}
	})
}

// applyMetadataBlocks fills creator and date from free-text metadata
// blocks when nothing more specific was found.
func applyMetadataBlocks(doc *goquery.Document, out *domain.ItemRecord) {
	doc.Find(`div[class*="metadata"], div[class*="Metadata"]`).Find("span, div, p").Each(func(_ int, el *goquery.Selection) {
		text := extract.NodeText(el)
		if out.Creator == "" && strings.Contains(text, creatorName) {
			out.Creator = creatorName
		}
		if out.DateRaw == "" {
			extract.SetDate(out, extract.FindISODate(text))
		}
	})
}

func (s *Source) attachmentLinks(doc *goquery.Document, base *url.URL) []domain.AttachmentRef {
	var refs []domain.AttachmentRef
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := extract.Resolve(base, href)
		if abs == "" || seen[abs] || !s.isCandidate(abs) {
			return
		}
		seen[abs] = true
		refs = append(refs, domain.AttachmentRef{URL: abs})
	})
	return refs
}

func fieldKey(label string) string {
	label = strings.TrimSuffix(strings.TrimSpace(label), ":")
	return strings.Join(strings.Fields(label), "_")
}
