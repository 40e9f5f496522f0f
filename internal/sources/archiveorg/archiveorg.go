// Package archiveorg harvests recording metadata from the Internet
// Archive's advanced search API, optionally enriched with each item's
// file list from the metadata API.
package archiveorg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
)

const (
	// DefaultBaseURL is the archive's API host.
	DefaultBaseURL = "https://archive.org"
	// DefaultCollection is searched when no query is configured.
	DefaultCollection = "GratefulDead"
	// DefaultRows is the page size requested from the search API.
	DefaultRows = 100
)

// searchFields are requested from advancedsearch.
var searchFields = []string{
	"identifier", "title", "date", "performance_date", "year", "description",
	"creator", "subject", "venue", "location", "coverage", "spatial",
	"setlist", "notes", "lineage", "track", "source", "taper", "transferer", "runtime",
}

// Fallback order for derived fields.
var (
	dateFields    = []string{"date", "performance_date", "year", "coverage"}
	venueFields   = []string{"venue", "location", "coverage", "spatial"}
	setlistFields = []string{"setlist", "notes", "lineage", "track"}
	extraFields   = []string{"source", "taper", "transferer", "runtime"}
)

var errNoIdentifier = errors.New("document has no identifier")

// Config configures the source.
type Config struct {
	Name    string
	BaseURL string
	// Query is the advancedsearch query; it defaults to the collection.
	Query string
	Rows  int
	// Files enables the per-item metadata fetch that lists attachments.
	Files       bool
	IsCandidate func(rawURL string) bool
}

// Source implements the archive.org search listing.
type Source struct {
	name        string
	base        *url.URL
	query       string
	rows        int
	files       bool
	isCandidate func(string) bool
}

// New returns a Source for cfg.
func New(cfg Config) (*Source, error) {
	if cfg.Name == "" {
		cfg.Name = "archiveorg"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Query == "" {
		cfg.Query = "collection:" + DefaultCollection
	}
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}
	if cfg.IsCandidate == nil {
		cfg.IsCandidate = func(string) bool { return true }
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Source{
		name:        cfg.Name,
		base:        base,
		query:       cfg.Query,
		rows:        cfg.Rows,
		files:       cfg.Files,
		isCandidate: cfg.IsCandidate,
	}, nil
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// ListingURL returns the advancedsearch URL of page n.
func (s *Source) ListingURL(n int) string {
	q := url.Values{}
	q.Set("q", s.query)
	for _, f := range searchFields {
		q.Add("fl[]", f)
	}
	q.Set("sort[]", "identifier asc")
	q.Set("rows", strconv.Itoa(s.rows))
	q.Set("page", strconv.Itoa(n))
	q.Set("output", "json")
	return s.base.String() + "/advancedsearch.php?" + q.Encode()
}

type searchResponse struct {
	Response struct {
		NumFound int               `json:"numFound"`
		Start    int               `json:"start"`
		Docs     []json.RawMessage `json:"docs"`
	} `json:"response"`
}

// ParseListing splits the search response into one item per document.
// A further page exists while the page was full and the reported total
// has not been reached.
func (s *Source) ParseListing(_ int, _ string, body []byte) ([]domain.ItemRef, bool, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]domain.ItemRef, 0, len(resp.Response.Docs))
	for _, raw := range resp.Response.Docs {
		ref := domain.ItemRef{Raw: raw}
		var head struct {
			Identifier string `json:"identifier"`
			Title      any    `json:"title"`
		}
		if json.Unmarshal(raw, &head) == nil {
			ref.ID = head.Identifier
			if title, ok := head.Title.(string); ok {
				ref.Title = title
			}
		}
		if ref.ID != "" {
			ref.URL = s.base.String() + "/details/" + url.PathEscape(ref.ID)
		}
		items = append(items, ref)
	}

	got := len(resp.Response.Docs)
	hasNext := got >= s.rows && resp.Response.Start+got < resp.Response.NumFound
	return items, hasNext, nil
}

// document is a search hit. Every field may be a string, a number, or a
// list, so everything is decoded weakly into string slices.
type document struct {
	Identifier []string            `mapstructure:"identifier"`
	Title      []string            `mapstructure:"title"`
	Creator    []string            `mapstructure:"creator"`
	Subject    []string            `mapstructure:"subject"`
	Desc       []string            `mapstructure:"description"`
	Other      map[string][]string `mapstructure:",remain"`
}

func (d *document) field(name string) string {
	switch name {
	case "description":
		return strings.Join(d.Desc, " ")
	default:
		return strings.Join(d.Other[name], " ")
	}
}

func decodeDocument(raw []byte) (document, error) {
	var doc document

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return doc, fmt.Errorf("document is not an object: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return doc, err
	}
	// Decoding continues past bad fields; whatever parsed is kept.
	if err := dec.Decode(m); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Extract maps each search document to a record. Documents that are not
// objects, have no identifier, or carry unexpected field types produce
// degraded records with whatever was recovered.
func (s *Source) Extract(page *domain.ListingPage) []domain.ItemRecord {
	records := make([]domain.ItemRecord, 0, len(page.Items))
	for _, item := range page.Items {
		rec := domain.ItemRecord{ID: item.ID, URL: item.URL, Title: extract.CleanText(item.Title)}

		doc, err := decodeDocument(item.Raw)
		if err != nil {
			rec.MarkDegraded(err.Error())
		}
		s.fill(&rec, doc)

		if rec.ID == "" {
			rec.ID = extract.FallbackID(string(item.Raw))
			rec.MarkDegraded(errNoIdentifier.Error())
		}
		records = append(records, rec)
	}
	return records
}

func (s *Source) fill(rec *domain.ItemRecord, doc document) {
	if rec.ID == "" && len(doc.Identifier) > 0 {
		rec.ID = doc.Identifier[0]
		rec.URL = s.base.String() + "/details/" + url.PathEscape(rec.ID)
	}
	if rec.Title == "" && len(doc.Title) > 0 {
		rec.Title = extract.CleanText(doc.Title[0])
	}
	if len(doc.Creator) > 0 {
		rec.Creator = extract.CleanText(doc.Creator[0])
	}
	rec.Description = extract.CleanText(doc.field("description"))
	for _, subject := range doc.Subject {
		// Subjects often arrive as one "a; b; c" string.
		for _, part := range strings.Split(subject, ";") {
			rec.AddSubject(extract.CleanText(part))
		}
	}

	if v := firstOf(doc, dateFields); v != "" {
		extract.SetDate(rec, v)
	}
	if v := firstOf(doc, venueFields); v != "" {
		rec.SetField("venue", extract.CleanText(v))
		rec.AddTag("Venue: " + extract.CleanText(v))
	}

	var setlist []string
	for _, name := range setlistFields {
		if v := doc.field(name); v != "" {
			setlist = append(setlist, v)
		}
	}
	rec.SetField("setlist", extract.CleanText(strings.Join(setlist, " ")))

	for _, name := range extraFields {
		rec.SetField(name, extract.CleanText(doc.field(name)))
	}
	rec.Type = "recording"
}

func firstOf(doc document, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(doc.field(name)); v != "" {
			return v
		}
	}
	return ""
}

// DetailURL returns the metadata API URL when file listing is enabled.
func (s *Source) DetailURL(rec domain.ItemRecord) string {
	if !s.files || strings.HasPrefix(rec.ID, "anon-") {
		return ""
	}
	return s.base.String() + "/metadata/" + url.PathEscape(rec.ID)
}

type metadataResponse struct {
	Files []struct {
		Name   string `json:"name"`
		Format string `json:"format"`
		Source string `json:"source"`
	} `json:"files"`
}

// Enrich turns the item's file list into attachment candidates. Only
// original files are listed; derivatives duplicate them.
func (s *Source) Enrich(rec domain.ItemRecord, body []byte) (domain.ItemRecord, error) {
	var resp metadataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.ItemRecord{}, fmt.Errorf("decode metadata: %w", err)
	}

	out := domain.ItemRecord{ID: rec.ID}
	for _, f := range resp.Files {
		if f.Name == "" || (f.Source != "" && f.Source != "original") {
			continue
		}
		link := s.base.String() + "/download/" + url.PathEscape(rec.ID) + "/" + escapePath(f.Name)
		if !s.isCandidate(link) {
			continue
		}
		out.Attachments = append(out.Attachments, domain.AttachmentRef{URL: link})
	}
	return out, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
