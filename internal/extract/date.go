// Package extract holds the parsing helpers shared by every source's
// extractor: best-effort dates, text cleanup, link resolution, and the
// detail-page merge policy.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
)

// dateLayouts are tried in order; the first match wins.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"Monday, January 2, 2006",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"2006-01",
	"January 2006",
	"2006",
}

var embeddedISODate = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// ParseDate parses raw with the known layouts, then falls back to the
// first YYYY-MM-DD found inside it. It returns nil when nothing parses.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}

	if m := embeddedISODate.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]); err == nil {
			return &t
		}
	}
	return nil
}

// FindISODate returns the first YYYY-MM-DD substring of s, or "".
func FindISODate(s string) string {
	if m := embeddedISODate.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// SetDate stores raw on rec and its normalized form when it parses.
// Unparseable input is kept verbatim with a nil Date.
func SetDate(rec *domain.ItemRecord, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	rec.DateRaw = raw
	rec.Date = ParseDate(raw)
}
