// Package domain holds the value types that flow through a harvest run.
package domain

import "time"

// ItemRef is one entry found on a listing page.
type ItemRef struct {
	ID    string
	URL   string
	Title string
	// Raw holds the item's source fragment (HTML or JSON) for the extractor.
	Raw []byte
}

// ListingPage is a fetched listing page. It is produced by the pagination
// walker and discarded once its records are committed.
type ListingPage struct {
	Number int
	URL    string
	Body   []byte
	Items  []ItemRef
	// Last is set when the page has no next-page affordance or no items.
	Last bool
}

// ItemRecord is the unit of output, one JSON line per record.
type ItemRecord struct {
	ID          string            `json:"id"`
	Source      string            `json:"source"`
	URL         string            `json:"url,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Creator     string            `json:"creator,omitempty"`
	Date        *time.Time        `json:"date"`
	DateRaw     string            `json:"date_raw,omitempty"`
	Type        string            `json:"type,omitempty"`
	Tags        []string          `json:"tags"`
	Subjects    []string          `json:"subjects"`
	Attachments []AttachmentRef   `json:"attachments"`
	Fields      map[string]string `json:"fields,omitempty"`

	Degraded        bool     `json:"degraded,omitempty"`
	DegradedReasons []string `json:"degraded_reasons,omitempty"`

	Page        int       `json:"page"`
	HarvestedAt time.Time `json:"harvested_at"`
}

// MarkDegraded flags the record as partially extracted.
func (r *ItemRecord) MarkDegraded(reason string) {
	r.Degraded = true
	r.DegradedReasons = append(r.DegradedReasons, reason)
}

// AddTag appends tag unless it is empty or already present.
func (r *ItemRecord) AddTag(tag string) {
	r.Tags = appendUnique(r.Tags, tag)
}

// AddSubject appends subject unless it is empty or already present.
func (r *ItemRecord) AddSubject(subject string) {
	r.Subjects = appendUnique(r.Subjects, subject)
}

// SetField stores a source-specific value. Empty values are ignored.
func (r *ItemRecord) SetField(key, value string) {
	if value == "" {
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[key] = value
}

// AttachmentCounts tallies the record's attachment outcomes.
func (r *ItemRecord) AttachmentCounts() (succeeded, skipped, failed int) {
	for i := range r.Attachments {
		res := r.Attachments[i].Result
		if res == nil {
			continue
		}
		switch res.Outcome {
		case OutcomeSucceeded:
			succeeded++
		case OutcomeSkipped:
			skipped++
		case OutcomeFailed:
			failed++
		}
	}
	return succeeded, skipped, failed
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
