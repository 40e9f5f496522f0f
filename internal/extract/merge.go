package extract

import (
	"fmt"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
)

// MergePolicy decides which value wins when a listing record and its
// detail page disagree on a scalar field.
type MergePolicy string

const (
	// LastWriteWins lets every non-empty detail value replace the listing value.
	LastWriteWins MergePolicy = "last_write_wins"
	// FirstWriteWins keeps non-empty listing values and only fills blanks.
	FirstWriteWins MergePolicy = "first_write_wins"
)

// ParseMergePolicy validates s. An empty string selects LastWriteWins.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case "", LastWriteWins:
		return LastWriteWins, nil
	case FirstWriteWins:
		return FirstWriteWins, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// Merge folds detail into base. Empty detail values never erase data.
// Tags, subjects, and attachments are unioned in listing-then-detail order;
// degradation from either side is kept.
func Merge(policy MergePolicy, base, detail domain.ItemRecord) domain.ItemRecord {
	out := base

	pick := func(current, incoming string) string {
		if incoming == "" {
			return current
		}
		if policy == FirstWriteWins && current != "" {
			return current
		}
		return incoming
	}

	out.Title = pick(base.Title, detail.Title)
	out.Description = pick(base.Description, detail.Description)
	out.Creator = pick(base.Creator, detail.Creator)
	out.Type = pick(base.Type, detail.Type)
	out.URL = pick(base.URL, detail.URL)

	if detail.DateRaw != "" && (policy == LastWriteWins || base.DateRaw == "") {
		out.DateRaw = detail.DateRaw
		out.Date = detail.Date
	}

	out.Tags = append([]string(nil), base.Tags...)
	for _, tag := range detail.Tags {
		out.AddTag(tag)
	}
	out.Subjects = append([]string(nil), base.Subjects...)
	for _, subject := range detail.Subjects {
		out.AddSubject(subject)
	}

	out.Attachments = mergeAttachments(base.Attachments, detail.Attachments)

	out.Fields = nil
	for k, v := range base.Fields {
		out.SetField(k, v)
	}
	for k, v := range detail.Fields {
		out.SetField(k, pick(out.Fields[k], v))
	}

	out.DegradedReasons = append([]string(nil), base.DegradedReasons...)
	out.DegradedReasons = append(out.DegradedReasons, detail.DegradedReasons...)
	out.Degraded = base.Degraded || detail.Degraded

	return out
}

func mergeAttachments(a, b []domain.AttachmentRef) []domain.AttachmentRef {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]domain.AttachmentRef, 0, len(a)+len(b))
	for _, list := range [][]domain.AttachmentRef{a, b} {
		for _, ref := range list {
			if seen[ref.URL] {
				continue
			}
			seen[ref.URL] = true
			out = append(out, ref)
		}
	}
	return out
}
