// Package attachments filters candidate links by extension and downloads
// the eligible ones into a deterministic directory tree.
package attachments

import (
	"context"
	"strings"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
)

// Known extensions per kind.
var (
	ImageExtensions    = []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp"}
	DocumentExtensions = []string{"pdf", "doc", "docx", "txt", "rtf", "odt"}
	AudioExtensions    = []string{"mp3", "wav", "flac", "m4a", "aac"}
	VideoExtensions    = []string{"mp4", "mov", "avi", "mkv", "wmv"}
)

// PolicyConfig overrides the default allow list.
type PolicyConfig struct {
	// Allow replaces the default allow list (images and documents) when set.
	Allow []string `mapstructure:"allow" yaml:"allow"`
	// Deny removes extensions from the allow list.
	Deny []string `mapstructure:"deny" yaml:"deny"`
}

// Policy decides which attachments are eligible for download.
// Anything not explicitly allowed is ineligible.
type Policy struct {
	kinds map[string]domain.AttachmentKind
	allow map[string]bool
}

// NewPolicy builds a Policy from cfg.
func NewPolicy(cfg PolicyConfig) *Policy {
	p := &Policy{
		kinds: make(map[string]domain.AttachmentKind),
		allow: make(map[string]bool),
	}
	register := func(kind domain.AttachmentKind, exts []string) {
		for _, ext := range exts {
			p.kinds[ext] = kind
		}
	}
	register(domain.KindImage, ImageExtensions)
	register(domain.KindDocument, DocumentExtensions)
	register(domain.KindAudio, AudioExtensions)
	register(domain.KindVideo, VideoExtensions)

	allow := cfg.Allow
	if len(allow) == 0 {
		allow = append(append([]string(nil), ImageExtensions...), DocumentExtensions...)
	}
	for _, ext := range allow {
		p.allow[normalizeExt(ext)] = true
	}
	for _, ext := range cfg.Deny {
		delete(p.allow, normalizeExt(ext))
	}
	return p
}

// DefaultPolicy allows images and documents only.
func DefaultPolicy() *Policy {
	return NewPolicy(PolicyConfig{})
}

// Classify fills the extension, kind, and eligibility of ref.
func (p *Policy) Classify(ref domain.AttachmentRef) domain.AttachmentRef {
	ref.Extension = extract.Extension(ref.URL)
	ref.Kind = domain.KindUnknown
	if kind, ok := p.kinds[ref.Extension]; ok {
		ref.Kind = kind
	}
	ref.Eligible = ref.Extension != "" && p.allow[ref.Extension]
	return ref
}

// Resolve classifies ref and marks it skipped when it is ineligible.
func (p *Policy) Resolve(ref domain.AttachmentRef) domain.AttachmentRef {
	ref = p.Classify(ref)
	if !ref.Eligible {
		ref.Result = &domain.DownloadResult{Outcome: domain.OutcomeSkipped}
	}
	return ref
}

// Partition classifies refs and splits them into eligible and skipped.
// Skipped refs carry a skipped DownloadResult.
func (p *Policy) Partition(refs []domain.AttachmentRef) (eligible, skipped []domain.AttachmentRef) {
	for _, ref := range refs {
		ref = p.Resolve(ref)
		if ref.Eligible {
			eligible = append(eligible, ref)
			continue
		}
		skipped = append(skipped, ref)
	}
	return eligible, skipped
}

// Classifier resolves attachments without downloading anything. Ineligible
// refs are skipped; eligible refs keep their kind and have no result.
type Classifier struct {
	policy *Policy
}

// NewClassifier returns a Classifier for policy, or the default policy when nil.
func NewClassifier(policy *Policy) *Classifier {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Classifier{policy: policy}
}

// Process classifies every attachment of records in place.
func (c *Classifier) Process(_ context.Context, records []domain.ItemRecord) {
	for i := range records {
		for j := range records[i].Attachments {
			records[i].Attachments[j] = c.policy.Resolve(records[i].Attachments[j])
		}
	}
}

// IsCandidate reports whether rawURL has any extension the policy knows,
// allowed or not. Extractors use it to ignore ordinary page links.
func (p *Policy) IsCandidate(rawURL string) bool {
	_, ok := p.kinds[extract.Extension(rawURL)]
	return ok || p.allow[extract.Extension(rawURL)]
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
