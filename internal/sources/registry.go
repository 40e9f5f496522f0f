// Package sources builds the configured harvest sources.
package sources

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources/archiveorg"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources/deadcast"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources/gdao"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources/github"
)

// Source kinds.
const (
	KindGDAO       = "gdao"
	KindArchiveOrg = "archiveorg"
	KindDeadcast   = "deadcast"
	KindGitHub     = "github"
)

// ErrUnknownSource is returned for a name with no definition.
var ErrUnknownSource = errors.New("unknown source")

// Definition describes one configured source.
type Definition struct {
	Name    string `mapstructure:"name"     yaml:"name"`
	Kind    string `mapstructure:"kind"     yaml:"kind"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Query is the search query (gdao, archiveorg, github).
	Query string `mapstructure:"query" yaml:"query"`
	// PageSize is the requested page size (archiveorg rows, github per_page).
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
	// Path is the index path (deadcast).
	Path string `mapstructure:"path" yaml:"path"`
	// Details enables the per-item detail fetch where it is optional (archiveorg).
	Details bool `mapstructure:"details" yaml:"details"`
	// Disabled keeps the source out of scheduled runs.
	Disabled bool `mapstructure:"disabled" yaml:"disabled"`
}

// KnownKind reports whether kind names a built-in scraper.
func KnownKind(kind string) bool {
	switch kind {
	case KindGDAO, KindArchiveOrg, KindDeadcast, KindGitHub:
		return true
	}
	return false
}

// Defaults returns the built-in source definitions.
func Defaults() []Definition {
	return []Definition{
		{Name: KindGDAO, Kind: KindGDAO, BaseURL: gdao.DefaultBaseURL},
		{
			Name: KindArchiveOrg, Kind: KindArchiveOrg, BaseURL: archiveorg.DefaultBaseURL,
			Query: "collection:" + archiveorg.DefaultCollection, PageSize: archiveorg.DefaultRows,
		},
		{Name: KindDeadcast, Kind: KindDeadcast, BaseURL: deadcast.DefaultBaseURL, Path: deadcast.DefaultIndexPath},
		{Name: KindGitHub, Kind: KindGitHub, BaseURL: github.DefaultBaseURL, Query: github.DefaultQuery, PageSize: github.DefaultPerPage},
	}
}

// Registry holds source definitions by name.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry indexes defs by name. Later definitions replace earlier ones.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.Kind == "" {
			d.Kind = d.Name
		}
		r.defs[d.Name] = d
	}
	return r
}

// Definitions returns every definition sorted by name.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the definition called name.
func (r *Registry) Lookup(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return d, nil
}

// Build constructs the source called name. isCandidate selects which
// links are attachment candidates.
func (r *Registry) Build(name string, isCandidate func(string) bool) (harvest.Source, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return New(d, isCandidate)
}

// New constructs a source from d.
func New(d Definition, isCandidate func(string) bool) (harvest.Source, error) {
	var (
		src harvest.Source
		err error
	)
	switch d.Kind {
	case KindGDAO:
		src, err = unwrap(gdao.New(gdao.Config{Name: d.Name, BaseURL: d.BaseURL, Query: d.Query, IsCandidate: isCandidate}))
	case KindArchiveOrg:
		src, err = unwrap(archiveorg.New(archiveorg.Config{
			Name: d.Name, BaseURL: d.BaseURL, Query: d.Query, Rows: d.PageSize,
			Files: d.Details, IsCandidate: isCandidate,
		}))
	case KindDeadcast:
		src, err = unwrap(deadcast.New(deadcast.Config{Name: d.Name, BaseURL: d.BaseURL, IndexPath: d.Path}))
	case KindGitHub:
		src, err = unwrap(github.New(github.Config{Name: d.Name, BaseURL: d.BaseURL, Query: d.Query, PerPage: d.PageSize}))
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownSource, d.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", d.Name, err)
	}
	return src, nil
}

// unwrap keeps a failed constructor from yielding a typed nil interface.
func unwrap[S harvest.Source](s S, err error) (harvest.Source, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
