// Package github harvests repository metadata from the GitHub search API.
package github

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
)

const (
	// DefaultBaseURL is the public API host.
	DefaultBaseURL = "https://api.github.com"
	// DefaultQuery searches repository names, descriptions, and topics.
	DefaultQuery = "grateful dead"
	// DefaultPerPage is the API maximum.
	DefaultPerPage = 100
	// maxResults is the search API's hard cap on reachable results.
	maxResults = 1000
)

// Config configures the source.
type Config struct {
	Name    string
	BaseURL string
	Query   string
	PerPage int
}

// Source implements the repository search listing.
type Source struct {
	name    string
	base    string
	query   string
	perPage int
}

// New returns a Source for cfg.
func New(cfg Config) (*Source, error) {
	if cfg.Name == "" {
		cfg.Name = "github"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	if cfg.PerPage <= 0 || cfg.PerPage > DefaultPerPage {
		cfg.PerPage = DefaultPerPage
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Source{
		name:    cfg.Name,
		base:    strings.TrimSuffix(cfg.BaseURL, "/"),
		query:   cfg.Query,
		perPage: cfg.PerPage,
	}, nil
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// ListingURL returns search results page n, most starred first.
func (s *Source) ListingURL(n int) string {
	q := url.Values{}
	q.Set("q", s.query)
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(s.perPage))
	q.Set("page", strconv.Itoa(n))
	return s.base + "/search/repositories?" + q.Encode()
}

type searchResponse struct {
	TotalCount int               `json:"total_count"`
	Items      []json.RawMessage `json:"items"`
}

// ParseListing returns one item per repository. The listing ends on a
// short page or at the search API's result cap.
func (s *Source) ParseListing(n int, _ string, body []byte) ([]domain.ItemRef, bool, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]domain.ItemRef, 0, len(resp.Items))
	for _, raw := range resp.Items {
		ref := domain.ItemRef{Raw: raw}
		var head struct {
			FullName string `json:"full_name"`
			HTMLURL  string `json:"html_url"`
		}
		if json.Unmarshal(raw, &head) == nil {
			ref.ID = head.FullName
			ref.URL = head.HTMLURL
			ref.Title = head.FullName
		}
		items = append(items, ref)
	}

	seen := n * s.perPage
	hasNext := len(resp.Items) >= s.perPage && seen < resp.TotalCount && seen < maxResults
	return items, hasNext, nil
}

type repository struct {
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Topics      []string `json:"topics"`
	CloneURL    string   `json:"clone_url"`
	CreatedAt   string   `json:"created_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
	License *struct {
		Name string `json:"name"`
	} `json:"license"`
}

// Extract maps each repository to a record.
func (s *Source) Extract(page *domain.ListingPage) []domain.ItemRecord {
	records := make([]domain.ItemRecord, 0, len(page.Items))
	for _, item := range page.Items {
		rec := domain.ItemRecord{ID: item.ID, URL: item.URL, Title: item.Title, Type: "repository"}

		var repo repository
		if err := json.Unmarshal(item.Raw, &repo); err != nil {
			rec.MarkDegraded(fmt.Sprintf("decode repository: %v", err))
		} else {
			rec.Description = extract.CleanText(repo.Description)
			rec.Creator = repo.Owner.Login
			extract.SetDate(&rec, repo.CreatedAt)
			for _, topic := range repo.Topics {
				rec.AddTag(topic)
			}
			rec.SetField("language", repo.Language)
			rec.SetField("stars", strconv.Itoa(repo.Stars))
			rec.SetField("forks", strconv.Itoa(repo.Forks))
			rec.SetField("clone_url", repo.CloneURL)
			license := "No license"
			if repo.License != nil && repo.License.Name != "" {
				license = repo.License.Name
			}
			rec.SetField("license", license)
		}

		if rec.ID == "" {
			rec.ID = extract.FallbackID(string(item.Raw))
			rec.MarkDegraded("repository has no full_name")
		}
		records = append(records, rec)
	}
	return records
}
