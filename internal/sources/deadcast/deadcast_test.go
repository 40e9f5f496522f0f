package deadcast_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources/deadcast"
)

const indexPage = `<html><body><ul>
<li><a href="/deadcast/season-1-episode-1">Season 1, Episode 1: Cornell 1977</a></li>
<li><a href="https://www.dead.net/deadcast/season-1-episode-2/">Season 1, Episode 2: Veneta</a></li>
<li><a href="/deadcast/season-1-episode-1">Season 1, Episode 1: Cornell 1977</a></li>
<li><a href="/deadcast/short">Ep 3</a></li>
<li><a href="/shows">Shows and more</a></li>
</ul></body></html>`

func newSource(t *testing.T) *deadcast.Source {
	t.Helper()

	s, err := deadcast.New(deadcast.Config{})
	require.NoError(t, err)
	return s
}

func TestParseListing(t *testing.T) {
	t.Parallel()

	s := newSource(t)
	assert.Equal(t, "https://www.dead.net/deadcast-index", s.ListingURL(1))

	items, hasNext, err := s.ParseListing(1, s.ListingURL(1), []byte(indexPage))
	require.NoError(t, err)
	assert.False(t, hasNext)

	require.Len(t, items, 2)
	assert.Equal(t, "season-1-episode-1", items[0].ID)
	assert.Equal(t, "https://www.dead.net/deadcast/season-1-episode-1", items[0].URL)
	assert.Equal(t, "season-1-episode-2", items[1].ID)

	items, hasNext, err = s.ParseListing(2, s.ListingURL(2), []byte(indexPage))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.False(t, hasNext)
}

func TestEnrich_SelectorTranscript(t *testing.T) {
	t.Parallel()

	transcript := strings.Repeat("We were talking about the Wall of Sound. ", 10)
	body := `<html><body><h1>Episode 1: Cornell</h1><span class="date">May 8, 1977</span>
		<div class="field-name-field-transcript"><p>` + transcript + `</p></div></body></html>`

	s := newSource(t)
	detail, err := s.Enrich(domain.ItemRecord{ID: "ep1", URL: "https://www.dead.net/deadcast/ep1"}, []byte(body))
	require.NoError(t, err)

	assert.False(t, detail.Degraded)
	assert.Equal(t, "Episode 1: Cornell", detail.Title)
	require.NotNil(t, detail.Date)
	assert.Equal(t, "1977-05-08", detail.Date.Format("2006-01-02"))
	assert.Equal(t, strings.TrimSpace(transcript), detail.Fields["transcript"])
	assert.Equal(t, "80", detail.Fields["word_count"])
}

func TestEnrich_ShortContentIsDegraded(t *testing.T) {
	t.Parallel()

	body := `<html><body><h1>Episode 9</h1><div class="content">Coming soon.</div></body></html>`

	s := newSource(t)
	detail, err := s.Enrich(domain.ItemRecord{ID: "ep9", URL: "https://www.dead.net/deadcast/ep9"}, []byte(body))
	require.NoError(t, err)

	assert.True(t, detail.Degraded)
	assert.Equal(t, "Episode 9", detail.Title)
	assert.Empty(t, detail.Fields["transcript"])
}
