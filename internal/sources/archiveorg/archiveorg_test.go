package archiveorg_test

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/attachments"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sources/archiveorg"
)

const testRows = 10

func newSource(t *testing.T, files bool) *archiveorg.Source {
	t.Helper()

	s, err := archiveorg.New(archiveorg.Config{
		BaseURL:     "https://archive.test",
		Rows:        testRows,
		Files:       files,
		IsCandidate: attachments.DefaultPolicy().IsCandidate,
	})
	require.NoError(t, err)
	return s
}

// searchBody builds a response with the given raw docs.
func searchBody(numFound, start int, docs ...string) []byte {
	return []byte(fmt.Sprintf(`{"response":{"numFound":%d,"start":%d,"docs":[%s]}}`,
		numFound, start, strings.Join(docs, ",")))
}

func goodDoc(i int) string {
	return fmt.Sprintf(`{"identifier":"gd77-05-%02d.sbd","title":"Grateful Dead Live at Venue %d","date":"1977-05-%02dT00:00:00Z","venue":"Venue %d","subject":"Grateful Dead; Live concert"}`, i, i, i, i)
}

func parseAndExtract(t *testing.T, s *archiveorg.Source, body []byte) ([]domain.ItemRecord, bool) {
	t.Helper()

	items, hasNext, err := s.ParseListing(1, s.ListingURL(1), body)
	require.NoError(t, err)
	return s.Extract(&domain.ListingPage{Number: 1, Items: items}), hasNext
}

func TestListingURL(t *testing.T) {
	t.Parallel()

	s := newSource(t, false)
	u, err := url.Parse(s.ListingURL(2))
	require.NoError(t, err)

	assert.Equal(t, "/advancedsearch.php", u.Path)
	q := u.Query()
	assert.Equal(t, "collection:GratefulDead", q.Get("q"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("rows"))
	assert.Equal(t, "json", q.Get("output"))
	assert.Contains(t, q["fl[]"], "performance_date")
}

func TestExtract_MalformedDocumentDoesNotAbortPage(t *testing.T) {
	t.Parallel()

	docs := make([]string, 0, testRows)
	for i := 1; i <= testRows; i++ {
		if i == 5 {
			docs = append(docs, `42`)
			continue
		}
		docs = append(docs, goodDoc(i))
	}

	records, hasNext := parseAndExtract(t, newSource(t, false), searchBody(25, 0, docs...))
	assert.True(t, hasNext)
	require.Len(t, records, testRows)

	var good, degraded int
	for _, rec := range records {
		if rec.Degraded {
			degraded++
			assert.True(t, strings.HasPrefix(rec.ID, "anon-"))
			continue
		}
		good++
		assert.NotEmpty(t, rec.Title)
		assert.NotNil(t, rec.Date)
	}
	assert.Equal(t, 9, good)
	assert.Equal(t, 1, degraded)
}

func TestExtract_FieldFallbacks(t *testing.T) {
	t.Parallel()

	doc := `{"identifier":"gd72-08-27","title":"Veneta","year":1972,"coverage":"Veneta, OR",
		"description":["<p>Sunshine <b>Daydream</b></p>","benefit show"],
		"subject":["Grateful Dead","Live concert"],"notes":"Set 1: Promised Land","lineage":"SBD > DAT",
		"taper":"Bear"}`

	records, hasNext := parseAndExtract(t, newSource(t, false), searchBody(1, 0, doc))
	assert.False(t, hasNext)
	require.Len(t, records, 1)

	rec := records[0]
	assert.False(t, rec.Degraded)
	assert.Equal(t, "gd72-08-27", rec.ID)
	assert.Equal(t, "https://archive.test/details/gd72-08-27", rec.URL)
	assert.Equal(t, "1972", rec.DateRaw)
	require.NotNil(t, rec.Date)
	assert.Equal(t, 1972, rec.Date.Year())
	assert.Equal(t, "Veneta, OR", rec.Fields["venue"])
	assert.Equal(t, "Set 1: Promised Land SBD > DAT", rec.Fields["setlist"])
	assert.Equal(t, "Bear", rec.Fields["taper"])
	assert.Equal(t, "Sunshine Daydream benefit show", rec.Description)
	assert.Equal(t, []string{"Grateful Dead", "Live concert"}, rec.Subjects)
	assert.Equal(t, []string{"Venue: Veneta, OR"}, rec.Tags)
}

func TestExtract_UnexpectedFieldTypeKeepsRecoveredFields(t *testing.T) {
	t.Parallel()

	doc := `{"identifier":"gd70-02-13","title":{"nested":true},"date":"1970-02-13"}`

	records, _ := parseAndExtract(t, newSource(t, false), searchBody(1, 0, doc))
	require.Len(t, records, 1)

	rec := records[0]
	assert.True(t, rec.Degraded)
	assert.Equal(t, "gd70-02-13", rec.ID)
	assert.Equal(t, "1970-02-13", rec.DateRaw)
}

func TestParseListing_ShortPageIsLast(t *testing.T) {
	t.Parallel()

	s := newSource(t, false)
	_, hasNext, err := s.ParseListing(3, s.ListingURL(3), searchBody(23, 20, goodDoc(1), goodDoc(2), goodDoc(3)))
	require.NoError(t, err)
	assert.False(t, hasNext)

	_, _, err = s.ParseListing(1, s.ListingURL(1), []byte(`<html>maintenance</html>`))
	require.Error(t, err)
}

func TestEnrich_FileList(t *testing.T) {
	t.Parallel()

	s := newSource(t, true)
	rec := domain.ItemRecord{ID: "gd77-05-08.sbd"}
	assert.Equal(t, "https://archive.test/metadata/gd77-05-08.sbd", s.DetailURL(rec))
	assert.Empty(t, newSource(t, false).DetailURL(rec))

	body := `{"files":[
		{"name":"cover art.jpg","source":"original"},
		{"name":"gd77-05-08d1t01.flac","source":"original"},
		{"name":"gd77-05-08d1t01.mp3","source":"derivative"},
		{"name":"info.txt","source":"original"},
		{"name":"gd77.xml","source":"original"}]}`

	detail, err := s.Enrich(rec, []byte(body))
	require.NoError(t, err)

	var urls []string
	for _, ref := range detail.Attachments {
		urls = append(urls, ref.URL)
	}
	assert.Equal(t, []string{
		"https://archive.test/download/gd77-05-08.sbd/cover%20art.jpg",
		"https://archive.test/download/gd77-05-08.sbd/gd77-05-08d1t01.flac",
		"https://archive.test/download/gd77-05-08.sbd/info.txt",
	}, urls)
}
