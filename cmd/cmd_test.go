package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/sink"
)

// The commands share package state, so these tests do not run in parallel.

func writeConfig(t *testing.T, outDir, extra string) string {
	t.Helper()
	doc := fmt.Sprintf(`
logger:
  level: error
sink:
  output_dir: %s
rate_limit:
  interval: -1s
fetcher:
  respect_robots: false
attachments:
  enabled: false
%s`, outDir, extra)
	path := filepath.Join(t.TempDir(), "harvester.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := Execute(context.Background())
	return out.String(), err
}

func TestSourcesCommand(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
sources:
  - name: tapes
    kind: archiveorg
    query: "collection:etree"
  - name: gdao
    disabled: true
`)

	out, err := run(t, "--config", path, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "tapes")
	assert.Contains(t, out, "collection:etree")
	assert.Contains(t, out, "gdao")
	assert.Contains(t, out, "false")
}

func TestStatusCommand(t *testing.T) {
	outDir := t.TempDir()
	cursor := domain.NewCursor("gdao")
	cursor.LastPage = 12
	cursor.Committed.Append("1", "2", "3")
	cursor.RunID = "run-42"
	require.NoError(t, sink.NewFileCursorStore(outDir).Save(context.Background(), cursor))

	out, err := run(t, "--config", writeConfig(t, outDir, ""), "status", "gdao", "github")
	require.NoError(t, err)
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "never")
}

func TestHarvestCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := ""
		if r.URL.Query().Get("page") == "1" {
			items = `{"full_name":"a/one","owner":{"login":"a"}},{"full_name":"a/two","owner":{"login":"a"}}`
		}
		fmt.Fprintf(w, `{"total_count":2,"items":[%s]}`, items)
	}))
	t.Cleanup(srv.Close)

	outDir := t.TempDir()
	path := writeConfig(t, outDir, fmt.Sprintf(`
sources:
  - name: repos
    kind: github
    base_url: %s
    page_size: 2
`, srv.URL))

	out, err := run(t, "--config", path, "harvest", "repos")
	require.NoError(t, err)
	assert.Contains(t, out, "repos")
	assert.Contains(t, out, "done")

	data, err := os.ReadFile(filepath.Join(outDir, "repos.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	_, err = run(t, "--config", path, "harvest", "napster")
	require.Error(t, err)
}
