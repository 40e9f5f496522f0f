package harvest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

func TestBoard_TracksRunningAndFinished(t *testing.T) {
	t.Parallel()

	board := harvest.NewBoard()
	assert.Empty(t, board.Snapshot())

	s := openSink(t, t.TempDir())
	o := harvest.New(&fakeSource{lastPage: 1}, newFakeFetcher("a"), okAttachments{}, s,
		harvest.Config{}, logger.NewNop())

	require.True(t, board.Start(testSourceName, o))
	assert.False(t, board.Start(testSourceName, o), "a source runs once at a time")

	live, ok := board.Lookup(testSourceName)
	require.True(t, ok)
	assert.Equal(t, harvest.StateIdle, live.State)

	board.Finish(o.Run(context.Background()))

	got := board.Snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, harvest.StateDone, got[0].State)
	assert.Equal(t, 1, got[0].Committed)

	assert.True(t, board.Start(testSourceName, o))
}

func TestBoard_SnapshotIsSorted(t *testing.T) {
	t.Parallel()

	board := harvest.NewBoard()
	board.Finish(harvest.Report{Source: "github"})
	board.Finish(harvest.Report{Source: "archiveorg"})
	board.Finish(harvest.Report{Source: "gdao"})

	var names []string
	for _, r := range board.Snapshot() {
		names = append(names, r.Source)
	}
	assert.Equal(t, []string{"archiveorg", "gdao", "github"}, names)

	_, ok := board.Lookup("deadcast")
	assert.False(t, ok)
}
