package runner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/runner"
)

type fakeHarvester struct {
	mu     sync.Mutex
	calls  []string
	resume []bool
	fail   map[string]error
}

func (f *fakeHarvester) Harvest(_ context.Context, name string, ov runner.Overrides) (harvest.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.resume = append(f.resume, ov.Resume != nil && *ov.Resume)
	if err := f.fail[name]; err != nil {
		return harvest.Report{}, err
	}
	return harvest.Report{Source: name, State: harvest.StateDone}, nil
}

func (f *fakeHarvester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestScheduler_RunNowHarvestsInOrder(t *testing.T) {
	t.Parallel()

	h := &fakeHarvester{fail: map[string]error{"gdao": errors.New("already running")}}
	s, err := runner.NewScheduler("@daily", []string{"archiveorg", "gdao", "github"}, h, logger.NewNop())
	require.NoError(t, err)

	reports := s.RunNow(context.Background())

	assert.Equal(t, []string{"archiveorg", "gdao", "github"}, h.calls)
	assert.Equal(t, []bool{true, true, true}, h.resume)
	require.Len(t, reports, 2)
	assert.Equal(t, "github", reports[1].Source)
}

func TestScheduler_RunNowStopsWhenCancelled(t *testing.T) {
	t.Parallel()

	h := &fakeHarvester{}
	s, err := runner.NewScheduler("@daily", []string{"gdao"}, h, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, s.RunNow(ctx))
	assert.Zero(t, h.callCount())
}

func TestNewScheduler_Rejects(t *testing.T) {
	t.Parallel()

	_, err := runner.NewScheduler("whenever", []string{"gdao"}, &fakeHarvester{}, logger.NewNop())
	require.Error(t, err)

	_, err = runner.NewScheduler("@daily", nil, &fakeHarvester{}, logger.NewNop())
	require.Error(t, err)
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	t.Parallel()

	h := &fakeHarvester{}
	s, err := runner.NewScheduler("@every 1s", []string{"deadcast"}, h, logger.NewNop())
	require.NoError(t, err)

	s.Start(context.Background())
	assert.False(t, s.Next().IsZero())
	require.Eventually(t, func() bool { return h.callCount() > 0 }, 5*time.Second, 50*time.Millisecond)
	s.Stop()
}
