package harvest

import (
	"time"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
)

// AttachmentTally counts attachment outcomes.
type AttachmentTally struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Report summarises a run. While a run is in progress it is also the
// live status snapshot.
type Report struct {
	Source      string                `json:"source"`
	RunID       string                `json:"run_id,omitempty"`
	State       State                 `json:"state"`
	Page        int                   `json:"page"`
	Pages       int                   `json:"pages"`
	Committed   int                   `json:"committed"`
	Skipped     int                   `json:"skipped"`
	Degraded    int                   `json:"degraded"`
	Attachments AttachmentTally       `json:"attachments"`
	StopReason  string                `json:"stop_reason,omitempty"`
	Cursor      *domain.HarvestCursor `json:"-"`
	LastPage    int                   `json:"last_page"`
	Err         error                 `json:"-"`
	Error       string                `json:"error,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at,omitzero"`
}

// OK reports whether the run ended successfully.
func (r Report) OK() bool {
	return r.State == StateDone
}

// Elapsed is the run's wall time so far.
func (r Report) Elapsed() time.Duration {
	end := r.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(r.StartedAt)
}
