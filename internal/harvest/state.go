// Package harvest drives one source through the pipeline: walk listing
// pages, extract and enrich records, resolve attachments, and commit each
// page to the resumable sink in order.
package harvest

import "fmt"

// State is the orchestrator's position in the pipeline.
type State int

// Orchestrator states.
const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StateDownloading
	StateCommitting
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateFetching:    "fetching",
	StateExtracting:  "extracting",
	StateDownloading: "downloading",
	StateCommitting:  "committing",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
