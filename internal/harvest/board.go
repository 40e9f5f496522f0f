package harvest

import (
	"sort"
	"sync"
)

// Board tracks the running orchestrator and the last finished report for
// each source, for status endpoints.
type Board struct {
	mu      sync.RWMutex
	running map[string]*Orchestrator
	last    map[string]Report
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		running: make(map[string]*Orchestrator),
		last:    make(map[string]Report),
	}
}

// Start registers o as source's running harvest. It reports false if a
// harvest of source is already running.
func (b *Board) Start(source string, o *Orchestrator) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.running[source]; busy {
		return false
	}
	b.running[source] = o
	return true
}

// Finish records r as source's latest report and clears the running entry.
func (b *Board) Finish(r Report) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.running, r.Source)
	b.last[r.Source] = r
}

// Snapshot returns one report per known source, sorted by source name.
// Running harvests report their live status.
func (b *Board) Snapshot() []Report {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Report, 0, len(b.running)+len(b.last))
	for _, o := range b.running {
		out = append(out, o.Status())
	}
	for name, r := range b.last {
		if _, busy := b.running[name]; !busy {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Lookup returns the current status of source.
func (b *Board) Lookup(source string) (Report, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if o, ok := b.running[source]; ok {
		return o.Status(), true
	}
	r, ok := b.last[source]
	return r, ok
}
