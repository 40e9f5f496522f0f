package domain

import (
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// HarvestCursor is the persisted progress marker for one source.
// LastPage is the highest fully committed page; 0 means nothing committed.
type HarvestCursor struct {
	Source    string
	LastPage  int
	Committed mapset.Set[string]
	RunID     string
	UpdatedAt time.Time
}

// NewCursor returns an empty cursor for source.
func NewCursor(source string) *HarvestCursor {
	return &HarvestCursor{
		Source:    source,
		Committed: mapset.NewThreadUnsafeSet[string](),
	}
}

// Has reports whether id was already committed.
func (c *HarvestCursor) Has(id string) bool {
	return c.Committed.Contains(id)
}

// NextPage is the page a resumed run starts from.
func (c *HarvestCursor) NextPage(startPage int) int {
	if c.LastPage >= startPage {
		return c.LastPage + 1
	}
	return startPage
}

// Clone returns a deep copy, safe to hand to readers outside the owning goroutine.
func (c *HarvestCursor) Clone() *HarvestCursor {
	out := *c
	out.Committed = c.Committed.Clone()
	return &out
}

// CursorFile is the on-disk form of a HarvestCursor.
type CursorFile struct {
	Source    string    `json:"source"`
	LastPage  int       `json:"last_completed_page"`
	Committed []string  `json:"scraped_items"`
	RunID     string    `json:"run_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToFile converts the cursor into its serialisable form with ids sorted.
func (c *HarvestCursor) ToFile() CursorFile {
	ids := c.Committed.ToSlice()
	sort.Strings(ids)
	return CursorFile{
		Source:    c.Source,
		LastPage:  c.LastPage,
		Committed: ids,
		RunID:     c.RunID,
		UpdatedAt: c.UpdatedAt,
	}
}

// FromFile rebuilds a cursor from its serialisable form.
func FromFile(f CursorFile) *HarvestCursor {
	c := NewCursor(f.Source)
	c.LastPage = f.LastPage
	c.RunID = f.RunID
	c.UpdatedAt = f.UpdatedAt
	for _, id := range f.Committed {
		c.Committed.Add(id)
	}
	return c
}
