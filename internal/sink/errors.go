package sink

import (
	"errors"
	"fmt"
)

// ErrOutOfOrderCommit means a page was committed at or below the cursor.
// It indicates an orchestration bug and is never retried.
var ErrOutOfOrderCommit = errors.New("out of order commit")

// ErrClosed is returned by Commit after Close.
var ErrClosed = errors.New("sink closed")

// OutOfOrderCommitError carries the rejected page and the cursor it hit.
type OutOfOrderCommitError struct {
	Page     int
	LastPage int
}

func (e *OutOfOrderCommitError) Error() string {
	return fmt.Sprintf("commit page %d rejected: cursor already at page %d", e.Page, e.LastPage)
}

func (e *OutOfOrderCommitError) Unwrap() error { return ErrOutOfOrderCommit }
