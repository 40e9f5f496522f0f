// Package sink appends harvested records to a per-source JSONL file and
// advances the source's cursor once each page is durably written.
package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

// maxLineBytes bounds one JSONL line when scanning prior output.
const maxLineBytes = 16 * 1024 * 1024

// CommitResult describes one commit.
type CommitResult struct {
	Page    int
	Written []domain.ItemRecord
	Skipped int
}

// Sink is the only writer of a source's output. It is not safe for
// concurrent use; the orchestrator goroutine owns it.
type Sink struct {
	source  string
	path    string
	file    *os.File
	cursor  *domain.HarvestCursor
	store   CursorStore
	mirrors []CursorStore
	log     logger.Logger
	now     func() time.Time
	closed  bool
}

// Options configures Open.
type Options struct {
	// Dir holds <source>.jsonl.
	Dir string
	// Store persists the cursor. Defaults to a FileCursorStore in Dir.
	Store CursorStore
	// Mirrors receive every saved cursor; their failures are logged only.
	// The sink never closes them.
	Mirrors []CursorStore
	// RunID is stamped on the cursor.
	RunID string
}

// Open prepares the JSONL file for source, repairing a torn final line,
// and loads the cursor. Identifiers already present in the JSONL are
// merged into the cursor so the file stays the source of truth.
func Open(ctx context.Context, source string, opts Options, log logger.Logger) (*Sink, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if opts.Store == nil {
		opts.Store = NewFileCursorStore(opts.Dir)
	}

	path := filepath.Join(opts.Dir, source+".jsonl")
	if err := repairTail(path); err != nil {
		return nil, err
	}

	cursor, err := opts.Store.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	if cursor == nil {
		cursor = domain.NewCursor(source)
	}

	scanned, err := scanIDs(path, cursor)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if opts.RunID != "" {
		cursor.RunID = opts.RunID
	}

	log.Info("Sink opened",
		logger.Source(source),
		logger.String("path", path),
		logger.Int("last_page", cursor.LastPage),
		logger.Int("committed", cursor.Committed.Cardinality()),
		logger.Int("scanned_lines", scanned),
	)

	return &Sink{
		source:  source,
		path:    path,
		file:    file,
		cursor:  cursor,
		store:   opts.Store,
		mirrors: opts.Mirrors,
		log:     log,
		now:     time.Now,
	}, nil
}

// Path returns the JSONL file path.
func (s *Sink) Path() string { return s.path }

// Cursor returns a copy of the current cursor.
func (s *Sink) Cursor() *domain.HarvestCursor { return s.cursor.Clone() }

// LastPage returns the highest committed page.
func (s *Sink) LastPage() int { return s.cursor.LastPage }

// Has reports whether id is already committed.
func (s *Sink) Has(id string) bool { return s.cursor.Has(id) }

// Commit appends the records of page whose ids are not yet committed,
// fsyncs, and then advances and persists the cursor. page must be greater
// than the cursor's last page.
func (s *Sink) Commit(ctx context.Context, page int, records []domain.ItemRecord) (CommitResult, error) {
	return s.commit(ctx, page, records, true)
}

// Append writes records like Commit but leaves the cursor's last page
// unchanged, so a resumed run fetches page again. It is used when only
// part of a page was taken or when an already committed page is walked
// again; page is not checked against the cursor.
func (s *Sink) Append(ctx context.Context, page int, records []domain.ItemRecord) (CommitResult, error) {
	return s.commit(ctx, page, records, false)
}

func (s *Sink) commit(ctx context.Context, page int, records []domain.ItemRecord, advance bool) (CommitResult, error) {
	if s.closed {
		return CommitResult{}, ErrClosed
	}
	if advance && page <= s.cursor.LastPage {
		return CommitResult{}, &OutOfOrderCommitError{Page: page, LastPage: s.cursor.LastPage}
	}

	result := CommitResult{Page: page}
	batch := make(map[string]bool, len(records))

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i := range records {
		rec := records[i]
		if rec.ID == "" || s.cursor.Has(rec.ID) || batch[rec.ID] {
			result.Skipped++
			continue
		}
		batch[rec.ID] = true
		if err := enc.Encode(&rec); err != nil {
			return CommitResult{}, fmt.Errorf("encode record %s: %w", rec.ID, err)
		}
		result.Written = append(result.Written, rec)
	}

	if buf.Len() > 0 {
		if err := s.append(buf.Bytes()); err != nil {
			return CommitResult{}, err
		}
	}

	next := s.cursor.Clone()
	for id := range batch {
		next.Committed.Add(id)
	}
	if advance {
		next.LastPage = page
	}
	next.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, next); err != nil {
		// The records are already in the JSONL, which Open rescans, so their
		// ids stay committed; the page does not.
		for id := range batch {
			s.cursor.Committed.Add(id)
		}
		return result, fmt.Errorf("persist cursor: %w", err)
	}
	s.cursor = next

	for _, m := range s.mirrors {
		if err := m.Save(ctx, s.cursor); err != nil {
			s.log.Warn("Cursor mirror save failed", logger.Source(s.source), logger.Error(err))
		}
	}

	return result, nil
}

// append writes data in one call and fsyncs. A failed write is rolled
// back so no partial line survives.
func (s *Sink) append(data []byte) error {
	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat jsonl: %w", err)
	}

	if _, err := s.file.Write(data); err != nil {
		_ = s.file.Truncate(info.Size())
		return fmt.Errorf("append jsonl: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync jsonl: %w", err)
	}
	return nil
}

// Close closes the JSONL file. Stores and mirrors belong to the caller
// and stay open.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close jsonl: %w", err)
	}
	return nil
}

// repairTail truncates a final line left without its newline by a crash.
func repairTail(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return nil
	}

	// Walk back to the last newline.
	const chunk = 4096
	buf := make([]byte, chunk)
	end := size
	for end > 0 {
		start := max(end-chunk, 0)
		n, err := f.ReadAt(buf[:end-start], start)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			keep := start + int64(i) + 1
			if keep == size {
				return nil
			}
			return f.Truncate(keep)
		}
		end = start
	}
	return f.Truncate(0)
}

// scanIDs adds every record id in path to cursor and returns the number
// of lines read. Lines that fail to decode are ignored.
func scanIDs(path string, cursor *domain.HarvestCursor) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := 0
	for scanner.Scan() {
		lines++
		var rec struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(scanner.Bytes(), &rec) == nil && rec.ID != "" {
			cursor.Committed.Add(rec.ID)
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("scan %s: %w", path, err)
	}
	return lines, nil
}
