package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
)

// CursorStore persists a source's HarvestCursor.
type CursorStore interface {
	// Load returns the stored cursor, or nil with no error if none exists.
	Load(ctx context.Context, source string) (*domain.HarvestCursor, error)
	Save(ctx context.Context, cursor *domain.HarvestCursor) error
}

// FileCursorStore keeps one JSON cursor file per source in a directory.
type FileCursorStore struct {
	dir string
}

// NewFileCursorStore stores cursors under dir.
func NewFileCursorStore(dir string) *FileCursorStore {
	return &FileCursorStore{dir: dir}
}

// Path returns the cursor file for source.
func (s *FileCursorStore) Path(source string) string {
	return filepath.Join(s.dir, source+".cursor.json")
}

// Load reads the cursor file. A missing file is not an error.
func (s *FileCursorStore) Load(_ context.Context, source string) (*domain.HarvestCursor, error) {
	data, err := os.ReadFile(s.Path(source))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cursor: %w", err)
	}

	var f domain.CursorFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode cursor %s: %w", s.Path(source), err)
	}
	if f.Source == "" {
		f.Source = source
	}
	return domain.FromFile(f), nil
}

// Save writes the cursor atomically: temp file, fsync, rename.
func (s *FileCursorStore) Save(_ context.Context, cursor *domain.HarvestCursor) error {
	data, err := json.MarshalIndent(cursor.ToFile(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode cursor: %w", err)
	}
	return writeFileAtomic(s.Path(cursor.Source), data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
