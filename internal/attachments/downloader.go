package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/extract"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

// DefaultConcurrency is the number of downloads in flight per page.
const DefaultConcurrency = 4

// maxNameLen bounds sanitized path segments.
const maxNameLen = 120

// Streamer downloads a URL body, retrying as needed.
type Streamer interface {
	Stream(ctx context.Context, rawURL string, consume func(io.Reader) error) (int, error)
}

// Observer receives one call per resolved attachment.
type Observer interface {
	ObserveDownload(outcome domain.Outcome, bytes int64)
}

// Config configures a Downloader.
type Config struct {
	Enabled     bool         `env:"ATTACHMENTS_ENABLED"     mapstructure:"enabled"     yaml:"enabled"`
	Concurrency int          `env:"ATTACHMENTS_CONCURRENCY" mapstructure:"concurrency" yaml:"concurrency"`
	Policy      PolicyConfig `mapstructure:"policy" yaml:"policy"`
}

// Downloader fetches eligible attachments into
// <root>/attachments/<item id>/<url hash>_<file name>.
type Downloader struct {
	streamer    Streamer
	policy      *Policy
	root        string
	concurrency int
	observer    Observer
	log         logger.Logger
}

// NewDownloader creates a Downloader writing under root.
func NewDownloader(s Streamer, policy *Policy, root string, concurrency int, log logger.Logger) *Downloader {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Downloader{
		streamer:    s,
		policy:      policy,
		root:        root,
		concurrency: concurrency,
		log:         log,
	}
}

// SetObserver reports each resolved attachment to o.
func (d *Downloader) SetObserver(o Observer) { d.observer = o }

// Policy returns the extension policy in use.
func (d *Downloader) Policy() *Policy { return d.policy }

// Process resolves every attachment of records in place. Ineligible links
// are skipped without network access; eligible ones are downloaded through
// a bounded pool. Failures are recorded on the ref and never returned:
// Process returns only after every attachment has an outcome.
func (d *Downloader) Process(ctx context.Context, records []domain.ItemRecord) {
	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i := range records {
		rec := &records[i]
		for j := range rec.Attachments {
			ref := &rec.Attachments[j]
			*ref = d.policy.Resolve(*ref)

			if !ref.Eligible {
				d.observe(ref.Result)
				continue
			}

			itemID := rec.ID
			g.Go(func() error {
				ref.Result = d.download(ctx, itemID, ref.URL, ref.Extension)
				d.observe(ref.Result)
				return nil
			})
		}
	}

	_ = g.Wait()
}

// Path returns where the attachment at rawURL for itemID is stored.
func (d *Downloader) Path(itemID, rawURL, ext string) string {
	name := sanitize(extract.Filename(rawURL))
	if name == "" {
		name = "file"
		if ext != "" {
			name += "." + ext
		}
	}
	hash := fmt.Sprintf("%016x", xxhash.Sum64String(rawURL))
	return filepath.Join(d.root, "attachments", sanitize(itemID), hash[:8]+"_"+name)
}

func (d *Downloader) download(ctx context.Context, itemID, rawURL, ext string) *domain.DownloadResult {
	dest := d.Path(itemID, rawURL, ext)

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return &domain.DownloadResult{Outcome: domain.OutcomeSucceeded, Path: dest, Size: info.Size()}
	}

	size, attempts, err := d.fetchTo(ctx, rawURL, dest)
	if err != nil {
		d.log.Warn("Attachment download failed",
			logger.ItemID(itemID),
			logger.URL(rawURL),
			logger.Error(err),
		)
		return &domain.DownloadResult{Outcome: domain.OutcomeFailed, Attempts: attempts, Error: err.Error()}
	}

	d.log.Debug("Attachment saved", logger.ItemID(itemID), logger.String("path", dest), logger.Int64("bytes", size))
	return &domain.DownloadResult{Outcome: domain.OutcomeSucceeded, Path: dest, Size: size, Attempts: attempts}
}

// fetchTo streams rawURL into a temp file beside dest and renames it into
// place, so dest only ever holds a complete file.
func (d *Downloader) fetchTo(ctx context.Context, rawURL, dest string) (int64, int, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create attachment dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".part-*")
	if err != nil {
		return 0, 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	var size int64
	attempts, err := d.streamer.Stream(ctx, rawURL, func(r io.Reader) error {
		if _, seekErr := tmp.Seek(0, io.SeekStart); seekErr != nil {
			return seekErr
		}
		if truncErr := tmp.Truncate(0); truncErr != nil {
			return truncErr
		}
		n, copyErr := io.Copy(tmp, r)
		size = n
		return copyErr
	})
	if err != nil {
		return 0, attempts, err
	}
	if size == 0 {
		return 0, attempts, errors.New("empty response body")
	}

	if err := tmp.Sync(); err != nil {
		return 0, attempts, fmt.Errorf("sync attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, attempts, fmt.Errorf("close attachment: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return 0, attempts, fmt.Errorf("rename attachment: %w", err)
	}
	return size, attempts, nil
}

func (d *Downloader) observe(res *domain.DownloadResult) {
	if d.observer != nil {
		d.observer.ObserveDownload(res.Outcome, res.Size)
	}
}

// sanitize keeps a path segment to letters, digits, dot, dash, and underscore.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxNameLen {
		out = out[len(out)-maxNameLen:]
	}
	return out
}
