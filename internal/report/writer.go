package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
)

const (
	DefaultDir        = "src/data/iso_news"
	DefaultPrefix     = "iso_news_articulos"
	DefaultDataSource = "Multiple Sources"

	timestampLayout = "20060102_150405"
	maxNameAttempts = 1000
)

// Options configures where and how reports are written.
type Options struct {
	Dir        string
	Prefix     string
	DataSource string
	Now        func() time.Time
}

// Writer persists run reports as timestamped JSON files. A report is never
// written over an existing file.
type Writer struct {
	dir        string
	prefix     string
	dataSource string
	now        func() time.Time
	log        logger.Logger
}

// NewWriter builds a Writer, filling unset options with defaults.
func NewWriter(opts Options, log logger.Logger) *Writer {
	if strings.TrimSpace(opts.Dir) == "" {
		opts.Dir = DefaultDir
	}
	if strings.TrimSpace(opts.Prefix) == "" {
		opts.Prefix = DefaultPrefix
	}
	if strings.TrimSpace(opts.DataSource) == "" {
		opts.DataSource = DefaultDataSource
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Writer{
		dir:        opts.Dir,
		prefix:     opts.Prefix,
		dataSource: opts.DataSource,
		now:        opts.Now,
		log:        log,
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write encodes articles into a report and returns the path of the new file.
func (w *Writer) Write(articles []domain.ScrapedArticle) (string, domain.Report, error) {
	generatedAt := w.now()
	rep := domain.NewReport(articles, generatedAt, w.dataSource)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", rep, fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := w.writeTemp(rep)
	if err != nil {
		return "", rep, err
	}
	defer os.Remove(tmp)

	path, err := w.publish(tmp, generatedAt)
	if err != nil {
		return "", rep, err
	}

	w.log.InfoObj("report written", "report_written", map[string]any{
		"path":               path,
		"total_articles":     rep.Metadata.TotalArticles,
		"successful_scrapes": rep.Metadata.SuccessfulScrapes,
		"failed_scrapes":     rep.Metadata.FailedScrapes,
	})
	return path, rep, nil
}

// writeTemp encodes rep into a temporary file inside the output directory.
func (w *Writer) writeTemp(rep domain.Report) (string, error) {
	f, err := os.CreateTemp(w.dir, "."+w.prefix+"_*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	name := f.Name()

	if err := Encode(f, rep); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("chmod report: %w", err)
	}
	return name, nil
}

// publish hard-links tmp to the first free timestamped name. Linking fails
// instead of replacing when the name is taken.
func (w *Writer) publish(tmp string, at time.Time) (string, error) {
	base := w.prefix + "_" + at.Format(timestampLayout)
	for i := 0; i < maxNameAttempts; i++ {
		name := base + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.json", base, i)
		}
		path := filepath.Join(w.dir, name)

		err := os.Link(tmp, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("publish report: %w", err)
		}
	}
	return "", fmt.Errorf("publish report: no free file name for %s after %d attempts", base, maxNameAttempts)
}

// Encode writes rep as indented JSON without HTML escaping.
func Encode(w io.Writer, rep domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
