package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	maxHTMLBodyBytes = 2 << 20 // 2 MiB

	DefaultContentCap = 10000
	DefaultSummaryCap = 200
)

// Options tunes content extraction.
type Options struct {
	ContentCap int
	SummaryCap int
	// Delay is the pause between two consecutive article fetches.
	Delay time.Duration
	// Now stamps scraped_at; defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ContentCap <= 0 {
		o.ContentCap = DefaultContentCap
	}
	if o.SummaryCap <= 0 {
		o.SummaryCap = DefaultSummaryCap
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Scraper fetches article pages and extracts their text and lead image.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
	opts   Options
}

// NewScraper creates a new Scraper with the given HTTP client and logger.
func NewScraper(client httpclient.Client, log logger.Logger, opts Options) *Scraper {
	if client == nil {
		client = httpclient.New(httpclient.Options{InsecureSkipVerify: true})
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scraper{client: client, log: log, opts: opts.withDefaults()}
}

// ExtractAll extracts every stub in order, pausing between attempts. When ctx is
// cancelled the stubs not yet attempted are recorded as failures so the output
// always has one entry per stub.
func (s *Scraper) ExtractAll(ctx context.Context, stubs []domain.Stub) []domain.ScrapedArticle {
	out := make([]domain.ScrapedArticle, 0, len(stubs))

	for i, stub := range stubs {
		if i > 0 && s.opts.Delay > 0 {
			if err := sleep(ctx, s.opts.Delay); err != nil {
				out = append(out, s.failAll(stubs[i:], err)...)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			out = append(out, s.failAll(stubs[i:], err)...)
			break
		}

		s.log.InfoObj("extracting article", "scrape_start", map[string]any{
			"index": i + 1,
			"total": len(stubs),
			"title": truncateRunes(stub.Title, 50),
			"url":   stub.URL,
		})
		out = append(out, s.Extract(ctx, stub))
	}

	return out
}

func (s *Scraper) failAll(stubs []domain.Stub, err error) []domain.ScrapedArticle {
	out := make([]domain.ScrapedArticle, 0, len(stubs))
	for _, stub := range stubs {
		out = append(out, domain.FailedArticle(stub, err, s.opts.Now()))
	}
	return out
}

// Extract fetches one article and never fails outward: any error becomes the
// failure variant of the result.
func (s *Scraper) Extract(ctx context.Context, stub domain.Stub) domain.ScrapedArticle {
	page, err := s.fetchAndParse(ctx, stub)
	if err != nil {
		s.log.WarnObj("article extraction failed", "scrape_error", map[string]any{
			"url":    stub.URL,
			"source": stub.Source,
			"error":  err.Error(),
		})
		return domain.FailedArticle(stub, err, s.opts.Now())
	}

	length := utf8.RuneCountInString(page.Text)
	summary := page.Text
	if length > s.opts.SummaryCap {
		summary = truncateRunes(page.Text, s.opts.SummaryCap) + "..."
	}

	var image *string
	if page.ImageURL != "" {
		img := page.ImageURL
		image = &img
	}

	s.log.DebugObj("article extracted", "scrape_done", map[string]any{
		"url":            stub.URL,
		"content_length": length,
		"has_image":      image != nil,
	})

	return domain.NewScrapedArticle(
		stub,
		summary,
		image,
		truncateRunes(page.Text, s.opts.ContentCap),
		length,
		s.opts.Now(),
	)
}

// fetchAndParse fetches the article HTML and extracts its text and image.
func (s *Scraper) fetchAndParse(ctx context.Context, stub domain.Stub) (pageContent, error) {
	resp, err := s.client.Get(ctx, stub.URL, nil)
	if err != nil {
		return pageContent{}, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return pageContent{}, fmt.Errorf("status %d %s body: %s", resp.StatusCode(), http.StatusText(resp.StatusCode()), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.InfoObj("html body truncated", "truncation", map[string]any{
			"url":      stub.URL,
			"original": len(body),
			"kept":     maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	r, err := charset.NewReader(bytes.NewReader(body), resp.Header().Get("Content-Type"))
	if err != nil {
		return pageContent{}, fmt.Errorf("decode charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return pageContent{}, fmt.Errorf("parse html: %w", err)
	}

	return parsePage(doc, stub.URL), nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}

	return baseURL.ResolveReference(parsed).String()
}
