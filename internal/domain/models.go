package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Domain contains core models shared by providers, crawler and report writer.

// Stub is a listing-page reference to an article, before content extraction.
// URL is the canonical absolute URL and identifies the article across sources.
type Stub struct {
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
	Date   string `json:"date" yaml:"date"`
	Source string `json:"source" yaml:"source"`
}

// ScrapedArticle is a Stub enriched with extracted content. Success tells which
// variant it is: failures carry Error and no content.
type ScrapedArticle struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Source        string    `json:"source"`
	Date          string    `json:"date"`
	Summary       string    `json:"summary,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	FullContent   string    `json:"full_content"`
	ContentLength int       `json:"content_length"`
	ScrapedAt     time.Time `json:"scraped_at"`
	Success       bool      `json:"scraping_success"`
	Error         string    `json:"error,omitempty"`
}

// NewScrapedArticle builds the success variant for stub.
func NewScrapedArticle(stub Stub, summary string, imageURL *string, content string, contentLength int, at time.Time) ScrapedArticle {
	return ScrapedArticle{
		Title:         stub.Title,
		URL:           stub.URL,
		Source:        stub.Source,
		Date:          stub.Date,
		Summary:       summary,
		ImageURL:      imageURL,
		FullContent:   content,
		ContentLength: contentLength,
		ScrapedAt:     at,
		Success:       true,
	}
}

// FailedArticle builds the failure variant for stub.
func FailedArticle(stub Stub, err error, at time.Time) ScrapedArticle {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return ScrapedArticle{
		Title:     stub.Title,
		URL:       stub.URL,
		Source:    stub.Source,
		Date:      stub.Date,
		ScrapedAt: at,
		Error:     msg,
	}
}

// Stub returns the listing reference the article was derived from.
func (a ScrapedArticle) Stub() Stub {
	return Stub{Title: a.Title, URL: a.URL, Date: a.Date, Source: a.Source}
}

type successJSON struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Source        string    `json:"source"`
	Date          string    `json:"date"`
	Summary       string    `json:"summary"`
	ImageURL      *string   `json:"image_url"`
	FullContent   string    `json:"full_content"`
	ContentLength int       `json:"content_length"`
	ScrapedAt     time.Time `json:"scraped_at"`
	Success       bool      `json:"scraping_success"`
}

type failureJSON struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Source        string    `json:"source"`
	Date          string    `json:"date"`
	FullContent   string    `json:"full_content"`
	ContentLength int       `json:"content_length"`
	ScrapedAt     time.Time `json:"scraped_at"`
	Success       bool      `json:"scraping_success"`
	Error         string    `json:"error"`
}

// MarshalJSON writes the variant-specific shape: success records always carry
// summary and image_url (null when absent), failures carry error instead.
func (a ScrapedArticle) MarshalJSON() ([]byte, error) {
	if a.Success {
		return marshalPlain(successJSON{
			Title:         a.Title,
			URL:           a.URL,
			Source:        a.Source,
			Date:          a.Date,
			Summary:       a.Summary,
			ImageURL:      a.ImageURL,
			FullContent:   a.FullContent,
			ContentLength: a.ContentLength,
			ScrapedAt:     a.ScrapedAt,
			Success:       true,
		})
	}
	return marshalPlain(failureJSON{
		Title:     a.Title,
		URL:       a.URL,
		Source:    a.Source,
		Date:      a.Date,
		ScrapedAt: a.ScrapedAt,
		Error:     a.Error,
	})
}

// marshalPlain encodes v without HTML escaping so article text survives verbatim.
func marshalPlain(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ReportMetadata summarises one run.
type ReportMetadata struct {
	GeneratedAt       time.Time `json:"generated_at"`
	DataSource        string    `json:"data_source"`
	TotalArticles     int       `json:"total_articles"`
	SuccessfulScrapes int       `json:"successful_scrapes"`
	FailedScrapes     int       `json:"failed_scrapes"`
}

// Report is the persisted artifact of a run.
type Report struct {
	Metadata ReportMetadata   `json:"metadata"`
	Articles []ScrapedArticle `json:"articles"`
}

// NewReport computes metadata for articles.
func NewReport(articles []ScrapedArticle, generatedAt time.Time, dataSource string) Report {
	meta := ReportMetadata{
		GeneratedAt:   generatedAt,
		DataSource:    dataSource,
		TotalArticles: len(articles),
	}
	for _, a := range articles {
		if a.Success {
			meta.SuccessfulScrapes++
		} else {
			meta.FailedScrapes++
		}
	}
	if articles == nil {
		articles = []ScrapedArticle{}
	}
	return Report{Metadata: meta, Articles: articles}
}
