package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/iso-news-harvester/pkg/dates"
)

// responseSnippet returns a truncated snippet of the response body for error messages.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchBody retrieves url and fails on any non-200 status.
func fetchBody(ctx context.Context, client HTTPClient, url, providerID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s listing: %w", providerID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s listing returned status %d body: %s", providerID, resp.StatusCode(), responseSnippet(body))
	}
	return body, nil
}

// fetchDocument retrieves url and parses it as HTML.
func fetchDocument(ctx context.Context, client HTTPClient, url, providerID string, headers map[string]string) (*goquery.Document, error) {
	body, err := fetchBody(ctx, client, url, providerID, headers)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s html: %w", providerID, err)
	}
	return doc, nil
}

// absoluteURL resolves href against base and returns its canonical form: absolute,
// http(s) only, without fragment. ok is false for links that cannot identify an article.
func absoluteURL(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !ref.IsAbs() {
		baseURL, err := url.Parse(strings.TrimSpace(base))
		if err != nil || !baseURL.IsAbs() {
			return "", false
		}
		ref = baseURL.ResolveReference(ref)
	}

	scheme := strings.ToLower(ref.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	ref.Scheme = scheme
	ref.Host = strings.ToLower(ref.Host)
	ref.Fragment = ""
	ref.RawFragment = ""
	return ref.String(), true
}

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var machineDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// normalizeDate renders machine-readable dates directly and hands locale phrases
// to the normalizer.
func normalizeDate(norm *dates.Normalizer, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range machineDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dates.Layout)
		}
	}
	if norm == nil {
		return raw
	}
	return norm.Normalize(raw)
}
