package providers

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/dates"
)

type googleNewsSitemap struct {
	URLs []googleNewsURL `xml:"url"`
}

type googleNewsURL struct {
	Loc  string           `xml:"loc"`
	News googleNewsDetail `xml:"news"`
}

type sitemapIndex struct {
	Sitemaps []sitemapIndexEntry `xml:"sitemap"`
}

type sitemapIndexEntry struct {
	Loc string `xml:"loc"`
}

type googleNewsDetail struct {
	PublicationDate string `xml:"publication_date"`
	Title           string `xml:"title"`
}

// parseGoogleNewsSitemap parses the XML data into a slice of googleNewsURL structs.
func parseGoogleNewsSitemap(data []byte) ([]googleNewsURL, error) {
	var sitemap googleNewsSitemap
	if err := xml.Unmarshal(data, &sitemap); err != nil {
		return nil, err
	}
	return sitemap.URLs, nil
}

// parseSitemapIndex parses an XML sitemap index file and returns the nested sitemap URLs.
func parseSitemapIndex(data []byte) ([]string, error) {
	var index sitemapIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, entry := range index.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// buildStubsFromSitemap converts sitemap entries into stubs. Entries without a
// news title are skipped since a stub requires one.
func buildStubsFromSitemap(cfg Provider, urls []googleNewsURL) []domain.Stub {
	stubs := make([]domain.Stub, 0, len(urls))
	for _, entry := range urls {
		if cfg.Limit > 0 && len(stubs) >= cfg.Limit {
			break
		}
		loc, ok := absoluteURL(cfg.SourceURL, entry.Loc)
		title := cleanText(entry.News.Title)
		if !ok || title == "" {
			continue
		}

		stubs = append(stubs, domain.Stub{
			Title:  title,
			URL:    loc,
			Date:   parsePublicationDate(entry.News.PublicationDate),
			Source: cfg.DisplayName(),
		})
	}
	return stubs
}

// parsePublicationDate renders a W3C datetime as DD/MM/YYYY, keeping unparseable input.
func parsePublicationDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dates.Layout)
		}
	}
	return raw
}
