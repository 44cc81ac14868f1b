package providers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/dates"
)

const aenorProviderID = "aenor"

// issueHeading matches "Revista AENOR nº 400 | enero-febrero | 2024".
var issueHeading = regexp.MustCompile(`\|\s*([\p{L}-]+)\s*\|\s*(\d{4})`)

// aenorFetcher walks the magazine's back-issues index and lists the articles of each issue.
type aenorFetcher struct {
	client HTTPClient
	norm   *dates.Normalizer
	log    logger.Logger
}

// NewAenorFetcher builds a fetcher for Revista AENOR issues.
func NewAenorFetcher(client HTTPClient, norm *dates.Normalizer, log logger.Logger) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &aenorFetcher{client: client, norm: norm, log: log}
}

func (f *aenorFetcher) ID() string {
	return aenorProviderID
}

func (f *aenorFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Stub, error) {
	if !strings.EqualFold(cfg.ID, aenorProviderID) {
		return nil, fmt.Errorf("aenor fetcher received incompatible provider %q", cfg.ID)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("aenor provider source_url is empty")
	}

	headers := Headers(cfg)

	index, err := fetchDocument(ctx, f.client, cfg.SourceURL, aenorProviderID, headers)
	if err != nil {
		return nil, err
	}

	issues := aenorIssueLinks(index, cfg.SourceURL)
	if cfg.Limit > 0 && len(issues) > cfg.Limit {
		issues = issues[:cfg.Limit]
	}

	var stubs []domain.Stub
	seen := make(map[string]struct{})
	for _, issueURL := range issues {
		if err := ctx.Err(); err != nil {
			return stubs, err
		}

		doc, err := fetchDocument(ctx, f.client, issueURL, aenorProviderID, headers)
		if err != nil {
			f.log.WarnObj("aenor issue skipped", "aenor_issue_error", map[string]any{
				"url":   issueURL,
				"error": err.Error(),
			})
			continue
		}

		for _, stub := range aenorIssueStubs(doc, issueURL, cfg.DisplayName(), f.norm) {
			if _, dup := seen[stub.URL]; dup {
				continue
			}
			seen[stub.URL] = struct{}{}
			stubs = append(stubs, stub)
		}
	}

	return stubs, nil
}

// aenorIssueLinks lists issue pages in index order, skipping PDF download links.
func aenorIssueLinks(doc *goquery.Document, base string) []string {
	var links []string
	seen := make(map[string]struct{})
	doc.Find("div.licont a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.Contains(strings.ToLower(href), "descargar") {
			return
		}
		u, ok := absoluteURL(base, href)
		if !ok {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		links = append(links, u)
	})
	return links
}

// aenorIssueStubs reads the feature list and the "de un vistazo" briefs of one issue.
func aenorIssueStubs(doc *goquery.Document, issueURL, source string, norm *dates.Normalizer) []domain.Stub {
	date := normalizeDate(norm, aenorIssueDate(doc.Find("h1#menu_revista").First().Text()))

	var stubs []domain.Stub
	add := func(title, href string) {
		title = cleanText(title)
		u, ok := absoluteURL(issueURL, href)
		if title == "" || !ok {
			return
		}
		stubs = append(stubs, domain.Stub{Title: title, URL: u, Date: date, Source: source})
	}

	doc.Find("ul.lista_imagenes li a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		title, _ := a.Attr("title")
		add(title, href)
	})
	doc.Find("div.modulo_noticia a.hover").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		add(a.Text(), href)
	})
	return stubs
}

// aenorIssueDate turns the issue heading into "01 <first month>, <year>".
func aenorIssueDate(heading string) string {
	m := issueHeading.FindStringSubmatch(heading)
	if m == nil {
		return ""
	}
	month := strings.SplitN(m[1], "-", 2)[0]
	return fmt.Sprintf("01 %s, %s", month, m[2])
}
