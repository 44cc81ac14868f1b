package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/dates"
)

// htmlFetcher reads repeated card elements from a server-rendered listing page.
type htmlFetcher struct {
	client HTTPClient
	norm   *dates.Normalizer
}

// NewHTMLFetcher builds the fetcher for ProviderTypeHTML providers.
func NewHTMLFetcher(client HTTPClient, norm *dates.Normalizer) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &htmlFetcher{client: client, norm: norm}
}

func (f *htmlFetcher) ID() string {
	return ProviderTypeHTML
}

func (f *htmlFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Stub, error) {
	if cfg.HTML == nil {
		return nil, fmt.Errorf("provider %q has no html listing config", cfg.ID)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	doc, err := fetchDocument(ctx, f.client, cfg.SourceURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	return parseHTMLListing(doc, cfg, f.norm), nil
}

// parseHTMLListing extracts one stub per card; cards without a title or link are skipped.
func parseHTMLListing(doc *goquery.Document, cfg Provider, norm *dates.Normalizer) []domain.Stub {
	sel := cfg.HTML
	var stubs []domain.Stub

	doc.Find(sel.Card).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if cfg.Limit > 0 && len(stubs) >= cfg.Limit {
			return false
		}

		link := card.Find(sel.Link).First()
		href, _ := link.Attr("href")
		articleURL, ok := absoluteURL(cfg.SourceURL, href)
		if !ok {
			return true
		}

		title := cardTitle(card, link, sel)
		if title == "" {
			return true
		}

		stubs = append(stubs, domain.Stub{
			Title:  title,
			URL:    articleURL,
			Date:   normalizeDate(norm, cardDate(card, sel)),
			Source: cfg.DisplayName(),
		})
		return true
	})

	return stubs
}

func cardTitle(card, link *goquery.Selection, sel *HTMLListing) string {
	node := link
	if sel.Title != "" {
		node = card.Find(sel.Title).First()
	}
	if sel.TitleAttr != "" {
		if v, ok := node.Attr(sel.TitleAttr); ok {
			return cleanText(v)
		}
		return ""
	}
	return cleanText(node.Text())
}

func cardDate(card *goquery.Selection, sel *HTMLListing) string {
	if sel.Date == "" {
		return ""
	}
	node := card.Find(sel.Date).First()
	if sel.DateAttr != "" {
		v, _ := node.Attr(sel.DateAttr)
		return strings.TrimSpace(v)
	}
	return cleanText(node.Text())
}
