package providers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/dates"
)

// feedFetcher reads RSS/Atom listings.
type feedFetcher struct {
	client HTTPClient
	norm   *dates.Normalizer
}

// NewFeedFetcher builds the fetcher for ProviderTypeFeed providers.
func NewFeedFetcher(client HTTPClient, norm *dates.Normalizer) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &feedFetcher{client: client, norm: norm}
}

func (f *feedFetcher) ID() string {
	return ProviderTypeFeed
}

func (f *feedFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Stub, error) {
	body, err := fetchBody(ctx, f.client, cfg.SourceURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s feed: %w", cfg.ID, err)
	}

	stubs := make([]domain.Stub, 0, len(feed.Items))
	for _, item := range feed.Items {
		if cfg.Limit > 0 && len(stubs) >= cfg.Limit {
			break
		}
		if item == nil {
			continue
		}
		title := cleanText(item.Title)
		articleURL, ok := absoluteURL(cfg.SourceURL, item.Link)
		if title == "" || !ok {
			continue
		}
		stubs = append(stubs, domain.Stub{
			Title:  title,
			URL:    articleURL,
			Date:   f.itemDate(item),
			Source: cfg.DisplayName(),
		})
	}
	return stubs, nil
}

func (f *feedFetcher) itemDate(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.Format(dates.Layout)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.Format(dates.Layout)
	case item.Published != "":
		return normalizeDate(f.norm, item.Published)
	}
	return normalizeDate(f.norm, item.Updated)
}
