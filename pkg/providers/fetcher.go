package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/dates"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/httpclient"
)

// Fetcher turns one provider's listing page into article stubs.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.Stub, error)
}

// FetcherRegistry resolves the fetcher responsible for a provider.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[strings.ToLower(strings.TrimSpace(f.ID()))] = f
	}

	return reg
}

// FetcherFor selects the fetcher registered under the provider id, falling back
// to the one registered under its type.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[strings.ToLower(cfg.ID)]; ok {
		return f, nil
	}
	if typ := strings.ToLower(cfg.Type); typ != "" && typ != ProviderTypeCustom {
		if f, ok := r.fetchers[typ]; ok {
			return f, nil
		}
	}

	return nil, fmt.Errorf("no fetcher registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

// DefaultHTTPClient returns the listing client used when none is supplied.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultFetcherRegistry wires up the generic fetchers and the source-specific ones.
func DefaultFetcherRegistry(client HTTPClient, norm *dates.Normalizer, log logger.Logger) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	if norm == nil {
		norm = dates.NewNormalizer(log)
	}

	return NewFetcherRegistry(
		NewHTMLFetcher(client, norm),
		NewPayloadFetcher(client, norm),
		NewFeedFetcher(client, norm),
		NewGoogleNewsFetcher(client),
		NewDisabledFetcher(log),
		NewAenorFetcher(client, norm, log),
	)
}
