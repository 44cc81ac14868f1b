package providers

import (
	"context"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
)

const defaultDisabledReason = "content is rendered client-side with JavaScript"

// disabledFetcher stands in for sources that cannot be scraped without running
// their scripts. It always returns no stubs.
type disabledFetcher struct {
	log logger.Logger
}

// NewDisabledFetcher builds the fetcher for ProviderTypeDisabled providers.
func NewDisabledFetcher(log logger.Logger) Fetcher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &disabledFetcher{log: log}
}

func (f *disabledFetcher) ID() string {
	return ProviderTypeDisabled
}

func (f *disabledFetcher) Fetch(_ context.Context, cfg Provider) ([]domain.Stub, error) {
	reason := cfg.DisabledReason
	if reason == "" {
		reason = defaultDisabledReason
	}
	f.log.InfoObj("provider intentionally disabled", "provider_disabled", map[string]any{
		"provider_id": cfg.ID,
		"reason":      reason,
	})
	return []domain.Stub{}, nil
}
