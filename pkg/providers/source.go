package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
)

// Source binds a provider to its fetcher. ListStubs never fails: any fetch,
// parse or runtime error is logged and yields no stubs, so one broken source
// cannot affect the others.
type Source struct {
	cfg     Provider
	fetcher Fetcher
	log     logger.Logger
}

// NewSource builds a Source for cfg.
func NewSource(cfg Provider, fetcher Fetcher, log logger.Logger) *Source {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Source{cfg: cfg, fetcher: fetcher, log: log}
}

// NewSources resolves a fetcher for every enabled provider. A provider without
// a fetcher is a configuration error.
func NewSources(reg FetcherRegistry, cfgs []Provider, log logger.Logger) ([]*Source, error) {
	if reg == nil {
		return nil, errors.New("fetcher registry is nil")
	}
	var sources []*Source
	for _, cfg := range Enabled(cfgs) {
		f, err := reg.FetcherFor(cfg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, NewSource(cfg, f, log))
	}
	return sources, nil
}

func (s *Source) ID() string   { return s.cfg.ID }
func (s *Source) Name() string { return s.cfg.DisplayName() }

// ListStubs returns the provider's stubs, or an empty list on any failure.
func (s *Source) ListStubs(ctx context.Context) (stubs []domain.Stub) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorObj("provider listing panicked", "provider_panic", map[string]any{
				"provider_id": s.cfg.ID,
				"panic":       fmt.Sprint(r),
			})
			stubs = []domain.Stub{}
		}
	}()

	if s.fetcher == nil {
		s.log.ErrorObj("provider has no fetcher", "provider_error", map[string]any{
			"provider_id": s.cfg.ID,
		})
		return []domain.Stub{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.log.InfoObj("listing provider", "provider_start", map[string]any{
		"provider_id": s.cfg.ID,
		"url":         s.cfg.SourceURL,
	})

	out, err := s.fetcher.Fetch(ctx, s.cfg)
	if err != nil {
		fields := map[string]any{
			"provider_id": s.cfg.ID,
			"error":       err.Error(),
		}
		if errors.Is(err, ErrPayloadShape) {
			s.log.WarnObj("provider payload had no usable items", "provider_payload_empty", fields)
		} else {
			s.log.ErrorObj("provider listing failed", "provider_error", fields)
		}
		// Partial results from multi-page sources are still usable.
		if len(out) == 0 {
			return []domain.Stub{}
		}
	}
	if out == nil {
		out = []domain.Stub{}
	}

	s.log.InfoObj("provider listed", "provider_done", map[string]any{
		"provider_id": s.cfg.ID,
		"stubs":       len(out),
		"took_ms":     time.Since(start).Milliseconds(),
	})
	return out
}
