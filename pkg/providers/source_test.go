package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/internal/logger"
)

type stubFetcher struct {
	id    string
	stubs []domain.Stub
	err   error
	panic bool
}

func (f *stubFetcher) ID() string { return f.id }

func (f *stubFetcher) Fetch(context.Context, Provider) ([]domain.Stub, error) {
	if f.panic {
		panic("selector exploded")
	}
	return f.stubs, f.err
}

func observedLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewFromZap(zap.New(core)), logs
}

func TestSourceListStubsIsolatesErrors(t *testing.T) {
	log, logs := observedLogger()
	src := NewSource(Provider{ID: "broken"}, &stubFetcher{id: "broken", err: errors.New("connection refused")}, log)

	stubs := src.ListStubs(context.Background())

	assert.NotNil(t, stubs)
	assert.Empty(t, stubs)
	assert.Equal(t, 1, logs.FilterField(zap.String("event", "provider_error")).Len())
}

func TestSourceListStubsRecoversPanics(t *testing.T) {
	log, logs := observedLogger()
	src := NewSource(Provider{ID: "panicky"}, &stubFetcher{id: "panicky", panic: true}, log)

	assert.Empty(t, src.ListStubs(context.Background()))
	assert.Equal(t, 1, logs.FilterField(zap.String("event", "provider_panic")).Len())
}

func TestSourceListStubsPayloadShapeIsWarning(t *testing.T) {
	log, logs := observedLogger()
	src := NewSource(Provider{ID: "iso"}, &stubFetcher{id: "iso", err: ErrPayloadShape}, log)

	assert.Empty(t, src.ListStubs(context.Background()))
	warnings := logs.FilterField(zap.String("event", "provider_payload_empty")).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
}

func TestSourceListStubsKeepsPartialResults(t *testing.T) {
	partial := []domain.Stub{{Title: "t", URL: "https://a.test/1"}}
	src := NewSource(Provider{ID: "aenor"}, &stubFetcher{id: "aenor", stubs: partial, err: context.Canceled}, nil)

	assert.Equal(t, partial, src.ListStubs(context.Background()))
}

func TestDisabledSourceReturnsEmpty(t *testing.T) {
	log, logs := observedLogger()
	reg := DefaultFetcherRegistry(nil, nil, log)

	sources, err := NewSources(reg, []Provider{{ID: "anexia", Type: ProviderTypeDisabled}}, log)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	stubs := sources[0].ListStubs(context.Background())
	assert.NotNil(t, stubs)
	assert.Empty(t, stubs)
	assert.Equal(t, 1, logs.FilterField(zap.String("event", "provider_disabled")).Len())
}

func TestRegistryResolvesByIDThenType(t *testing.T) {
	reg := DefaultFetcherRegistry(nil, nil, nil)

	f, err := reg.FetcherFor(Provider{ID: "aenor", Type: ProviderTypeCustom})
	require.NoError(t, err)
	assert.Equal(t, "aenor", f.ID())

	f, err = reg.FetcherFor(Provider{ID: "isotools", Type: ProviderTypeHTML})
	require.NoError(t, err)
	assert.Equal(t, ProviderTypeHTML, f.ID())

	_, err = reg.FetcherFor(Provider{ID: "unknown", Type: ProviderTypeCustom})
	require.Error(t, err)

	_, err = reg.FetcherFor(Provider{})
	require.Error(t, err)
}

func TestNewSourcesSkipsDisabledProvidersAndFailsOnUnknown(t *testing.T) {
	off := false
	reg := NewFetcherRegistry(&stubFetcher{id: "html"})

	sources, err := NewSources(reg, []Provider{
		{ID: "a", Type: ProviderTypeHTML},
		{ID: "b", Type: ProviderTypeHTML, Enabled: &off},
	}, nil)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "a", sources[0].ID())

	_, err = NewSources(reg, []Provider{{ID: "c", Type: ProviderTypeFeed}}, nil)
	require.Error(t, err)
}

func TestDefaultProvidersAreValidAndResolvable(t *testing.T) {
	reg := DefaultFetcherRegistry(nil, nil, nil)
	for _, p := range DefaultProviders() {
		cfg := SanitizeProvider(p)
		require.NoError(t, ValidateProvider(cfg), cfg.ID)
		_, err := reg.FetcherFor(cfg)
		require.NoError(t, err, cfg.ID)
	}
}
