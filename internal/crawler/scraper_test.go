package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/httpclient"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const articlePage = `<html><head>
<meta property="og:image" content="/img/lead.jpg">
<title>ISO 9001</title>
</head><body>
<div class="content">Menú principal</div>
<div class="article-body">
  <p>La norma <b>ISO 9001</b> establece requisitos.</p>
  <script>trackPageview();</script>
  <style>.x{color:red}</style>
  <p>Segundo   párrafo.</p>
</div>
</body></html>`

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScraper(opts Options) *Scraper {
	opts.Now = func() time.Time { return fixedNow }
	return NewScraper(httpclient.New(httpclient.Options{}), nil, opts)
}

func TestExtractPrefersSpecificContainer(t *testing.T) {
	srv := serve(t, map[string]string{"/a": articlePage})
	stub := domain.Stub{Title: "ISO 9001", URL: srv.URL + "/a", Date: "01/03/2024", Source: "ISOTools"}

	art := newTestScraper(Options{}).Extract(context.Background(), stub)

	require.True(t, art.Success, art.Error)
	assert.Equal(t, "La norma ISO 9001 establece requisitos. Segundo párrafo.", art.FullContent)
	assert.Equal(t, art.FullContent, art.Summary)
	assert.Equal(t, len([]rune(art.FullContent)), art.ContentLength)
	require.NotNil(t, art.ImageURL)
	assert.Equal(t, srv.URL+"/img/lead.jpg", *art.ImageURL)
	assert.Equal(t, stub, art.Stub())
	assert.Equal(t, fixedNow, art.ScrapedAt)
}

func TestExtractFallsBackToContainerImageAndWholePage(t *testing.T) {
	srv := serve(t, map[string]string{
		"/img": `<html><body><div class="entry-content"><img alt="lazy" data-src="https://cdn.test/a.png"><p>Texto</p></div></body></html>`,
		"/bare": `<html><head><title>Ignored</title></head><body>
			<h1>Hola</h1><p>mundo <b>ISO</b></p><noscript>Enable JS</noscript><script>x()</script>
		</body></html>`,
	})
	s := newTestScraper(Options{})

	withImg := s.Extract(context.Background(), domain.Stub{URL: srv.URL + "/img"})
	require.True(t, withImg.Success)
	require.NotNil(t, withImg.ImageURL)
	assert.Equal(t, "https://cdn.test/a.png", *withImg.ImageURL)
	assert.Equal(t, "Texto", withImg.FullContent)

	bare := s.Extract(context.Background(), domain.Stub{URL: srv.URL + "/bare"})
	require.True(t, bare.Success)
	assert.Nil(t, bare.ImageURL)
	assert.Equal(t, "Hola mundo ISO", bare.FullContent)
}

func TestExtractEmptyContainerUsesWholePage(t *testing.T) {
	srv := serve(t, map[string]string{
		"/e": `<html><body><p>Fuera</p><article><script>only()</script></article></body></html>`,
	})

	art := newTestScraper(Options{}).Extract(context.Background(), domain.Stub{URL: srv.URL + "/e"})

	require.True(t, art.Success)
	assert.Equal(t, "Fuera", art.FullContent)
}

func TestExtractCapsContentAndSummary(t *testing.T) {
	text := strings.Repeat("áéíóú ", 3)
	srv := serve(t, map[string]string{"/long": `<article>` + text + `</article>`})

	art := newTestScraper(Options{ContentCap: 10, SummaryCap: 5}).Extract(context.Background(), domain.Stub{URL: srv.URL + "/long"})

	require.True(t, art.Success)
	assert.Equal(t, 17, art.ContentLength)
	assert.Equal(t, "áéíóú áéíó", art.FullContent)
	assert.Equal(t, "áéíóú...", art.Summary)
}

func TestExtractNotFoundIsFailure(t *testing.T) {
	srv := serve(t, map[string]string{})
	stub := domain.Stub{Title: "Gone", URL: srv.URL + "/missing", Date: "02/02/2024", Source: "AENOR"}

	art := newTestScraper(Options{}).Extract(context.Background(), stub)

	assert.False(t, art.Success)
	assert.Contains(t, art.Error, "status 404")
	assert.Empty(t, art.FullContent)
	assert.Zero(t, art.ContentLength)
	assert.Equal(t, stub, art.Stub())
}

func TestExtractTransportErrorHasFailureShape(t *testing.T) {
	srv := serve(t, map[string]string{})
	url := srv.URL + "/down"
	srv.Close()

	art := newTestScraper(Options{}).Extract(context.Background(), domain.Stub{Title: "t", URL: url})
	require.False(t, art.Success)

	raw, err := json.Marshal(art)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "error")
	assert.NotContains(t, fields, "summary")
	assert.NotContains(t, fields, "image_url")
	assert.Equal(t, false, fields["scraping_success"])
	assert.Equal(t, "", fields["full_content"])
}

func TestExtractAllKeepsOrderAndPaces(t *testing.T) {
	srv := serve(t, map[string]string{"/a": articlePage, "/c": `<article>tres</article>`})
	stubs := []domain.Stub{
		{Title: "a", URL: srv.URL + "/a"},
		{Title: "b", URL: srv.URL + "/b"},
		{Title: "c", URL: srv.URL + "/c"},
	}

	start := time.Now()
	out := newTestScraper(Options{Delay: 20 * time.Millisecond}).ExtractAll(context.Background(), stubs)
	elapsed := time.Since(start)

	require.Len(t, out, 3)
	for i, art := range out {
		assert.Equal(t, stubs[i].URL, art.URL)
	}
	assert.True(t, out[0].Success)
	assert.False(t, out[1].Success)
	assert.True(t, out[2].Success)
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

func TestExtractAllCancelledRecordsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTestScraper(Options{}).ExtractAll(ctx, []domain.Stub{{URL: "https://a.test/1"}, {URL: "https://a.test/2"}})

	require.Len(t, out, 2)
	for _, art := range out {
		assert.False(t, art.Success)
		assert.Contains(t, art.Error, "context canceled")
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "añ", truncateRunes("año", 2))
	assert.Equal(t, "año", truncateRunes("año", 10))
	assert.Equal(t, "", truncateRunes("año", 0))
}
