package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStub = Stub{
	Title:  "Nueva ISO 9001",
	URL:    "https://example.com/iso-9001",
	Date:   "01/01/2024",
	Source: "ISOTools Blog",
}

func TestSuccessVariantJSONShape(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	art := NewScrapedArticle(testStub, "resumen", nil, "contenido", 9, at)

	raw, err := json.Marshal(art)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Contains(t, m, "image_url")
	assert.Nil(t, m["image_url"])
	assert.NotContains(t, m, "error")
	assert.Equal(t, true, m["scraping_success"])
	assert.Equal(t, "resumen", m["summary"])

	// key order is fixed
	s := string(raw)
	assert.Less(t, strings.Index(s, `"title"`), strings.Index(s, `"url"`))
	assert.Less(t, strings.Index(s, `"image_url"`), strings.Index(s, `"full_content"`))
	assert.Less(t, strings.Index(s, `"scraped_at"`), strings.Index(s, `"scraping_success"`))
}

func TestFailureVariantJSONShape(t *testing.T) {
	art := FailedArticle(testStub, errors.New("status 404"), time.Now())

	raw, err := json.Marshal(art)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "summary")
	assert.NotContains(t, m, "image_url")
	assert.Equal(t, "", m["full_content"])
	assert.EqualValues(t, 0, m["content_length"])
	assert.Equal(t, false, m["scraping_success"])
	assert.Equal(t, "status 404", m["error"])
}

func TestFailedArticleKeepsIdentity(t *testing.T) {
	art := FailedArticle(testStub, nil, time.Now())

	assert.Equal(t, testStub, art.Stub())
	assert.False(t, art.Success)
	assert.NotEmpty(t, art.Error)
}

func TestNewReportCounts(t *testing.T) {
	now := time.Now()
	articles := []ScrapedArticle{
		NewScrapedArticle(testStub, "", nil, "", 0, now),
		FailedArticle(testStub, errors.New("boom"), now),
		FailedArticle(testStub, errors.New("boom"), now),
	}

	rep := NewReport(articles, now, "Multiple Sources")

	assert.Equal(t, 3, rep.Metadata.TotalArticles)
	assert.Equal(t, 1, rep.Metadata.SuccessfulScrapes)
	assert.Equal(t, 2, rep.Metadata.FailedScrapes)
	assert.NotNil(t, NewReport(nil, now, "").Articles)
}
