package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
	"github.com/Adda-Baaj/iso-news-harvester/pkg/dates"
)

// ErrPayloadShape reports an embedded payload that does not have the expected
// structure. Sources treat it as zero results rather than a failure.
var ErrPayloadShape = errors.New("unexpected payload shape")

// payloadFetcher reads article lists from a JSON blob embedded in a script element.
type payloadFetcher struct {
	client HTTPClient
	norm   *dates.Normalizer
}

// NewPayloadFetcher builds the fetcher for ProviderTypePayload providers.
func NewPayloadFetcher(client HTTPClient, norm *dates.Normalizer) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &payloadFetcher{client: client, norm: norm}
}

func (f *payloadFetcher) ID() string {
	return ProviderTypePayload
}

func (f *payloadFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Stub, error) {
	if cfg.Payload == nil {
		return nil, fmt.Errorf("provider %q has no payload config", cfg.ID)
	}

	doc, err := fetchDocument(ctx, f.client, cfg.SourceURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	return parsePayloadListing(doc, cfg, f.norm)
}

func parsePayloadListing(doc *goquery.Document, cfg Provider, norm *dates.Normalizer) ([]domain.Stub, error) {
	p := cfg.Payload
	script := p.Script
	if script == "" {
		script = defaultPayloadScript
	}

	node := doc.Find(script).First()
	if node.Length() == 0 {
		return nil, fmt.Errorf("%w: no element matches %q", ErrPayloadShape, script)
	}

	var root any
	if err := json.Unmarshal([]byte(node.Text()), &root); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrPayloadShape, script, err)
	}

	value, err := walkPath(root, p.ItemsPath)
	if err != nil {
		return nil, err
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, not an array", ErrPayloadShape, strings.Join(p.ItemsPath, "."), value)
	}

	stubs := make([]domain.Stub, 0, len(items))
	for _, item := range items {
		if cfg.Limit > 0 && len(stubs) >= cfg.Limit {
			break
		}
		title := cleanText(stringField(item, p.TitleField))
		articleURL, ok := absoluteURL(cfg.SourceURL, stringField(item, p.URLField))
		if title == "" || !ok {
			continue
		}
		stubs = append(stubs, domain.Stub{
			Title:  title,
			URL:    articleURL,
			Date:   normalizeDate(norm, stringField(item, p.DateField)),
			Source: cfg.DisplayName(),
		})
	}
	return stubs, nil
}

// walkPath follows object keys and array indices from root.
func walkPath(root any, path []string) (any, error) {
	cur := root
	for i, key := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("%w: key %q missing at %s", ErrPayloadShape, key, strings.Join(path[:i], "."))
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("%w: index %q invalid at %s", ErrPayloadShape, key, strings.Join(path[:i], "."))
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("%w: cannot descend into %T at %s", ErrPayloadShape, cur, strings.Join(path[:i], "."))
		}
	}
	return cur, nil
}

// stringField reads a dotted field path from item; non-string leaves yield "".
func stringField(item any, field string) string {
	if field == "" {
		return ""
	}
	v, err := walkPath(item, strings.Split(field, "."))
	if err != nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}
