package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/iso-news-harvester/pkg/httpclient"
)

const (
	// Supported provider types. Providers whose type is ProviderTypeCustom are
	// resolved by id instead.
	ProviderTypeHTML       = "html"
	ProviderTypePayload    = "payload"
	ProviderTypeFeed       = "feed"
	ProviderTypeGoogleNews = "sitemap"
	ProviderTypeDisabled   = "disabled"
	ProviderTypeCustom     = "custom"

	defaultPayloadScript = "script#__NEXT_DATA__"
)

// HTTPClient is the transport used by fetchers.
type HTTPClient = httpclient.Client

// Provider describes one news source.
type Provider struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Type      string            `json:"type" yaml:"type"`
	SourceURL string            `json:"source_url" yaml:"source_url"`
	Enabled   *bool             `json:"enabled" yaml:"enabled"`
	Headers   map[string]string `json:"headers" yaml:"headers"`
	// Limit caps listing entries (issues for multi-page sources); 0 means no cap.
	Limit int `json:"limit" yaml:"limit"`
	// DisabledReason is logged by disabled providers.
	DisabledReason string          `json:"disabled_reason" yaml:"disabled_reason"`
	HTML           *HTMLListing    `json:"html" yaml:"html"`
	Payload        *PayloadListing `json:"payload" yaml:"payload"`
}

// HTMLListing holds the selectors of an HTML listing page.
type HTMLListing struct {
	Card string `json:"card" yaml:"card"`
	Link string `json:"link" yaml:"link"`
	// Title defaults to the link element's text.
	Title     string `json:"title" yaml:"title"`
	TitleAttr string `json:"title_attr" yaml:"title_attr"`
	Date      string `json:"date" yaml:"date"`
	// DateAttr reads the date from an attribute (e.g. datetime) instead of text.
	DateAttr string `json:"date_attr" yaml:"date_attr"`
}

// PayloadListing locates an items array inside a JSON blob embedded in the page.
type PayloadListing struct {
	Script     string   `json:"script" yaml:"script"`
	ItemsPath  []string `json:"items_path" yaml:"items_path"`
	TitleField string   `json:"title_field" yaml:"title_field"`
	URLField   string   `json:"url_field" yaml:"url_field"`
	DateField  string   `json:"date_field" yaml:"date_field"`
}

// DisplayName is the human-readable label stored on stubs.
func (p Provider) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// EnabledValue returns enabled flag defaulting to true.
func (p Provider) EnabledValue() bool {
	if p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// Headers returns a copy of the provider's extra request headers.
func Headers(cfg Provider) map[string]string {
	if len(cfg.Headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		out[k] = v
	}
	return out
}

// providersFile is the on-disk shape of a providers file.
type providersFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// LoadProviders reads providers from a YAML or JSON file. ${VAR} references are
// expanded from the environment.
func LoadProviders(path string) ([]Provider, error) {
	var file providersFile
	if err := decodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("providers file: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	seen := make(map[string]struct{}, len(file.Providers))
	out := make([]Provider, 0, len(file.Providers))
	for i := range file.Providers {
		cfg := SanitizeProvider(file.Providers[i])
		if err := ValidateProvider(cfg); err != nil {
			return nil, fmt.Errorf("providers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		out = append(out, cfg)
	}
	return out, nil
}

// Enabled filters out providers switched off in configuration.
func Enabled(cfgs []Provider) []Provider {
	out := make([]Provider, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// SanitizeProvider trims and normalizes the provider config fields.
func SanitizeProvider(cfg Provider) Provider {
	cfg.ID = strings.ToLower(strings.TrimSpace(cfg.ID))
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Type == "" {
		cfg.Type = ProviderTypeCustom
	}
	cfg.SourceURL = strings.TrimSpace(cfg.SourceURL)
	cfg.DisabledReason = strings.TrimSpace(cfg.DisabledReason)
	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	cfg.Headers = sanitizeHeaders(cfg.Headers)

	if cfg.HTML != nil {
		h := *cfg.HTML
		h.Card = strings.TrimSpace(h.Card)
		h.Link = strings.TrimSpace(h.Link)
		h.Title = strings.TrimSpace(h.Title)
		h.TitleAttr = strings.TrimSpace(h.TitleAttr)
		h.Date = strings.TrimSpace(h.Date)
		h.DateAttr = strings.TrimSpace(h.DateAttr)
		cfg.HTML = &h
	}
	if cfg.Payload != nil {
		p := *cfg.Payload
		p.Script = strings.TrimSpace(p.Script)
		if p.Script == "" {
			p.Script = defaultPayloadScript
		}
		path := make([]string, 0, len(p.ItemsPath))
		for _, key := range p.ItemsPath {
			if key = strings.TrimSpace(key); key != "" {
				path = append(path, key)
			}
		}
		p.ItemsPath = path
		p.TitleField = strings.TrimSpace(p.TitleField)
		p.URLField = strings.TrimSpace(p.URLField)
		p.DateField = strings.TrimSpace(p.DateField)
		cfg.Payload = &p
	}
	return cfg
}

// ValidateProvider checks that required fields are present for the provider type.
func ValidateProvider(cfg Provider) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type != ProviderTypeDisabled && cfg.SourceURL == "" {
		return fmt.Errorf("source_url is required for provider %q", cfg.ID)
	}
	switch cfg.Type {
	case ProviderTypeHTML:
		if cfg.HTML == nil {
			return fmt.Errorf("html config required for provider %q", cfg.ID)
		}
		if cfg.HTML.Card == "" || cfg.HTML.Link == "" {
			return fmt.Errorf("html.card and html.link are required for provider %q", cfg.ID)
		}
	case ProviderTypePayload:
		if cfg.Payload == nil {
			return fmt.Errorf("payload config required for provider %q", cfg.ID)
		}
		if len(cfg.Payload.ItemsPath) == 0 {
			return fmt.Errorf("payload.items_path is required for provider %q", cfg.ID)
		}
		if cfg.Payload.TitleField == "" || cfg.Payload.URLField == "" {
			return fmt.Errorf("payload.title_field and payload.url_field are required for provider %q", cfg.ID)
		}
	case ProviderTypeFeed, ProviderTypeGoogleNews, ProviderTypeDisabled, ProviderTypeCustom:
	default:
		return fmt.Errorf("type %q not supported for provider %q", cfg.Type, cfg.ID)
	}
	if cfg.Limit < 0 {
		return fmt.Errorf("limit must be non-negative for provider %q", cfg.ID)
	}
	return nil
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// decodeFile reads path, expands env references and decodes it as YAML or JSON
// depending on the extension (both are tried when the extension is unknown).
func decodeFile(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	expanded := []byte(os.ExpandEnv(string(raw)))

	ext := strings.ToLower(filepath.Ext(path))
	decoders := []struct {
		ext string
		fn  func([]byte, any) error
	}{
		{ext: ".yaml", fn: yaml.Unmarshal},
		{ext: ".yml", fn: yaml.Unmarshal},
		{ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && isKnownExt(ext) && ext != d.ext {
			continue
		}
		if err := d.fn(expanded, out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("decode %s: %w", path, lastErr)
	}
	return fmt.Errorf("decode %s: format not recognized (expected YAML or JSON)", path)
}

func isKnownExt(ext string) bool {
	switch ext {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
