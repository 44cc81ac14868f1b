package providers

import (
	"fmt"
	"strings"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
)

const defaultSeedSource = "Manual"

type seedsFile struct {
	Articles []domain.Stub `json:"articles" yaml:"articles"`
}

// LoadSeeds reads hand-curated stubs that are merged after scraped ones. Seed
// URLs must already be absolute.
func LoadSeeds(path string) ([]domain.Stub, error) {
	var file seedsFile
	if err := decodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("seed file: %w", err)
	}

	out := make([]domain.Stub, 0, len(file.Articles))
	for i, s := range file.Articles {
		u, ok := absoluteURL("", s.URL)
		if !ok {
			return nil, fmt.Errorf("articles[%d]: url %q is not an absolute http(s) URL", i, s.URL)
		}
		title := cleanText(s.Title)
		if title == "" {
			return nil, fmt.Errorf("articles[%d]: title is required", i)
		}
		source := strings.TrimSpace(s.Source)
		if source == "" {
			source = defaultSeedSource
		}
		out = append(out, domain.Stub{
			Title:  title,
			URL:    u,
			Date:   strings.TrimSpace(s.Date),
			Source: source,
		})
	}
	return out, nil
}
