package crawler

import "github.com/Adda-Baaj/iso-news-harvester/internal/domain"

// Merge combines per-source stub lists into one list keyed by URL.
//
// Lists are applied in order and a later stub replaces an earlier one with the
// same URL while keeping the position where that URL was first seen. Seeded
// stubs never replace scraped ones; they are only appended for new URLs.
// Stubs without a URL are dropped.
func Merge(lists [][]domain.Stub, seeded []domain.Stub) []domain.Stub {
	index := make(map[string]int)
	var out []domain.Stub

	for _, list := range lists {
		for _, stub := range list {
			if stub.URL == "" {
				continue
			}
			if i, ok := index[stub.URL]; ok {
				out[i] = stub
				continue
			}
			index[stub.URL] = len(out)
			out = append(out, stub)
		}
	}

	for _, stub := range seeded {
		if stub.URL == "" {
			continue
		}
		if _, ok := index[stub.URL]; ok {
			continue
		}
		index[stub.URL] = len(out)
		out = append(out, stub)
	}

	if out == nil {
		return []domain.Stub{}
	}
	return out
}
