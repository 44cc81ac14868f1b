package providers

// DefaultProviders lists the built-in sources, in merge order. Later entries win
// when two sources list the same URL.
func DefaultProviders() []Provider {
	return []Provider{
		{
			ID:             "inn",
			Name:           "INN Chile",
			Type:           ProviderTypeDisabled,
			SourceURL:      "https://www.inn.cl/noticias",
			DisabledReason: "INN news are excluded from the feed",
		},
		{
			ID:        "isotools",
			Name:      "ISOTools Blog",
			Type:      ProviderTypeHTML,
			SourceURL: "https://www.isotools.us/blog-corporativo/",
			HTML: &HTMLListing{
				Card: "div.wpex-post-cards-entry",
				Link: "h2.wpex-card-title a",
				Date: "div.wpex-card-date",
			},
		},
		{
			ID:        "aenor",
			Name:      "Revista AENOR",
			Type:      ProviderTypeCustom,
			SourceURL: "https://revista.aenor.com/adicional/revistas-anteriores.html",
		},
		{
			ID:        "iso",
			Name:      "ISO Newsroom",
			Type:      ProviderTypePayload,
			SourceURL: "https://www.iso.org/news",
			Payload: &PayloadListing{
				Script:     defaultPayloadScript,
				ItemsPath:  []string{"props", "pageProps", "news", "items"},
				TitleField: "title",
				URLField:   "url",
				DateField:  "publishedDate",
			},
		},
		{
			ID:        "anexia",
			Name:      "Anexia Consultoría",
			Type:      ProviderTypeDisabled,
			SourceURL: "https://consultoria.anexia.es/blog/",
		},
	}
}
