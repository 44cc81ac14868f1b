package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// contentSelectors are tried in order; the first one present in the page wins.
var contentSelectors = []string{
	".article-body",
	".story-body",
	"div.field-item",
	".entry-content",
	".post-content",
	".article-content",
	"article",
	".main-content",
	".content",
}

// imageContainers are searched in order for a lead image when og:image is absent.
var imageContainers = []string{
	".article-body",
	".entry-content",
	".content",
}

// pageContent holds what the extractor keeps from an article page.
type pageContent struct {
	Text     string
	ImageURL string
}

// parsePage extracts the article text and lead image from doc. pageURL is used
// to resolve relative image references.
func parsePage(doc *goquery.Document, pageURL string) pageContent {
	return pageContent{
		Text:     articleText(doc),
		ImageURL: leadImage(doc, pageURL),
	}
}

// articleText returns the visible text of the first matching content container,
// or of the whole page when no container yields any text.
func articleText(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := visibleText(node); text != "" {
			return text
		}
		break
	}
	return visibleText(doc.Find("body"))
}

// leadImage prefers the og:image meta tag and falls back to the first image in
// a content container.
func leadImage(doc *goquery.Document, pageURL string) string {
	if og, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		if resolved := resolveURL(og, pageURL); resolved != "" {
			return resolved
		}
	}

	for _, container := range imageContainers {
		var found string
		doc.Find(container + " img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := firstNonEmpty(img.AttrOr("src", ""), img.AttrOr("data-src", ""))
			if src == "" {
				return true
			}
			found = resolveURL(src, pageURL)
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// visibleText joins the whitespace-collapsed text nodes under sel with single
// spaces, skipping script, style and noscript subtrees.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				parts = append(parts, text)
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// firstNonEmpty returns the first non-empty string from the given values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
