package scraper

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"pricewatch/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	// Pages larger than this are cut down before parsing
	maxHTMLChars = 500000
	// How much of an oversized page is kept
	truncatedHTMLChars = 200000
)

// ParsePage builds a queryable document from raw HTML. Oversized pages are
// truncated, so selectors that target the tail of a large page can miss.
func ParsePage(html string, retailer models.Retailer) (*goquery.Document, error) {
	return parsePage(html, retailer, nil)
}

func parsePage(html string, retailer models.Retailer, sink LogSink) (*goquery.Document, error) {
	if utf8.RuneCountInString(html) > maxHTMLChars {
		emitf(sink, "✂️  %s page is %d bytes, keeping first %d characters", retailer.DisplayName(), len(html), truncatedHTMLChars)
		html = truncateRunes(html, truncatedHTMLChars)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	emitf(sink, "📄 Parsed %s page", retailer.DisplayName())
	return doc, nil
}

// truncateRunes keeps the first n characters of s
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
