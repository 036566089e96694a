package scraper

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"pricewatch/models"

	"github.com/PuerkitoBio/goquery"
)

// UnknownProductTitle is returned when no selector yields a usable title
const UnknownProductTitle = "Unknown Product"

const minTitleLength = 5

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	retailerSuffix = regexp.MustCompile(`(?i)\s*\|\s*(amazon|ebay|best\s*buy).*$`)
	detailsPrefix  = regexp.MustCompile(`(?i)^details about\s+`)
)

// ExtractTitle returns the first usable product title found by the
// retailer's selector list, or UnknownProductTitle
func ExtractTitle(doc *goquery.Document, retailer models.Retailer) string {
	return extractTitle(doc, retailer, nil)
}

func extractTitle(doc *goquery.Document, retailer models.Retailer, sink LogSink) string {
	selectors, ok := titleSelectors[retailer]
	if !ok {
		selectors = titleSelectors[models.RetailerUnknown]
	}

	for _, selector := range selectors {
		match := doc.Find(selector).First()
		if match.Length() == 0 {
			continue
		}
		// Only the first match counts. A short one moves on to the next selector.
		text := NormalizeTitle(match.Text())
		if utf8.RuneCountInString(text) >= minTitleLength {
			emitf(sink, "🏷️  Title from %q: %s", selector, text)
			return text
		}
	}

	emitf(sink, "🏷️  No title found, using %q", UnknownProductTitle)
	return UnknownProductTitle
}

// NormalizeTitle collapses whitespace and strips store branding
func NormalizeTitle(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = retailerSuffix.ReplaceAllString(text, "")
	text = detailsPrefix.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
