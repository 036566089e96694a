package scraper

import (
	"net/url"
	"strings"

	"pricewatch/models"
)

// storeMarkers maps host substrings to retailers, checked in order
var storeMarkers = []struct {
	marker   string
	retailer models.Retailer
}{
	{"amazon.", models.RetailerAmazon},
	{"ebay.", models.RetailerEbay},
	{"bestbuy.", models.RetailerBestBuy},
}

// ClassifyStore maps a product URL to a known retailer. Malformed URLs are
// reported as unknown rather than failing.
func ClassifyStore(rawURL string) models.Retailer {
	return classifyStore(rawURL, nil)
}

func classifyStore(rawURL string, sink LogSink) models.Retailer {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		emitf(sink, "⚠️  Could not parse host from %q, treating store as unknown", rawURL)
		return models.RetailerUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	for _, m := range storeMarkers {
		if strings.Contains(host, m.marker) {
			emitf(sink, "🏪 Detected store: %s (%s)", m.retailer.DisplayName(), host)
			return m.retailer
		}
	}

	emitf(sink, "🏪 Unknown store for host %s", host)
	return models.RetailerUnknown
}
