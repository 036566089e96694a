package scraper

import (
	"testing"

	"pricewatch/models"
)

func TestClassifyStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want models.Retailer
	}{
		{"amazon us", "https://www.amazon.com/dp/B0C1234567", models.RetailerAmazon},
		{"amazon uk upper case", "https://WWW.AMAZON.CO.UK/dp/B0C1234567", models.RetailerAmazon},
		{"ebay", "https://www.ebay.com/itm/1234567890", models.RetailerEbay},
		{"bestbuy", "https://www.bestbuy.com/site/some-tv/6501234.p", models.RetailerBestBuy},
		{"unknown store", "https://shop.example.com/products/widget", models.RetailerUnknown},
		{"marker only in path", "https://example.com/amazon.com/widget", models.RetailerUnknown},
		{"malformed", "://not a url", models.RetailerUnknown},
		{"empty", "", models.RetailerUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyStore(tt.url); got != tt.want {
				t.Fatalf("ClassifyStore(%q) got %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
