package scraper

import (
	"regexp"
	"sort"
	"strings"

	"pricewatch/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Candidates outside (0, maxCandidateValue) are SKU numbers, years and
// similar noise
const maxCandidateValue = 50000

var (
	nonPriceChars = regexp.MustCompile(`[^\d,.]`)
	// US format: 1,234.56
	priceNumber = regexp.MustCompile(`\d{1,3}(?:,\d{3})*(?:\.\d{2})?`)
)

// ExtractNumber pulls the first US-formatted number out of a price text
func ExtractNumber(text string) (float64, bool) {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	match := priceNumber.FindString(cleaned)
	if match == "" {
		return 0, false
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, false
	}

	price := value.InexactFloat64()
	if price <= 0 || price >= maxCandidateValue {
		return 0, false
	}
	return price, true
}

// priceSelectorGroup is one ordered selector list and the kind of price it targets
type priceSelectorGroup struct {
	kind      models.CandidateKind
	selectors []string
}

// priceSelectorGroups returns the selector lists for a retailer, in evaluation order
func priceSelectorGroups(retailer models.Retailer) []priceSelectorGroup {
	switch retailer {
	case models.RetailerAmazon:
		return []priceSelectorGroup{{models.CandidateSale, amazonPriceSelectors}}
	case models.RetailerEbay:
		return []priceSelectorGroup{
			{models.CandidateSale, ebaySalePriceSelectors},
			{models.CandidateRegular, ebayRegularPriceSelectors},
		}
	case models.RetailerBestBuy:
		return []priceSelectorGroup{{models.CandidateSale, bestBuyPriceSelectors}}
	default:
		return nil
	}
}

// ExtractPriceCandidates collects every plausible price on the page for the
// retailer's selectors, deduplicated and sorted ascending. Unknown stores
// yield no candidates.
func ExtractPriceCandidates(doc *goquery.Document, retailer models.Retailer) []models.PriceCandidate {
	return extractPriceCandidates(doc, retailer, nil)
}

func extractPriceCandidates(doc *goquery.Document, retailer models.Retailer, sink LogSink) []models.PriceCandidate {
	groups := priceSelectorGroups(retailer)
	if len(groups) == 0 {
		emitf(sink, "💲 No price selectors for %s store", retailer.DisplayName())
		return []models.PriceCandidate{}
	}

	seen := make(map[float64]bool)
	candidates := []models.PriceCandidate{}
	for _, group := range groups {
		for _, selector := range group.selectors {
			doc.Find(selector).Each(func(i int, s *goquery.Selection) {
				value, ok := ExtractNumber(s.Text())
				if !ok || seen[value] {
					return
				}
				seen[value] = true
				candidates = append(candidates, models.PriceCandidate{Value: value, Kind: group.kind})
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value < candidates[j].Value
	})

	emitf(sink, "💲 Price candidates: %v", CandidateValues(candidates))
	return candidates
}

// CandidateValues returns the numeric values of the candidates, in order
func CandidateValues(candidates []models.PriceCandidate) []float64 {
	values := make([]float64, len(candidates))
	for i, c := range candidates {
		values[i] = c.Value
	}
	return values
}
