package scraper

import (
	"sort"

	"pricewatch/models"

	"github.com/shopspring/decimal"
)

// Values outside this range are shipping fees, accessories or junk
const (
	minReasonablePrice = 5
	maxReasonablePrice = 10000
)

// SelectPrice picks the single most plausible price from the candidate
// values. The result is always one of the inputs; ok is false only when
// values is empty.
func SelectPrice(values []float64, retailer models.Retailer) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	reasonable := filterReasonable(values)
	if len(reasonable) == 0 {
		return values[0], true
	}

	switch retailer {
	case models.RetailerEbay, models.RetailerBestBuy:
		if value, count := mostCommon(reasonable); count > 1 {
			return value, true
		}
		// Monthly financing figures sit next to the real price and are smaller
		return maxValue(reasonable), true

	case models.RetailerAmazon:
		// "59" scraped out of "59.99" is a partial read
		if value, count := mostCommon(withTwoDecimals(reasonable)); count > 1 {
			return value, true
		}
		if value, count := mostCommon(reasonable); count > 1 {
			return value, true
		}
		return median(reasonable), true

	default:
		return median(reasonable), true
	}
}

func filterReasonable(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= minReasonablePrice && v <= maxReasonablePrice {
			out = append(out, v)
		}
	}
	return out
}

// withTwoDecimals keeps values whose shortest decimal form has exactly two
// fractional digits
func withTwoDecimals(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if decimal.NewFromFloat(v).Exponent() == -2 {
			out = append(out, v)
		}
	}
	return out
}

// mostCommon returns the most frequent value and its count. Equal counts
// resolve to the lowest value.
func mostCommon(values []float64) (float64, int) {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best, bestCount := 0.0, 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, bestCount
}

func maxValue(values []float64) float64 {
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// median returns the upper middle element so the result is always a member
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}
