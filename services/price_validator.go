package services

import (
	"fmt"

	"pricewatch/models"
	"pricewatch/scraper"

	"github.com/shopspring/decimal"
)

const (
	confirmedMaxDiff = 5
	moderateMaxDiff  = 20
	largeMaxDiff     = 50

	userReportedConfidence  = 70
	confirmedConfidence     = 95
	hybridConfidence        = 75
	userCorrectedConfidence = 65
	userOverrideConfidence  = 60
)

var hundred = decimal.NewFromInt(100)

// Validate reconciles a scrape outcome with an optional user-reported price.
// It never fails: every result carries a source.
func Validate(outcome *models.ScrapeOutcome, userPrice *float64, rawURL string) *models.ValidatedOutcome {
	if userPrice != nil && *userPrice <= 0 {
		userPrice = nil
	}

	result := &models.ValidatedOutcome{
		Title:      outcome.Title,
		Source:     outcome.Source,
		Confidence: outcome.Confidence,
		Retailer:   outcome.Retailer,
		Error:      outcome.Error,
		UserPrice:  userPrice,
	}
	if outcome.Price != nil {
		result.Price = models.Float64Ptr(*outcome.Price)
		result.ScrapedPrice = models.Float64Ptr(*outcome.Price)
	}

	if userPrice == nil {
		return result
	}

	if outcome.Price == nil {
		result.Price = models.Float64Ptr(*userPrice)
		result.Source = models.SourceUserReported
		result.Confidence = userReportedConfidence
		if result.Title == "" || result.Title == scraper.UnknownProductTitle {
			result.Title = scraper.TitleFromURL(rawURL)
		}
		return result
	}

	scraped := decimal.NewFromFloat(*outcome.Price)
	user := decimal.NewFromFloat(*userPrice)
	diff := DiffPercent(*outcome.Price, *userPrice)
	result.DiffPercent = models.Float64Ptr(diff)

	switch {
	case diff <= confirmedMaxDiff:
		result.Source = models.SourceConfirmed
		result.Confidence = confirmedConfidence

	case diff <= moderateMaxDiff:
		average := scraped.Add(user).Div(decimal.NewFromInt(2)).Round(2).InexactFloat64()
		result.Price = models.Float64Ptr(average)
		result.Source = models.SourceHybridAverage
		result.Confidence = hybridConfidence
		result.Suggestion = fmt.Sprintf("Scraped price $%.2f is %.1f%% away from your $%.2f; using the average $%.2f",
			*outcome.Price, diff, *userPrice, average)

	case diff <= largeMaxDiff:
		result.Price = models.Float64Ptr(*userPrice)
		result.Source = models.SourceUserCorrected
		result.Confidence = userCorrectedConfidence
		result.Suggestion = fmt.Sprintf("Scraped price $%.2f differs by %.1f%% from your $%.2f; using your price. The page may show another variant or a stale price",
			*outcome.Price, diff, *userPrice)

	default:
		result.Price = models.Float64Ptr(*userPrice)
		result.Source = models.SourceUserOverride
		result.Confidence = userOverrideConfidence
		result.Suggestion = fmt.Sprintf("Scraped price $%.2f is %.1f%% off your $%.2f; the page probably matched the wrong element, using your price",
			*outcome.Price, diff, *userPrice)
	}

	return result
}

// DiffPercent returns |scraped - user| / user * 100 rounded to one decimal
func DiffPercent(scraped, user float64) float64 {
	s := decimal.NewFromFloat(scraped)
	u := decimal.NewFromFloat(user)
	return s.Sub(u).Abs().Div(u).Mul(hundred).Round(1).InexactFloat64()
}
