package scraper

import (
	"context"
	"errors"
	"fmt"

	"pricewatch/models"
)

// ErrParseFailed means the page was fetched but no price or title came out of it
var ErrParseFailed = errors.New("no price or title found on page")

// PageFetcher retrieves raw product pages
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, retailer models.Retailer) (*models.FetchResult, error)
}

// PriceScraper runs the fetch and parse half of a price check
type PriceScraper struct {
	fetcher     PageFetcher
	botDetector *BotDetector
	sink        LogSink
}

// NewPriceScraper creates a new price scraper instance
func NewPriceScraper(fetcher PageFetcher, sink LogSink) *PriceScraper {
	return &PriceScraper{
		fetcher:     fetcher,
		botDetector: NewBotDetector(),
		sink:        sink,
	}
}

// Scrape fetches and parses a product page. Every failure, including a
// panic inside a parser, comes back as an outcome with no price.
func (ps *PriceScraper) Scrape(ctx context.Context, rawURL string) (outcome *models.ScrapeOutcome) {
	retailer := classifyStore(rawURL, ps.sink)

	defer func() {
		if r := recover(); r != nil {
			emitf(ps.sink, "💥 Unexpected scrape failure: %v", r)
			outcome = &models.ScrapeOutcome{
				Source:   models.SourceScrapeError,
				Error:    fmt.Sprint(r),
				Retailer: retailer,
			}
		}
	}()

	page, err := ps.fetcher.Fetch(ctx, rawURL, retailer)
	if err != nil {
		source := models.SourceScrapeError
		if errors.Is(err, ErrFetchFailed) {
			source = models.SourceFetchFailed
		}
		return &models.ScrapeOutcome{Source: source, Error: err.Error(), Retailer: retailer}
	}

	doc, err := parsePage(page.Body, retailer, ps.sink)
	if err != nil {
		return &models.ScrapeOutcome{Source: models.SourceScrapeError, Error: err.Error(), Retailer: retailer}
	}

	title := extractTitle(doc, retailer, ps.sink)
	candidates := extractPriceCandidates(doc, retailer, ps.sink)
	price, ok := SelectPrice(CandidateValues(candidates), retailer)

	if !ok || title == "" {
		failed := &models.ScrapeOutcome{
			Title:          title,
			Source:         models.SourceScrapeFailed,
			Error:          ErrParseFailed.Error(),
			Retailer:       retailer,
			CandidateCount: len(candidates),
		}
		if isWall, reason, _ := ps.botDetector.DetectBotWall(doc); isWall {
			emitf(ps.sink, "🤖 Bot wall detected: %s", reason)
			failed.Error = fmt.Sprintf("%s: bot wall detected (%s)", ErrParseFailed.Error(), reason)
		}
		emitf(ps.sink, "❌ No price found for %s", rawURL)
		return failed
	}

	confidence := ScoreConfidence(title, &price, len(candidates))
	emitf(ps.sink, "🎯 Selected $%.2f from %d candidates (confidence %d)", price, len(candidates), confidence)

	return &models.ScrapeOutcome{
		Price:          &price,
		Title:          title,
		Source:         models.SourceScraped,
		Confidence:     confidence,
		Retailer:       retailer,
		CandidateCount: len(candidates),
	}
}
