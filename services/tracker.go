package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pricewatch/models"
	"pricewatch/repository"
	"pricewatch/scraper"

	"github.com/google/uuid"
)

// PageScraper runs fetch and parse for one URL
type PageScraper interface {
	Scrape(ctx context.Context, rawURL string) *models.ScrapeOutcome
}

// Tracker composes scraping, validation, caching and the record log
type Tracker struct {
	scraper PageScraper
	records *repository.RecordLog
	cache   *ResultCache
	sink    scraper.LogSink
	now     func() time.Time
}

// NewTracker creates a tracker. A nil cache disables result caching.
func NewTracker(ps PageScraper, records *repository.RecordLog, cache *ResultCache, sink scraper.LogSink) *Tracker {
	return &Tracker{
		scraper: ps,
		records: records,
		cache:   cache,
		sink:    sink,
		now:     time.Now,
	}
}

// SetClock replaces the time source for the tracker and its cache
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
	if t.cache != nil {
		t.cache.now = now
	}
}

// Cache returns the result cache, nil when caching is off
func (t *Tracker) Cache() *ResultCache {
	return t.cache
}

// GetCurrentPrice returns the validated price for url. It never fails: every
// problem is reported through the outcome's source and error fields.
func (t *Tracker) GetCurrentPrice(ctx context.Context, rawURL string, userPrice *float64) *models.ValidatedOutcome {
	if userPrice != nil && *userPrice <= 0 {
		userPrice = nil
	}
	requestID := uuid.NewString()[:8]

	if t.cache != nil {
		if cached, ok := t.cache.Get(rawURL, userPrice); ok {
			t.logf(requestID, "⚡ Cache hit for %s", rawURL)
			return cached
		}
	}

	t.logf(requestID, "🔍 Checking price for %s", rawURL)
	outcome := t.scrape(ctx, rawURL)
	t.logf(requestID, "📦 Scrape finished: source=%s candidates=%d", outcome.Source, outcome.CandidateCount)

	result := Validate(outcome, userPrice, rawURL)
	if result.Suggestion != "" {
		t.logf(requestID, "⚖️  %s (diff %.1f%%)", result.Source, derefOrZero(result.DiffPercent))
	} else {
		t.logf(requestID, "⚖️  Final source %s, confidence %d", result.Source, result.Confidence)
	}

	if result.HasPrice() {
		rec := models.NewPriceRecord(rawURL, result, t.now())
		if err := t.records.Append(ctx, rec); err != nil {
			t.logf(requestID, "⚠️  Failed to save price record: %v", err)
		} else {
			t.logf(requestID, "💾 Saved $%.2f for %s", rec.Price, rawURL)
		}
	}

	if t.cache != nil && outcome.Source != models.SourceFetchFailed && outcome.Source != models.SourceScrapeError {
		t.cache.Set(rawURL, userPrice, result)
	}

	return result
}

// scrape runs the scraper and turns a panic into a scrape_error outcome
func (t *Tracker) scrape(ctx context.Context, rawURL string) (outcome *models.ScrapeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = &models.ScrapeOutcome{
				Source:   models.SourceScrapeError,
				Error:    fmt.Sprint(r),
				Retailer: scraper.ClassifyStore(rawURL),
			}
		}
	}()

	outcome = t.scraper.Scrape(ctx, rawURL)
	if outcome == nil {
		outcome = &models.ScrapeOutcome{
			Source:   models.SourceScrapeError,
			Error:    "scraper returned no outcome",
			Retailer: scraper.ClassifyStore(rawURL),
		}
	}
	return outcome
}

// GetPriceHistory returns records for url newer than now minus days, newest first
func (t *Tracker) GetPriceHistory(ctx context.Context, rawURL string, days int) ([]models.PriceRecord, error) {
	recs, err := t.records.All(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := t.now().Add(-time.Duration(days) * 24 * time.Hour)
	history := []timedRecord{}
	for _, rec := range recs {
		if rec.URL != rawURL {
			continue
		}
		at, err := rec.RecordedTime()
		if err != nil {
			continue
		}
		if at.After(cutoff) {
			history = append(history, timedRecord{rec, at})
		}
	}

	return sortNewestFirst(history), nil
}

// GetAllProducts returns the latest record for each URL, newest first
func (t *Tracker) GetAllProducts(ctx context.Context) ([]models.PriceRecord, error) {
	recs, err := t.records.All(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]timedRecord)
	for _, rec := range recs {
		at, err := rec.RecordedTime()
		if err != nil {
			continue
		}
		if current, ok := latest[rec.URL]; !ok || !at.Before(current.at) {
			latest[rec.URL] = timedRecord{rec, at}
		}
	}

	products := make([]timedRecord, 0, len(latest))
	for _, tr := range latest {
		products = append(products, tr)
	}
	return sortNewestFirst(products), nil
}

// DeleteProduct removes every record for url
func (t *Tracker) DeleteProduct(ctx context.Context, rawURL string) (models.DeleteResult, error) {
	deleted, err := t.records.DeleteURL(ctx, rawURL)
	if err != nil {
		return models.DeleteResult{URL: rawURL}, err
	}
	if deleted > 0 {
		emit(t.sink, fmt.Sprintf("🗑️  Deleted %d records for %s", deleted, rawURL))
	}
	return models.DeleteResult{Success: deleted > 0, DeletedCount: deleted, URL: rawURL}, nil
}

// RefreshAll re-checks every tracked URL and returns how many produced a price
func (t *Tracker) RefreshAll(ctx context.Context) (int, error) {
	urls, err := t.records.URLs(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, rawURL := range urls {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if result := t.GetCurrentPrice(ctx, rawURL, nil); result.HasPrice() {
			refreshed++
		}
	}
	return refreshed, nil
}

func (t *Tracker) logf(requestID, format string, args ...interface{}) {
	if t.sink == nil {
		return
	}
	t.sink.Emit("[" + requestID + "] " + fmt.Sprintf(format, args...))
}

func emit(sink scraper.LogSink, message string) {
	if sink != nil {
		sink.Emit(message)
	}
}

type timedRecord struct {
	rec models.PriceRecord
	at  time.Time
}

func sortNewestFirst(recs []timedRecord) []models.PriceRecord {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].at.After(recs[j].at)
	})

	out := make([]models.PriceRecord, len(recs))
	for i, tr := range recs {
		out[i] = tr.rec
	}
	return out
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
