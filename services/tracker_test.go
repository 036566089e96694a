package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pricewatch/models"
	"pricewatch/repository"
	"pricewatch/scraper"
)

type stubScraper struct {
	mu      sync.Mutex
	calls   int
	outcome *models.ScrapeOutcome
	panic   bool
}

func (s *stubScraper) Scrape(ctx context.Context, rawURL string) *models.ScrapeOutcome {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.panic {
		panic("selector engine exploded")
	}
	out := *s.outcome
	return &out
}

func (s *stubScraper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestTracker(t *testing.T, ps PageScraper) (*Tracker, *fakeClock) {
	t.Helper()

	c, err := NewResultCache(300*time.Second, 100)
	if err != nil {
		t.Fatalf("NewResultCache() error = %v", err)
	}
	records := repository.NewRecordLog(repository.NewJSONFileStore(filepath.Join(t.TempDir(), "prices.json")))
	tracker := NewTracker(ps, records, c, nil)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tracker.SetClock(clock.Now)
	return tracker, clock
}

func okOutcome(price float64) *models.ScrapeOutcome {
	return &models.ScrapeOutcome{
		Price:          models.Float64Ptr(price),
		Title:          "Apple AirPods Pro 2nd Generation",
		Source:         models.SourceScraped,
		Confidence:     85,
		Retailer:       models.RetailerEbay,
		CandidateCount: 3,
	}
}

func TestTracker_CacheHitWithinTTL(t *testing.T) {
	t.Parallel()

	ps := &stubScraper{outcome: okOutcome(199.99)}
	tracker, clock := newTestTracker(t, ps)
	ctx := context.Background()
	url := "https://www.ebay.com/itm/123"

	first := tracker.GetCurrentPrice(ctx, url, nil)
	clock.Advance(120 * time.Second)
	second := tracker.GetCurrentPrice(ctx, url, nil)

	if ps.Calls() != 1 {
		t.Fatalf("scraper called %d times, want 1", ps.Calls())
	}
	if *first.Price != *second.Price || second.Source != models.SourceScraped {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}

	clock.Advance(181 * time.Second)
	tracker.GetCurrentPrice(ctx, url, nil)
	if ps.Calls() != 2 {
		t.Fatalf("scraper called %d times after expiry, want 2", ps.Calls())
	}
}

func TestTracker_CacheKeyIncludesUserPrice(t *testing.T) {
	t.Parallel()

	ps := &stubScraper{outcome: okOutcome(100)}
	tracker, _ := newTestTracker(t, ps)
	ctx := context.Background()
	url := "https://www.ebay.com/itm/123"

	tracker.GetCurrentPrice(ctx, url, nil)
	got := tracker.GetCurrentPrice(ctx, url, models.Float64Ptr(130))

	if ps.Calls() != 2 {
		t.Fatalf("scraper called %d times, want 2", ps.Calls())
	}
	if got.Source != models.SourceUserCorrected || *got.Price != 130 {
		t.Fatalf("got source=%s price=%v", got.Source, *got.Price)
	}
}

func TestTracker_FetchFailed(t *testing.T) {
	t.Parallel()

	ps := &stubScraper{outcome: &models.ScrapeOutcome{
		Source:   models.SourceFetchFailed,
		Error:    "fetch failed: HTTP 429 after 3 attempts",
		Retailer: models.RetailerAmazon,
	}}
	tracker, _ := newTestTracker(t, ps)
	ctx := context.Background()
	url := "https://www.amazon.com/dp/B000000000"

	got := tracker.GetCurrentPrice(ctx, url, nil)
	if got.HasPrice() || got.Source != models.SourceFetchFailed {
		t.Fatalf("got %+v", got)
	}

	tracker.GetCurrentPrice(ctx, url, nil)
	if ps.Calls() != 2 {
		t.Fatalf("failed fetch was cached, calls = %d", ps.Calls())
	}

	recs, err := tracker.records.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("recorded %d prices for a failed fetch", len(recs))
	}
}

func TestTracker_OnlyTransientFailuresSkipCache(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		source     models.Source
		wantCalls  int
		wantCached bool
	}{
		{"fetch failure retries", models.SourceFetchFailed, 2, false},
		{"scrape error retries", models.SourceScrapeError, 2, false},
		{"scrape failure is cached", models.SourceScrapeFailed, 1, true},
	}
	for _, tt := range tests {
		ps := &stubScraper{outcome: &models.ScrapeOutcome{
			Title:    scraper.UnknownProductTitle,
			Source:   tt.source,
			Retailer: models.RetailerEbay,
		}}
		tracker, clock := newTestTracker(t, ps)
		ctx := context.Background()
		url := "https://www.ebay.com/itm/987654"

		tracker.GetCurrentPrice(ctx, url, nil)
		clock.Advance(10 * time.Second)
		got := tracker.GetCurrentPrice(ctx, url, nil)

		if ps.Calls() != tt.wantCalls {
			t.Fatalf("%s: calls = %d, want %d", tt.name, ps.Calls(), tt.wantCalls)
		}
		if got.Source != tt.source {
			t.Fatalf("%s: source = %s", tt.name, got.Source)
		}
		if _, ok := tracker.Cache().Get(url, nil); ok != tt.wantCached {
			t.Fatalf("%s: cached = %v, want %v", tt.name, ok, tt.wantCached)
		}
	}
}

func TestTracker_PanicBecomesScrapeError(t *testing.T) {
	t.Parallel()

	tracker, _ := newTestTracker(t, &stubScraper{panic: true})

	got := tracker.GetCurrentPrice(context.Background(), "https://www.bestbuy.com/site/x/1.p", nil)
	if got.Source != models.SourceScrapeError || got.HasPrice() {
		t.Fatalf("got %+v", got)
	}
	if got.Error != "selector engine exploded" {
		t.Fatalf("Error = %q", got.Error)
	}
	if got.Retailer != models.RetailerBestBuy {
		t.Fatalf("Retailer = %s", got.Retailer)
	}
}

func TestTracker_AppendsRecord(t *testing.T) {
	t.Parallel()

	ps := &stubScraper{outcome: okOutcome(309.99)}
	tracker, clock := newTestTracker(t, ps)
	ctx := context.Background()
	url := "https://www.ebay.com/itm/555"

	tracker.GetCurrentPrice(ctx, url, nil)

	recs, err := tracker.records.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.URL != url || rec.Price != 309.99 || rec.Source != models.SourceScraped || rec.Confidence != 85 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.RecordedAt != clock.now.Format(time.RFC3339) {
		t.Fatalf("RecordedAt = %s", rec.RecordedAt)
	}
}

func seedRecords(t *testing.T, tracker *Tracker, recs ...models.PriceRecord) {
	t.Helper()
	for _, rec := range recs {
		if err := tracker.records.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
}

func record(url string, price float64, at time.Time) models.PriceRecord {
	return models.PriceRecord{
		URL:        url,
		Title:      "Some Product",
		Price:      price,
		Source:     models.SourceScraped,
		Confidence: 85,
		RecordedAt: at.UTC().Format(time.RFC3339),
	}
}

func TestTracker_GetPriceHistory(t *testing.T) {
	t.Parallel()

	tracker, clock := newTestTracker(t, &stubScraper{outcome: okOutcome(1)})
	now := clock.now
	a := "https://www.amazon.com/dp/A"
	b := "https://www.amazon.com/dp/B"

	seedRecords(t, tracker,
		record(a, 10, now.Add(-40*24*time.Hour)),
		record(a, 11, now.Add(-3*24*time.Hour)),
		record(b, 99, now.Add(-1*time.Hour)),
		record(a, 12, now.Add(-1*24*time.Hour)),
		models.PriceRecord{URL: a, Price: 13, RecordedAt: "yesterday"},
	)

	history, err := tracker.GetPriceHistory(context.Background(), a, 30)
	if err != nil {
		t.Fatalf("GetPriceHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(history), history)
	}
	if history[0].Price != 12 || history[1].Price != 11 {
		t.Fatalf("history not newest first: %+v", history)
	}
}

func TestTracker_GetAllProducts(t *testing.T) {
	t.Parallel()

	tracker, clock := newTestTracker(t, &stubScraper{outcome: okOutcome(1)})
	now := clock.now
	a := "https://www.amazon.com/dp/A"
	b := "https://www.ebay.com/itm/B"

	seedRecords(t, tracker,
		record(a, 10, now.Add(-3*time.Hour)),
		record(b, 20, now.Add(-2*time.Hour)),
		record(a, 11, now.Add(-1*time.Hour)),
		record(b, 21, now.Add(-5*time.Hour)),
	)

	products, err := tracker.GetAllProducts(context.Background())
	if err != nil {
		t.Fatalf("GetAllProducts() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].URL != a || products[0].Price != 11 {
		t.Fatalf("products[0] = %+v", products[0])
	}
	if products[1].URL != b || products[1].Price != 20 {
		t.Fatalf("products[1] = %+v", products[1])
	}
}

func TestTracker_DeleteProduct(t *testing.T) {
	t.Parallel()

	tracker, clock := newTestTracker(t, &stubScraper{outcome: okOutcome(1)})
	a := "https://www.amazon.com/dp/A"
	seedRecords(t, tracker, record(a, 10, clock.now), record(a, 11, clock.now))

	got, err := tracker.DeleteProduct(context.Background(), a)
	if err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if !got.Success || got.DeletedCount != 2 {
		t.Fatalf("DeleteProduct() = %+v", got)
	}

	got, err = tracker.DeleteProduct(context.Background(), a)
	if err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if got.Success || got.DeletedCount != 0 {
		t.Fatalf("DeleteProduct() on empty = %+v, want success=false", got)
	}
}

func TestTracker_RefreshAll(t *testing.T) {
	t.Parallel()

	ps := &stubScraper{outcome: okOutcome(50)}
	tracker, clock := newTestTracker(t, ps)
	seedRecords(t, tracker,
		record("https://www.amazon.com/dp/A", 10, clock.now.Add(-time.Hour)),
		record("https://www.ebay.com/itm/B", 20, clock.now.Add(-time.Hour)),
		record("https://www.amazon.com/dp/A", 12, clock.now.Add(-time.Minute)),
	)

	refreshed, err := tracker.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}
	if refreshed != 2 || ps.Calls() != 2 {
		t.Fatalf("refreshed=%d calls=%d, want 2 and 2", refreshed, ps.Calls())
	}
}
