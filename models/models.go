package models

import (
	"time"
)

// Retailer identifies the store a product URL belongs to
type Retailer string

const (
	RetailerAmazon  Retailer = "amazon"
	RetailerEbay    Retailer = "ebay"
	RetailerBestBuy Retailer = "bestbuy"
	RetailerUnknown Retailer = "unknown"
)

// DisplayName returns the human-readable store name
func (r Retailer) DisplayName() string {
	switch r {
	case RetailerAmazon:
		return "Amazon"
	case RetailerEbay:
		return "eBay"
	case RetailerBestBuy:
		return "Best Buy"
	default:
		return "Unknown"
	}
}

// Source tags where a price (or the failure to get one) came from
type Source string

const (
	// Scrape outcomes
	SourceScraped      Source = "scraped"
	SourceScrapeFailed Source = "scrape_failed"
	SourceFetchFailed  Source = "fetch_failed"
	SourceScrapeError  Source = "scrape_error"

	// Validation outcomes
	SourceConfirmed     Source = "scraped-and-confirmed"
	SourceHybridAverage Source = "hybrid_average"
	SourceUserCorrected Source = "user_corrected"
	SourceUserOverride  Source = "user_override"
	SourceUserReported  Source = "user_reported"
)

// IsFailure returns true for sources that carry no price
func (s Source) IsFailure() bool {
	return s == SourceScrapeFailed || s == SourceFetchFailed || s == SourceScrapeError
}

// CandidateKind records which selector list produced a candidate
type CandidateKind string

const (
	CandidateSale    CandidateKind = "sale"
	CandidateRegular CandidateKind = "regular"
)

// PriceCandidate is a numeric value pulled from a price element
type PriceCandidate struct {
	Value float64       `json:"value"`
	Kind  CandidateKind `json:"kind"`
}

// FetchResult holds the body of a successful page retrieval
type FetchResult struct {
	Body       string `json:"-"`
	StatusCode int    `json:"status_code"`
	Attempts   int    `json:"attempts"`
}

// ScrapeOutcome is the result of one fetch+parse run
type ScrapeOutcome struct {
	Price          *float64 `json:"price"`
	Title          string   `json:"title,omitempty"`
	Source         Source   `json:"source"`
	Confidence     int      `json:"confidence"`
	Error          string   `json:"error,omitempty"`
	Retailer       Retailer `json:"retailer"`
	CandidateCount int      `json:"candidate_count"`
}

// HasPrice returns true if scraping produced a price
func (o *ScrapeOutcome) HasPrice() bool {
	return o != nil && o.Price != nil
}

// ValidatedOutcome is the final answer handed back to callers
type ValidatedOutcome struct {
	Price        *float64 `json:"price"`
	Title        string   `json:"title"`
	Source       Source   `json:"source"`
	Confidence   int      `json:"confidence"`
	Suggestion   string   `json:"suggestion,omitempty"`
	ScrapedPrice *float64 `json:"scraped_price,omitempty"`
	UserPrice    *float64 `json:"user_price,omitempty"`
	DiffPercent  *float64 `json:"diff_percent,omitempty"`
	Retailer     Retailer `json:"retailer"`
	Error        string   `json:"error,omitempty"`
}

// HasPrice returns true if the outcome carries a final price
func (v *ValidatedOutcome) HasPrice() bool {
	return v != nil && v.Price != nil
}

// PriceRecord is one persisted price observation
type PriceRecord struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Source     Source  `json:"source"`
	Confidence int     `json:"confidence"`
	RecordedAt string  `json:"recorded_at"`
}

// RecordedTime parses RecordedAt
func (r PriceRecord) RecordedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, r.RecordedAt)
}

// NewPriceRecord builds a record stamped with the given time
func NewPriceRecord(url string, outcome *ValidatedOutcome, at time.Time) PriceRecord {
	rec := PriceRecord{
		URL:        url,
		Title:      outcome.Title,
		Source:     outcome.Source,
		Confidence: outcome.Confidence,
		RecordedAt: at.UTC().Format(time.RFC3339),
	}
	if outcome.Price != nil {
		rec.Price = *outcome.Price
	}
	return rec
}

// CacheEntry is a memoized pipeline result
type CacheEntry struct {
	Value     *ValidatedOutcome
	ExpiresAt time.Time
}

// Expired reports whether the entry is stale at now
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// DeleteResult reports how many records were removed for a URL
type DeleteResult struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deleted_count"`
	URL          string `json:"url"`
}

// CheckPriceRequest is the body of a price check call
type CheckPriceRequest struct {
	URL       string   `json:"url"`
	UserPrice *float64 `json:"user_price,omitempty"`
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
