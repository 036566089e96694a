package scraper

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"pricewatch/models"

	"github.com/go-resty/resty/v2"
)

// ErrFetchFailed means the page could not be retrieved: network failure,
// a non-200 status, or retries exhausted
var ErrFetchFailed = errors.New("fetch failed")

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FetchOptions configures timeouts and retry behavior
type FetchOptions struct {
	Timeout             time.Duration // Per-request timeout
	MaxTimeoutRetries   int           // Retries after a read/connect timeout
	TimeoutRetryDelay   time.Duration
	MaxRateLimitRetries int // Retries after HTTP 429
	RateLimitRetryDelay time.Duration
	MaxRedirects        int
	InsecureSkipVerify  bool // Skip TLS certificate checks
}

// DefaultFetchOptions returns default fetch options
func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		Timeout:             10 * time.Second,
		MaxTimeoutRetries:   2,
		TimeoutRetryDelay:   1 * time.Second,
		MaxRateLimitRetries: 2,
		RateLimitRetryDelay: 2 * time.Second,
		MaxRedirects:        10,
		InsecureSkipVerify:  false,
	}
}

// retryDecision says whether a finished attempt should be repeated
type retryDecision int

const (
	retryNone retryDecision = iota
	retryTimeout
	retryRateLimited
)

func (d retryDecision) String() string {
	switch d {
	case retryTimeout:
		return "timeout"
	case retryRateLimited:
		return "rate limited"
	default:
		return "none"
	}
}

// Fetcher retrieves product pages with browser-like headers
type Fetcher struct {
	client  *resty.Client
	options *FetchOptions
	sink    LogSink
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher. A nil options value uses the defaults.
func NewFetcher(options *FetchOptions, sink LogSink) *Fetcher {
	if options == nil {
		options = DefaultFetchOptions()
	}

	client := resty.New()
	client.SetTimeout(options.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(options.MaxRedirects))
	client.SetTLSClientConfig(&tls.Config{
		MinVersion:         tls.VersionTLS12,
		MaxVersion:         tls.VersionTLS12,
		InsecureSkipVerify: options.InsecureSkipVerify, //nolint:gosec // opt-in via config
	})

	if options.InsecureSkipVerify {
		emitf(sink, "⚠️  TLS certificate verification is disabled for page fetches")
	}

	return &Fetcher{
		client:  client,
		options: options,
		sink:    sink,
		sleep:   sleepContext,
	}
}

// BrowserHeaders returns the header set sent to a retailer. Amazon gets the
// full navigation header block, everyone else a reduced set.
func BrowserHeaders(retailer models.Retailer) map[string]string {
	headers := map[string]string{
		"User-Agent":      browserUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Connection":      "keep-alive",
	}

	if retailer == models.RetailerAmazon {
		headers["DNT"] = "1"
		headers["Upgrade-Insecure-Requests"] = "1"
		headers["Sec-Fetch-Dest"] = "document"
		headers["Sec-Fetch-Mode"] = "navigate"
		headers["Sec-Fetch-Site"] = "none"
		headers["Sec-Fetch-User"] = "?1"
		headers["Cache-Control"] = "max-age=0"
	}

	return headers
}

// Fetch performs a GET with bounded retries. A nil error always comes with a
// 200 body; every retrieval failure wraps ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, retailer models.Retailer) (*models.FetchResult, error) {
	headers := BrowserHeaders(retailer)
	timeoutRetries := 0
	rateLimitRetries := 0

	for attempt := 1; ; attempt++ {
		emitf(f.sink, "🌐 Fetch attempt %d for %s", attempt, rawURL)

		resp, err := f.client.R().
			SetContext(ctx).
			SetHeaders(headers).
			Get(rawURL)

		status := 0
		if err == nil && resp != nil {
			status = resp.StatusCode()
		}

		decision := classifyAttempt(ctx, err, status)
		var delay time.Duration
		switch decision {
		case retryTimeout:
			if timeoutRetries >= f.options.MaxTimeoutRetries {
				emitf(f.sink, "❌ Fetch timed out after %d attempts", attempt)
				return nil, fmt.Errorf("%w: timed out after %d attempts: %v", ErrFetchFailed, attempt, err)
			}
			timeoutRetries++
			delay = f.options.TimeoutRetryDelay
		case retryRateLimited:
			if rateLimitRetries >= f.options.MaxRateLimitRetries {
				emitf(f.sink, "❌ Still rate limited after %d attempts", attempt)
				return nil, fmt.Errorf("%w: HTTP 429 after %d attempts", ErrFetchFailed, attempt)
			}
			rateLimitRetries++
			delay = f.options.RateLimitRetryDelay
		default:
			if err != nil {
				emitf(f.sink, "❌ Fetch error: %v", err)
				return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
			}
			if status != http.StatusOK {
				emitf(f.sink, "❌ Fetch returned HTTP %d", status)
				return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, status)
			}
			body := resp.String()
			emitf(f.sink, "✅ Fetched %d bytes (HTTP %d)", len(body), status)
			return &models.FetchResult{Body: body, StatusCode: status, Attempts: attempt}, nil
		}

		emitf(f.sink, "🔄 Attempt %d %s, retrying in %v", attempt, decision, delay)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
	}
}

// classifyAttempt decides whether an attempt is worth repeating
func classifyAttempt(ctx context.Context, err error, status int) retryDecision {
	if err != nil {
		// The caller's own deadline is final
		if ctx.Err() != nil {
			return retryNone
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return retryTimeout
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return retryTimeout
		}
		return retryNone
	}
	if status == http.StatusTooManyRequests {
		return retryRateLimited
	}
	return retryNone
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
