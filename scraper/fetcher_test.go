package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pricewatch/models"
)

// newTestFetcher returns a fetcher that records sleeps instead of sleeping
func newTestFetcher(t *testing.T, timeout time.Duration) (*Fetcher, func() []time.Duration) {
	t.Helper()

	opts := DefaultFetchOptions()
	opts.Timeout = timeout
	f := NewFetcher(opts, nil)

	var mu sync.Mutex
	var slept []time.Duration
	f.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		slept = append(slept, d)
		return nil
	}
	return f, func() []time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return append([]time.Duration(nil), slept...)
	}
}

func TestFetcher_Fetch_returnsBodyOn200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f, slept := newTestFetcher(t, time.Second)
	got, err := f.Fetch(context.Background(), srv.URL, models.RetailerEbay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Body != "<html><body>ok</body></html>" {
		t.Fatalf("Body got %q", got.Body)
	}
	if got.StatusCode != http.StatusOK || got.Attempts != 1 {
		t.Fatalf("got status %d attempts %d, want 200 and 1", got.StatusCode, got.Attempts)
	}
	if len(slept()) != 0 {
		t.Fatalf("expected no sleeps, got %v", slept())
	}
}

func TestFetcher_Fetch_sendsRetailerHeaders(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := map[string]http.Header{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Clone()
		mu.Unlock()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL+"/amazon", models.RetailerAmazon); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/bestbuy", models.RetailerBestBuy); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	amazon := seen["/amazon"]
	if amazon.Get("Sec-Fetch-Mode") != "navigate" || amazon.Get("DNT") != "1" {
		t.Fatalf("amazon request missing extended headers: %v", amazon)
	}
	other := seen["/bestbuy"]
	if other.Get("Sec-Fetch-Mode") != "" || other.Get("DNT") != "" {
		t.Fatalf("bestbuy request should use the reduced header set: %v", other)
	}
	if other.Get("User-Agent") != browserUserAgent {
		t.Fatalf("User-Agent got %q", other.Get("User-Agent"))
	}
}

func TestFetcher_Fetch_retriesRateLimitThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	defer srv.Close()

	f, slept := newTestFetcher(t, time.Second)
	got, err := f.Fetch(context.Background(), srv.URL, models.RetailerEbay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Attempts != 3 || got.Body != "finally" {
		t.Fatalf("got attempts %d body %q", got.Attempts, got.Body)
	}
	want := []time.Duration{2 * time.Second, 2 * time.Second}
	if s := slept(); len(s) != 2 || s[0] != want[0] || s[1] != want[1] {
		t.Fatalf("sleeps got %v, want %v", s, want)
	}
}

func TestFetcher_Fetch_givesUpAfterRateLimitRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, time.Second)
	_, err := f.Fetch(context.Background(), srv.URL, models.RetailerAmazon)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls got %d, want 3", calls.Load())
	}
}

func TestFetcher_Fetch_doesNotRetryOtherStatuses(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f, slept := newTestFetcher(t, time.Second)
	_, err := f.Fetch(context.Background(), srv.URL, models.RetailerBestBuy)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls got %d, want 1", calls.Load())
	}
	if len(slept()) != 0 {
		t.Fatalf("expected no sleeps, got %v", slept())
	}
}

func TestFetcher_Fetch_retriesTimeouts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f, slept := newTestFetcher(t, 50*time.Millisecond)
	_, err := f.Fetch(context.Background(), srv.URL, models.RetailerEbay)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls got %d, want 3", calls.Load())
	}
	want := []time.Duration{time.Second, time.Second}
	if s := slept(); len(s) != 2 || s[0] != want[0] || s[1] != want[1] {
		t.Fatalf("sleeps got %v, want %v", s, want)
	}
}

func TestFetcher_Fetch_connectionFailureIsFetchFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	f, _ := newTestFetcher(t, time.Second)
	_, err := f.Fetch(context.Background(), addr, models.RetailerUnknown)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestClassifyAttempt(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		err    error
		status int
		want   retryDecision
	}{
		{"ok", context.Background(), nil, 200, retryNone},
		{"429", context.Background(), nil, 429, retryRateLimited},
		{"404", context.Background(), nil, 404, retryNone},
		{"deadline", context.Background(), context.DeadlineExceeded, 0, retryTimeout},
		{"caller cancelled", cancelled, context.DeadlineExceeded, 0, retryNone},
		{"other error", context.Background(), errors.New("boom"), 0, retryNone},
	}
	for _, tt := range tests {
		if got := classifyAttempt(tt.ctx, tt.err, tt.status); got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
