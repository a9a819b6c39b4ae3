package ica

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

const (
	maxAttempts  = 3
	maxBodyBytes = 8 << 20

	defaultUserAgent = "Mozilla/5.0 (compatible; HelloPoor/1.0)"
)

// ClientConfig holds configuration for the offer page client
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Client fetches store offer pages and turns them into candidate blocks
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	debug       bool
}

// NewClient creates a new offer page client
func NewClient(config ClientConfig) *Client {
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 3
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		backoff:     exponentialBackoff,
	}
}

// SetDebug enables or disables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...any) {
	if c.debug {
		log.Printf("[ICA] "+format, args...)
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return 500 * time.Millisecond << (attempt - 1)
}

// OfferURL returns the offer page address of a store
func (c *Client) OfferURL(storeID string) string {
	return fmt.Sprintf("%s/erbjudanden/%s/", c.baseURL, url.PathEscape(storeID))
}

// doRequest executes an HTTP GET request with browser-like headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}

	return resp, nil
}

// FetchOffers downloads a store's offer page and discovers its candidate blocks
func (c *Client) FetchOffers(ctx context.Context, storeID string) (*domain.OfferPage, error) {
	body, err := c.fetchPage(ctx, c.OfferURL(storeID))
	if err != nil {
		return nil, err
	}

	page, err := ParseOfferPage(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	page.StoreID = storeID

	log.Printf("[ICA] Store %s: %d candidate blocks", storeID, len(page.Candidates))
	return page, nil
}

// fetchPage GETs a page through the rate limiter, retrying transport errors,
// 429 and 5xx responses
func (c *Client) fetchPage(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		c.debugLog("GET %s (attempt %d)", reqURL, attempt)
		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Printf("[ICA] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}

		body, err := readBody(resp)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, reqURL)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			log.Printf("[ICA] Server error (attempt %d) - Status: %d", attempt, resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFetchFailure, resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: status %d", domain.ErrFetchFailure, resp.StatusCode)
		}

		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", domain.ErrFetchFailure, err)
		}
		c.debugLog("Read %d bytes from %s", len(body), reqURL)
		return body, nil
	}

	log.Printf("[ICA] All retries failed for %s", reqURL)
	return nil, lastErr
}

// readBody reads a response body, decoding gzip and brotli content encodings
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	return readLimitedBody(reader, maxBodyBytes)
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
