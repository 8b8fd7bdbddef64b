// Package scrape provides page fetching and HTML extraction shared by the
// flight and hotel searchers.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"traveld/internal/config"
)

// Fetcher retrieves the HTML document behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages with a plain HTTP client. Google serves a
// server-rendered document to non-JS clients, which is enough for the
// fallback fetch mode.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewHTTPFetcher builds a fetcher from the scraper config.
func NewHTTPFetcher(cfg config.ScraperConfig) *HTTPFetcher {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 4 << 20
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.HTTPTimeoutDuration()},
		userAgent: cfg.UserAgent,
		maxBody:   maxBody,
	}
}

// Fetch performs a GET and returns the body as a string.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", err
	}

	return string(body), nil
}
