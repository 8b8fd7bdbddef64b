package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// blockedFetcher refuses requests to listed domains before they reach
// the wrapped fetcher.
type blockedFetcher struct {
	next    Fetcher
	domains []string
}

// NewBlockedFetcher wraps next with a domain blocklist. A listed domain
// blocks itself and every subdomain. With nothing to block, next is
// returned unchanged.
func NewBlockedFetcher(next Fetcher, domains []string) Fetcher {
	norm := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			norm = append(norm, d)
		}
	}
	if len(norm) == 0 {
		return next
	}
	return &blockedFetcher{next: next, domains: norm}
}

func (f *blockedFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range f.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return "", fmt.Errorf("domain %q is blocked", host)
		}
	}
	return f.next.Fetch(ctx, rawURL)
}
