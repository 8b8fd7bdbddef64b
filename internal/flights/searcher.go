package flights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"traveld/internal/scrape"
)

// Cache stores serialized search results keyed by request.
type Cache interface {
	Get(ctx context.Context, kind, key string) ([]byte, bool, error)
	Put(ctx context.Context, kind, key string, payload []byte) error
}

const cacheKind = "flights"

// Searcher runs flight searches in any fetch mode.
type Searcher struct {
	fallback scrape.Fetcher
	live     scrape.Fetcher
	cache    Cache
	logger   *zap.Logger
}

// NewSearcher wires the fetchers. live may be nil when no browser is
// configured; cache may be nil to disable caching.
func NewSearcher(fallback, live scrape.Fetcher, cache Cache, logger *zap.Logger) *Searcher {
	return &Searcher{fallback: fallback, live: live, cache: cache, logger: logger}
}

// Search validates the request and returns matching flights.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*Result, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.FetchMode == ModeLocal {
		return localFlights(req)
	}

	key := requestKey(req)
	if s.cache != nil {
		if payload, ok, err := s.cache.Get(ctx, cacheKind, key); err != nil {
			s.logger.Warn("flight cache read failed", zap.Error(err))
		} else if ok {
			var res Result
			if err := json.Unmarshal(payload, &res); err == nil {
				return &res, nil
			}
		}
	}

	fetcher := s.fallback
	if req.FetchMode == ModeLive {
		if s.live == nil {
			return nil, fmt.Errorf("live fetch mode requires a browser")
		}
		fetcher = s.live
	}

	doc, err := fetcher.Fetch(ctx, SearchURL(req))
	if err != nil {
		return nil, fmt.Errorf("fetch flights: %w", err)
	}

	res, err := ParsePage(doc)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(res); err == nil {
			if err := s.cache.Put(ctx, cacheKind, key, payload); err != nil {
				s.logger.Warn("flight cache write failed", zap.Error(err))
			}
		}
	}

	return res, nil
}

// requestKey derives a deterministic cache key from the normalized
// request. FetchMode is included so live and fallback results do not
// shadow each other.
func requestKey(req SearchRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
