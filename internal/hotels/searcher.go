package hotels

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

const cacheKind = "hotels"

// Searcher runs hotel searches in any fetch mode.
type Searcher struct {
	live   scrape.Fetcher
	cache  Cache
	logger *zap.Logger
}

// NewSearcher wires the live fetcher. live may be nil when no browser is
// configured, in which case only local mode works; cache may be nil.
func NewSearcher(live scrape.Fetcher, cache Cache, logger *zap.Logger) *Searcher {
	return &Searcher{live: live, cache: cache, logger: logger}
}

// Search validates the request and returns matching hotels.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*Result, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.FetchMode == ModeLocal {
		res, err := localHotels(req)
		if err != nil {
			return nil, err
		}
		res.Finalize(req.Limit)
		return res, nil
	}

	if s.live == nil {
		return nil, fmt.Errorf("live fetch mode requires a browser")
	}

	key := requestKey(req)
	if s.cache != nil {
		if payload, ok, err := s.cache.Get(ctx, cacheKind, key); err != nil {
			s.logger.Warn("hotel cache read failed", zap.Error(err))
		} else if ok {
			var res Result
			if err := json.Unmarshal(payload, &res); err == nil {
				return &res, nil
			}
		}
	}

	url := SearchURL(req)
	if req.Debug {
		s.logger.Info("hotel search url", zap.String("url", url))
	}

	doc, err := s.live.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch hotels: %w", err)
	}

	res, err := ParsePage(doc)
	if err != nil {
		return nil, err
	}
	res.Finalize(req.Limit)

	if s.cache != nil {
		if payload, err := json.Marshal(res); err == nil {
			if err := s.cache.Put(ctx, cacheKind, key, payload); err != nil {
				s.logger.Warn("hotel cache write failed", zap.Error(err))
			}
		}
	}

	return res, nil
}

func requestKey(req SearchRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
