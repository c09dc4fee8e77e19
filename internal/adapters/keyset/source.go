package keyset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chatgrid/realtime-api/internal/ports"
)

// Source provides the current KeySet for a trust domain. How often the
// remote endpoint is actually hit depends on the configured Policy; call
// sites never change when the policy does.
type Source interface {
	Keys(ctx context.Context) (KeySet, error)
}

// Policy selects the caching behavior of a Source.
type Policy string

const (
	// PolicyNone re-fetches the key set on every call. This is the visitor
	// trust domain's historical behavior: always the freshest keys at the
	// cost of a fetch per verification.
	PolicyNone Policy = "none"
	// PolicyMemoize fetches once per process and reuses the result.
	PolicyMemoize Policy = "memoize"
	// PolicyTTL caches the raw document in a CacheRepository for a bounded time.
	PolicyTTL Policy = "ttl"
)

// UnmarshalText implements encoding.TextUnmarshaler for Policy.
func (p *Policy) UnmarshalText(text []byte) error {
	switch v := Policy(text); v {
	case PolicyNone, PolicyMemoize, PolicyTTL:
		*p = v
		return nil
	default:
		return fmt.Errorf("invalid key cache policy: %q (valid options: none, memoize, ttl)", text)
	}
}

// SourceConfig groups parameters for NewSource.
type SourceConfig struct {
	URL    string
	Policy Policy
	// HTTPClient is optional and defaults to http.DefaultClient. No request
	// deadline is imposed here; a slow key endpoint stalls only the caller
	// currently verifying.
	HTTPClient *http.Client
	// Cache and TTL are required for PolicyTTL, ignored otherwise.
	Cache ports.CacheRepository
	TTL   time.Duration
}

// NewSource builds a Source for the given endpoint and cache policy.
func NewSource(cfg SourceConfig) (Source, error) {
	if cfg.URL == "" {
		return nil, errors.New("key set URL is required")
	}

	fetcher := &httpSource{url: cfg.URL, client: cfg.HTTPClient}
	if fetcher.client == nil {
		fetcher.client = http.DefaultClient
	}

	switch cfg.Policy {
	case PolicyNone, "":
		return fetcher, nil
	case PolicyMemoize:
		return &memoSource{next: fetcher}, nil
	case PolicyTTL:
		if cfg.Cache == nil {
			return nil, errors.New("cache repository is required for ttl policy")
		}
		if cfg.TTL <= 0 {
			return nil, errors.New("positive TTL is required for ttl policy")
		}
		return &ttlSource{next: fetcher, cache: cfg.Cache, ttl: cfg.TTL}, nil
	default:
		return nil, fmt.Errorf("invalid key cache policy: %q", cfg.Policy)
	}
}

// httpSource fetches and parses the document on every call.
type httpSource struct {
	url    string
	client *http.Client
}

func (s *httpSource) Keys(ctx context.Context) (KeySet, error) {
	raw, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func (s *httpSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build key set request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key set: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read key set response: %w", err)
	}
	return raw, nil
}

// memoSource resolves the key set once per process. Concurrent first calls
// are collapsed into a single fetch; a failed fetch is not memoized so the
// next call retries.
type memoSource struct {
	next Source

	group  singleflight.Group
	mu     sync.RWMutex
	cached KeySet
}

func (s *memoSource) Keys(ctx context.Context) (KeySet, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.group.Do("keys", func() (any, error) {
		set, fetchErr := s.next.Keys(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		s.mu.Lock()
		s.cached = set
		s.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	set, ok := v.(KeySet)
	if !ok {
		return nil, errors.New("unexpected key set type")
	}
	return set, nil
}

// ttlSource caches the raw document in an external cache for a bounded time.
type ttlSource struct {
	next  *httpSource
	cache ports.CacheRepository
	ttl   time.Duration
}

func (s *ttlSource) cacheKey() string { return "keyset:" + s.next.url }

func (s *ttlSource) Keys(ctx context.Context) (KeySet, error) {
	if raw, err := s.cache.Get(ctx, s.cacheKey()); err == nil && len(raw) > 0 {
		if set, parseErr := Parse(raw); parseErr == nil {
			return set, nil
		}
		// A corrupt cached document falls through to a fresh fetch.
	}

	raw, err := s.next.fetch(ctx)
	if err != nil {
		return nil, err
	}
	set, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	// Best effort: a cache write failure must not fail a successful fetch.
	_ = s.cache.Set(ctx, s.cacheKey(), raw, s.ttl)
	return set, nil
}
