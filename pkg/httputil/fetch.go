package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/kagome/pkg/buildinfo"
	"github.com/matzehuels/kagome/pkg/cache"
	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/mesh"
)

const (
	// DefaultTTL is how long fetched documents stay cached.
	DefaultTTL = 24 * time.Hour

	// MaxBodyBytes caps a downloaded document.
	MaxBodyBytes = 64 << 20

	requestTimeout = 30 * time.Second
)

// Fetcher downloads documents over HTTP(S).
type Fetcher struct {
	client *http.Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewFetcher returns a fetcher caching bodies in c for ttl. A nil cache
// disables caching.
func NewFetcher(c cache.Cache, ttl time.Duration) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Fetcher{
		client: &http.Client{Timeout: requestTimeout},
		cache:  c,
		ttl:    ttl,
	}
}

// IsURL reports whether s names an HTTP(S) resource rather than a file.
func IsURL(s string) bool {
	return errors.ValidateURL(s, "http", "https") == nil
}

// Get returns the body at rawURL and whether it came from the cache.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	if err := errors.ValidateURL(rawURL, "http", "https"); err != nil {
		return nil, false, err
	}
	key := "url:" + cache.Hash([]byte(rawURL))
	if data, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = f.fetch(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	// A failed write only costs a refetch.
	_ = f.cache.Set(ctx, key, body, f.ttl)
	return body, false, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad url")
	}
	req.Header.Set("User-Agent", "kagome/"+buildinfo.Version)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("get %s: %w", rawURL, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "%s: not found", rawURL)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("get %s: %s", rawURL, resp.Status))
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "get %s: %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("read %s: %w", rawURL, err))
	}
	if len(body) > MaxBodyBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: document larger than %d bytes", rawURL, MaxBodyBytes)
	}
	return body, nil
}

// Mesh fetches and decodes a mesh document.
func (f *Fetcher) Mesh(ctx context.Context, rawURL string) (*mesh.Mesh, error) {
	data, _, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return mesh.UnmarshalMesh(data)
}
