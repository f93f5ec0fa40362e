// Package httputil fetches remote mesh documents.
//
// [Fetcher] downloads a URL with retry and caches the body in a
// [cache.Cache], so repeated analyses of the same remote mesh do not hit
// the network:
//
//	f := httputil.NewFetcher(c, httputil.DefaultTTL)
//	m, err := f.Mesh(ctx, "https://example.com/coarse.json")
//
// Network failures, 5xx responses and 429 rate limits are retried with
// exponential backoff. Other error statuses fail at once: 404 as a
// NOT_FOUND error, the rest as INVALID_INPUT.
package httputil
