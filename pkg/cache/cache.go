// Package cache stores intermediate kagome results by content hash.
//
// Converting a coarse mesh, tracing its polyedges and rendering strand
// graphs are deterministic, so their outputs can be keyed by a hash of the
// inputs and reused across runs. The [Cache] interface has three backends:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP service
//   - [NullCache]: disables caching
//
// Keys come from a [Keyer]; [ScopedKeyer] adds a namespace prefix so several
// tenants or environments can share a backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored data and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default lifetimes per entry kind.
const (
	MeshTTL     = 7 * 24 * time.Hour
	PolyedgeTTL = 30 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)
