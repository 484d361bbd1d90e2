package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a key/value store with per-entry expiry. Both query caches (plan
// and response) share one Store under distinct key prefixes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const (
	planPrefix     = "api_plan"
	responsePrefix = "query_response"
)

// Key builds a cache key from a prefix and a query. The query text is
// case-folded and whitespace-collapsed first, so queries differing only in
// case or spacing share an entry.
func Key(prefix, query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := md5.Sum([]byte(normalized))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// PlanKey returns the plan-cache key for a query.
func PlanKey(query string) string { return Key(planPrefix, query) }

// ResponseKey returns the response-cache key for a query.
func ResponseKey(query string) string { return Key(responsePrefix, query) }

// Noop discards writes and misses every read. Used when caching is disabled
// or the backing store is unreachable; callers never need to branch.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) { return nil, ErrMiss }

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
