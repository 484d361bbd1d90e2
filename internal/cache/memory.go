package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process store for single-instance deployments and
// tests. Entries expire per call; the janitor sweeps every minute.
type MemoryStore struct {
	inner *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{inner: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, ok := s.inner.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return val.([]byte), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.inner.Set(key, value, ttl)
	return nil
}
