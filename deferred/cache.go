package deferred

import (
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
)

// CachingBackend wraps a Backend and memoizes the executables it returns,
// keyed by the fingerprint of the source. A cached executable is only used if
// its source is exactly the requested one. Compilation errors are not cached.
type CachingBackend struct {
	backend Backend
	cache   *ristretto.Cache[uint64, *cacheEntry]

	hits, misses atomic.Uint64
}

type cacheEntry struct {
	source string
	exec   Executable
}

// NewCachingBackend returns a CachingBackend that holds at most size
// executables compiled by b.
func NewCachingBackend(b Backend, size int) (*CachingBackend, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid cache size: %d", size)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, *cacheEntry]{
		NumCounters: int64(size) * 10,
		MaxCost:     int64(size),
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachingBackend{backend: b, cache: cache}, nil
}

// Compile returns the cached executable for source if there is one, otherwise
// it compiles it with the wrapped backend and caches the result.
func (b *CachingBackend) Compile(source string) (Executable, error) {
	key := Fingerprint(source)
	if e, ok := b.cache.Get(key); ok && e.source == source {
		b.hits.Add(1)
		return e.exec, nil
	}
	b.misses.Add(1)

	exec, err := b.backend.Compile(source)
	if err != nil {
		return nil, err
	}
	b.cache.Set(key, &cacheEntry{source: source, exec: exec}, 1)
	return exec, nil
}

// Stats returns the number of cache hits and misses.
func (b *CachingBackend) Stats() (hits, misses uint64) {
	return b.hits.Load(), b.misses.Load()
}

// Wait blocks until all pending cache writes are applied.
func (b *CachingBackend) Wait() { b.cache.Wait() }

// Close releases the resources of the cache.
func (b *CachingBackend) Close() { b.cache.Close() }

// Fingerprint returns the hash that identifies a source.
func Fingerprint(source string) uint64 {
	return xxhash.Sum64String(source)
}
