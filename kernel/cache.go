package kernel

import (
	"math"

	"github.com/gogpu/imgproc/internal/cache"
)

// Cache memoizes Gaussian kernels so that re-running a filter chain on
// every video frame does not rebuild identical kernels.
//
// Keys are sigma rounded to 0.01 together with the kernel size; a positive
// sigma never shares a key with sigma 0. The least recently used kernels
// are dropped once the cache is full.
// Cache is safe for concurrent use.
type Cache struct {
	lru *cache.Cache[cacheKey, []float32]
}

type cacheKey struct {
	sigma int
	size  int
}

// NewCache creates a kernel cache holding at most maxLen kernels.
func NewCache(maxLen int) *Cache {
	if maxLen < 2 {
		maxLen = 2
	}
	return &Cache{lru: cache.New[cacheKey, []float32](maxLen)}
}

var defaultCache = NewCache(64)

// CachedGaussian returns Gaussian(sigma, size) from a process-wide cache.
// The returned slice is shared and must not be modified.
func CachedGaussian(sigma float64, size int) []float32 {
	return defaultCache.Gaussian(sigma, size)
}

// Gaussian returns a memoized Gaussian(sigma, size).
// The returned slice is shared and must not be modified.
func (c *Cache) Gaussian(sigma float64, size int) []float32 {
	key := cacheKey{sigma: quantizeSigma(sigma), size: size}
	return c.lru.GetOrCreate(key, func() []float32 {
		return Gaussian(sigma, size)
	})
}

func quantizeSigma(sigma float64) int {
	if sigma <= 0 {
		return 0
	}
	return max(int(math.Round(sigma*100)), 1)
}

// Len returns the number of cached kernels.
func (c *Cache) Len() int { return c.lru.Len() }
