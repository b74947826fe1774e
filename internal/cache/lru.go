// Package cache provides the extraction caches: a bounded in-process LRU and a shared Redis store.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/spigell/soto-lp/internal/domain"
)

const DefaultSize = 1024

// LRU keeps the most recently used extractions in memory.
type LRU struct {
	cache *lru.Cache[string, domain.StructuredJob]
}

// NewLRU creates a cache holding at most size entries. A non-positive size uses DefaultSize.
func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, domain.StructuredJob](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRU{cache: c}, nil
}

func (c *LRU) Get(_ context.Context, key string) (domain.StructuredJob, bool) {
	job, ok := c.cache.Get(key)
	if !ok {
		return domain.StructuredJob{}, false
	}
	return job.Clone(), true
}

// Add stores job unless key is already present.
func (c *LRU) Add(_ context.Context, key string, job domain.StructuredJob) {
	c.cache.ContainsOrAdd(key, job.Clone())
}

func (c *LRU) Len() int {
	return c.cache.Len()
}
