package stats

import (
	"fmt"

	"github.com/hashicorp/golang-lru/simplelru"
)

const defaultCacheSize = 256

// Cache memoizes computed statistics between ingestions. Statistics are
// read-only over the held set, so the cache is purged whenever an ingestion
// commits.
type Cache struct {
	lru *simplelru.LRU
}

func NewCache() (*Cache, error) {
	lru, err := simplelru.NewLRU(defaultCacheSize, nil)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: lru}, nil
}

func (c *Cache) Key(kind string, category string, startEpoch, endEpoch int64) string {
	return fmt.Sprintf("%s/%s/%d/%d", kind, category, startEpoch, endEpoch)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Add(key string, value interface{}) {
	c.lru.Add(key, value)
}

// Purge drops all memoized results.
func (c *Cache) Purge() {
	c.lru.Purge()
}
