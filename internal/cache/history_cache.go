package cache

import (
	"github.com/coocood/freecache"
)

var _ Cache = (*HistoryCache)(nil)

// HistoryCache holds rendered history chart responses for a short while.
// The charts page polls the same ranges over and over, and the underlying
// aggregation query is the most expensive one we run.
type HistoryCache struct {
	mainCache *freecache.Cache
}

func NewHistoryCache() *HistoryCache {
	return &HistoryCache{
		// 10 MB, plenty for a few hundred rendered chart responses
		mainCache: freecache.NewCache(10 * 1024 * 1024),
	}
}

func (hc *HistoryCache) Get(key []byte) ([]byte, bool) {
	val, err := hc.mainCache.Get(key)
	if err != nil {
		return nil, false
	}
	return val, true
}

func (hc *HistoryCache) Set(key, value []byte, ttlSeconds int) bool {
	return hc.mainCache.Set(key, value, ttlSeconds) == nil
}

func (hc *HistoryCache) Clear() {
	hc.mainCache.Clear()
}
