package cache

import "sync"

var _ Cache = (*TestCache)(nil)

type TestCache struct {
	cache map[string][]byte
	mutex sync.Mutex
}

func NewTestCache() *TestCache {
	return &TestCache{
		cache: make(map[string][]byte),
	}
}

func (tc *TestCache) Get(key []byte) ([]byte, bool) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if val, ok := tc.cache[string(key)]; ok {
		return val, true
	}
	return nil, false
}

func (tc *TestCache) Set(key, value []byte, ttlSeconds int) bool {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	tc.cache[string(key)] = value
	return true
}

func (tc *TestCache) Clear() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	tc.cache = make(map[string][]byte)
}
