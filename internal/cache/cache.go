package cache

type Cache interface {
	Get(key []byte) ([]byte, bool)
	Set(key, value []byte, ttlSeconds int) bool
	Clear()
}
