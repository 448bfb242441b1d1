package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	value     V
	expiredAt time.Time
}

// TTLCache 带过期时间的 LRU 缓存，容量满时淘汰最久未用的条目
type TTLCache[K comparable, V any] struct {
	storage *lru.Cache[K, cacheItem[V]]
	ttl     time.Duration
	now     func() time.Time
}

// NewTTLCache size 是最大条数，ttl 是单条有效期
func NewTTLCache[K comparable, V any](size int, ttl time.Duration) *TTLCache[K, V] {
	if size <= 0 {
		size = 1
	}
	// lru.Cache 自带锁
	c, _ := lru.New[K, cacheItem[V]](size)
	return &TTLCache[K, V]{
		storage: c,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.storage.Add(key, cacheItem[V]{
		value:     value,
		expiredAt: c.now().Add(c.ttl),
	})
}

// Get 取值，过期条目顺手删除
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(item.expiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.value, true
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.storage.Remove(key)
}

func (c *TTLCache[K, V]) Clear() {
	c.storage.Purge()
}

func (c *TTLCache[K, V]) Len() int {
	return c.storage.Len()
}
