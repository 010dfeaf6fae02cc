package cache

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// The cache holds computed objects that are expensive to rebuild and
// immutable once built, such as value tables. Everything lives in memory.

type Cache[K comparable, V any] struct {
	sync.Mutex
	name    string
	objects map[K]V
	load    func(key K) (V, error)
}

func New[K comparable, V any](name string, load func(key K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{name: name, objects: make(map[K]V), load: load}
}

// Get returns the object for key, loading it on first use. Failed loads are
// not cached.
func (c *Cache[K, V]) Get(key K) (V, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("cache", c.name).Interface("key", key).Msg("getting obj from cache")
		return obj, nil
	}
	log.Debug().Str("cache", c.name).Interface("key", key).Msg("loading into cache")
	obj, err := c.load(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.objects[key] = obj
	return obj, nil
}

func (c *Cache[K, V]) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.objects)
}

// Clear drops every cached object.
func (c *Cache[K, V]) Clear() {
	c.Lock()
	defer c.Unlock()
	c.objects = make(map[K]V)
}
