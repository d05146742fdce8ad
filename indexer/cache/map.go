package cache

import (
	"encoding/json"
	"sort"
	"sync"
)

// Map provides a type-safe in-memory key-value store that persists as a JSON object
type Map[K comparable, V any] struct {
	data map[K]*V
	sync.RWMutex
}

// NewMap creates a new type-safe cache instance
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		data: make(map[K]*V),
	}
}

// Get retrieves a value by key, with existence check
func (c *Map[K, V]) Get(key K) (*V, bool) {
	c.RLock()
	defer c.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores a value with the given key
func (c *Map[K, V]) Set(key K, value *V) {
	c.Lock()
	defer c.Unlock()
	c.data[key] = value
}

// Delete removes a key-value pair
func (c *Map[K, V]) Delete(key K) {
	c.Lock()
	defer c.Unlock()
	delete(c.data, key)
}

// Data returns all cache data as indented JSON
func (c *Map[K, V]) Data() ([]byte, error) {
	c.RLock()
	defer c.RUnlock()
	return json.MarshalIndent(c.data, "", "  ")
}

// Load replaces cache content with the supplied JSON object
func (c *Map[K, V]) Load(data []byte) error {
	loaded := make(map[K]*V)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()
	c.data = loaded
	return nil
}

// Keys returns all keys in the cache
func (c *Map[K, V]) Keys() []K {
	c.RLock()
	defer c.RUnlock()
	keys := make([]K, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Values returns all values ordered by the supplied less function
func (c *Map[K, V]) Values(less func(a, b *V) bool) []*V {
	c.RLock()
	values := make([]*V, 0, len(c.data))
	for _, v := range c.data {
		values = append(values, v)
	}
	c.RUnlock()
	if less != nil {
		sort.Slice(values, func(i, j int) bool { return less(values[i], values[j]) })
	}
	return values
}

// Find returns the first key/value matching the predicate
func (c *Map[K, V]) Find(match func(key K, value *V) bool) (K, *V, bool) {
	c.RLock()
	defer c.RUnlock()
	for k, v := range c.data {
		if match(k, v) {
			return k, v, true
		}
	}
	var zero K
	return zero, nil, false
}

// Has checks if a key exists in the cache
func (c *Map[K, V]) Has(key K) bool {
	c.RLock()
	defer c.RUnlock()
	_, ok := c.data[key]
	return ok
}

// Size returns the number of items in the cache
func (c *Map[K, V]) Size() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.data)
}

// Clear empties the cache
func (c *Map[K, V]) Clear() {
	c.Lock()
	defer c.Unlock()
	c.data = make(map[K]*V)
}
