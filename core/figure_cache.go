package core

import (
	"sync"

	"github.com/golang/snappy"
)

// figureCacheMax matches the number of distinct figure variants worth keeping
// around; beyond that the oldest entry is dropped.
const figureCacheMax = 32

// figureCache keeps rendered figure JSON snappy-compressed. Figures embed the
// full GeoJSON, so entries run to megabytes uncompressed.
type figureCache struct {
	mu      sync.Mutex
	max     int
	entries map[string][]byte
	order   []string
}

func newFigureCache(max int) *figureCache {
	if max <= 0 {
		max = figureCacheMax
	}
	return &figureCache{
		max:     max,
		entries: make(map[string][]byte),
	}
}

func (c *figureCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	compressed, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		Errorf("figure cache entry %s is corrupt: %v", key, err)
		c.Delete(key)
		return nil, false
	}
	return raw, true
}

func (c *figureCache) Put(key string, raw []byte) {
	compressed := snappy.Encode(nil, raw)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = compressed
	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *figureCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *figureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush clears the cache, used after a data ingest.
func (c *figureCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.order = nil
}
