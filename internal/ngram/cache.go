package ngram

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache builds at most one Model per n and shares it across solver runs.
//
// Thread Safety:
//
//	Cache is safe for concurrent use. Concurrent requests for the same n share one
//	build; built models are never mutated. Failed builds are not cached.
type Cache struct {
	source Source
	mu     sync.RWMutex
	models map[int]*Model
	flight singleflight.Group
}

// NewCache returns an empty cache backed by source.
func NewCache(source Source) *Cache {
	return &Cache{
		source: source,
		models: make(map[int]*Model),
	}
}

// Get returns the model for n, building it on first use.
func (c *Cache) Get(n int) (*Model, error) {
	c.mu.RLock()
	m, ok := c.models[n]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err, _ := c.flight.Do(strconv.Itoa(n), func() (interface{}, error) {
		c.mu.RLock()
		existing, ok := c.models[n]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}
		start := time.Now()
		built, err := Build(n, c.source)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.models[n] = built
		c.mu.Unlock()
		slog.Debug("built n-gram model", "n", n, "patterns", len(built.Scores), "elapsed", time.Since(start))
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// Rate scores text with the model for n.
func (c *Cache) Rate(text string, n int) (float64, error) {
	m, err := c.Get(n)
	if err != nil {
		return 0, err
	}
	return m.Rate(text), nil
}
