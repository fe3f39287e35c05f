package geo

import (
	"strings"
	"sync"

	"tripweaver/internal/models/trip_models"
)

// CoordsCache memoizes resolved coordinates by query string. Injected into
// the geocoder rather than living as a package-level singleton so tests
// and per-trip isolation stay cheap.
type CoordsCache interface {
	Get(key string) (trip_models.Coordinates, bool)
	Put(key string, coords trip_models.Coordinates)
}

type MemoryCoordsCache struct {
	mu   sync.RWMutex
	data map[string]trip_models.Coordinates
}

func NewMemoryCoordsCache() *MemoryCoordsCache {
	return &MemoryCoordsCache{data: make(map[string]trip_models.Coordinates)}
}

func (c *MemoryCoordsCache) Get(key string) (trip_models.Coordinates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coords, ok := c.data[strings.ToLower(key)]
	return coords, ok
}

func (c *MemoryCoordsCache) Put(key string, coords trip_models.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[strings.ToLower(key)] = coords
}
