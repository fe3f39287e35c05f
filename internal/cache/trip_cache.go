package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TripCache is the durable key-value store holding finished itineraries
// keyed by trip id. The workflow writes each trip exactly once; polling
// clients read until the entry appears.
type TripCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
}

type RedisTripCache struct {
	c *redis.Client
}

func NewRedisTripCache(c *redis.Client) *RedisTripCache {
	return &RedisTripCache{c: c}
}

func (r *RedisTripCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(v, dst)
}

func (r *RedisTripCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.c.Set(ctx, key, b, time.Duration(ttlSec)*time.Second).Err()
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryTripCache is an in-process TripCache for tests.
type MemoryTripCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

func NewMemoryTripCache() *MemoryTripCache {
	return &MemoryTripCache{data: make(map[string]memoryEntry)}
}

func (m *MemoryTripCache) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[key]
	if !ok || time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, json.Unmarshal(e.payload, dst)
}

func (m *MemoryTripCache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryEntry{payload: b, expiresAt: time.Now().Add(time.Duration(ttlSec) * time.Second)}
	return nil
}
