package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StepStore persists step outputs so a resumed run can replay completed
// steps instead of re-executing them. Each (runID, step) pair is written
// exactly once.
type StepStore interface {
	Get(ctx context.Context, runID, step string) (json.RawMessage, bool, error)
	Put(ctx context.Context, runID, step string, payload json.RawMessage) error
}

// RedisStepStore keeps the step log in redis under wf:{runID}:{step}.
type RedisStepStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedisStepStore(c *redis.Client, ttl time.Duration) *RedisStepStore {
	return &RedisStepStore{c: c, ttl: ttl}
}

func (s *RedisStepStore) key(runID, step string) string {
	return fmt.Sprintf("wf:%s:%s", runID, step)
}

func (s *RedisStepStore) Get(ctx context.Context, runID, step string) (json.RawMessage, bool, error) {
	v, err := s.c.Get(ctx, s.key(runID, step)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *RedisStepStore) Put(ctx context.Context, runID, step string, payload json.RawMessage) error {
	return s.c.Set(ctx, s.key(runID, step), []byte(payload), s.ttl).Err()
}

// MemoryStepStore is an in-process step log for tests and cache-less
// deployments. Resumption then only covers retries within the process
// lifetime.
type MemoryStepStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

func NewMemoryStepStore() *MemoryStepStore {
	return &MemoryStepStore{data: make(map[string]json.RawMessage)}
}

func (s *MemoryStepStore) Get(_ context.Context, runID, step string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[runID+"/"+step]
	return v, ok, nil
}

func (s *MemoryStepStore) Put(_ context.Context, runID, step string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID+"/"+step] = payload
	return nil
}
