package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

type shard struct {
	mu sync.Mutex
	m  map[string]Window
}

// MemoryStore is a process-local Store. Keys are spread over shards so
// concurrent requests for different clients rarely share a lock.
type MemoryStore struct {
	shards [shardCount]shard
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].m = make(map[string]Window)
	}
	return s
}

func (s *MemoryStore) shard(key string) *shard {
	return &s.shards[xxhash.Sum64String(key)%shardCount]
}

// Hit implements Store
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.m[key]
	if !ok || !now.Before(w.ResetAt) {
		w = Window{ResetAt: now.Add(window)}
	}
	w.Count++
	sh.m[key] = w
	return w, nil
}

// Sweep drops windows that expired at or before now and reports how many
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, w := range sh.m {
			if !now.Before(w.ResetAt) {
				delete(sh.m, k)
				n++
			}
		}
		sh.mu.Unlock()
	}
	return n, nil
}

// Len is the number of tracked windows
func (s *MemoryStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.m)
		sh.mu.Unlock()
	}
	return n
}
