package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUStore is an in-process bounded cache with per-entry TTL. It serves
// as the first tier in front of the shared Redis cache and as the only
// tier when Redis is not configured.
type LRUStore struct {
	lru *expirable.LRU[string, string]
}

func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	if size <= 0 {
		size = 1000
	}
	return &LRUStore{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (s *LRUStore) Get(_ context.Context, key string) (string, bool) {
	return s.lru.Get(key)
}

func (s *LRUStore) Set(_ context.Context, key, value string) {
	s.lru.Add(key, value)
}

func (s *LRUStore) Delete(_ context.Context, key string) {
	s.lru.Remove(key)
}
