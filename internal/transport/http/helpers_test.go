package http

import (
	"context"
	"sync"
)

type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (l *countingLimiter) Hit(ctx context.Context, key string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key], nil
}
