package cache

import (
	"context"
	"sync"
	"time"
)

// Store holds a single value with an expiry.
type Store[T any] interface {
	Get(ctx context.Context) (T, bool, error)
	Set(ctx context.Context, value T) error
	Reset(ctx context.Context) error
}

// Memory is an in-process Store. The zero value is not usable; use NewMemory.
type Memory[T any] struct {
	mu        sync.RWMutex
	value     T
	fetchedAt time.Time
	ttl       time.Duration
	filled    bool
	now       func() time.Time
}

func NewMemory[T any](ttl time.Duration) *Memory[T] {
	return &Memory[T]{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Tests only.
func (m *Memory[T]) WithClock(now func() time.Time) *Memory[T] {
	m.now = now
	return m
}

func (m *Memory[T]) Get(_ context.Context) (T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero T
	if !m.filled || m.now().Sub(m.fetchedAt) >= m.ttl {
		return zero, false, nil
	}
	return m.value, true, nil
}

func (m *Memory[T]) Set(_ context.Context, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = value
	m.fetchedAt = m.now()
	m.filled = true
	return nil
}

func (m *Memory[T]) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	m.value = zero
	m.fetchedAt = time.Time{}
	m.filled = false
	return nil
}
