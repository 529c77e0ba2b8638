package generator

import (
	"context"
	"fmt"
	"sync"
)

// Lazy initializes a value on first use. A successful init runs exactly
// once; a failed init is wrapped in ErrModelLoad and retried on the next Get.
type Lazy[T any] struct {
	mu     sync.Mutex
	init   func(ctx context.Context) (T, error)
	value  T
	loaded bool
}

// NewLazy creates a guard around init.
func NewLazy[T any](init func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the loaded value, initializing it if needed.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return l.value, nil
	}

	v, err := l.init(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	l.value = v
	l.loaded = true
	return v, nil
}

// Loaded reports whether initialization has succeeded.
func (l *Lazy[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}
