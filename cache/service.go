package cache

import (
	"context"
	"fmt"
)

// FetchFn is the function signature Service expects when fetching from the
// source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Service exposes the read-through operations the stats layer needs. It is
// exported so alternate cache backends can be plugged in behind the same
// interface.
type Service interface {
	// GetOrFetch returns the cached value for key, calling fetch and
	// storing its result on a miss.
	GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error)

	// Delete removes the entry for key so the next GetOrFetch refetches.
	Delete(ctx context.Context, key string) error
}

// GetOrFetch is the type-safe wrapper around Service.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, s Service, key string, fetch FetchFn[T]) (T, error) {
	v, err := s.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: unexpected value type %T for key %q", v, key)
	}
	return out, nil
}
