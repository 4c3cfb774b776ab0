package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// LoadFunc fetches the value for a key that missed the cache.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Loader fronts a Cache with a read-through load. Concurrent misses for the
// same key share a single LoadFunc call.
type Loader[K comparable, V any] struct {
	cache   Cache[K, V]
	load    LoadFunc[K, V]
	keyName func(K) string
	group   singleflight.Group
}

// LoaderOption customizes a Loader.
type LoaderOption[K comparable] func(*loaderOptions[K])

type loaderOptions[K comparable] struct {
	keyString func(K) string
}

// WithKeyString sets how keys are named for load deduplication. Distinct
// keys must map to distinct strings. The default is the key's dynamic type
// followed by its %#v form.
func WithKeyString[K comparable](fn func(K) string) LoaderOption[K] {
	return func(o *loaderOptions[K]) { o.keyString = fn }
}

// NewLoader wraps c so that GetOrLoad fills misses with load.
func NewLoader[K comparable, V any](c Cache[K, V], load LoadFunc[K, V], opts ...LoaderOption[K]) *Loader[K, V] {
	o := loaderOptions[K]{keyString: func(key K) string { return fmt.Sprintf("%T:%#v", key, key) }}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[K, V]{cache: c, load: load, keyName: o.keyString}
}

// GetOrLoad returns the cached value for key, loading and storing it on a
// miss. Load errors are returned to every waiting caller and nothing is
// cached.
func (l *Loader[K, V]) GetOrLoad(ctx context.Context, key K) (V, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	res, err, _ := l.group.Do(l.keyName(key), func() (any, error) {
		v, err := l.load(ctx, key)
		if err != nil {
			return nil, err
		}
		l.cache.Put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, fmt.Errorf("load %v: %w", key, err)
	}
	return res.(V), nil
}

// Cache returns the wrapped cache.
func (l *Loader[K, V]) Cache() Cache[K, V] {
	return l.cache
}
