package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/kv"
)

const (
	namespace = "shopassist"

	// TTL applies to every cached entry; entries expire passively and are
	// never invalidated explicitly.
	TTL = 600 * time.Second
)

// BuildKey produces a canonical cache key for an operation and its
// parameters. Nil parameters are omitted entirely, and the remaining ones are
// sorted by name, so two logically identical requests always share a key no
// matter the insertion order.
func BuildKey(prefix string, params map[string]any) string {
	base := namespace + ":" + prefix

	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == nil {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return base
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cast.ToString(params[name]))
	}
	return base + ":" + strings.Join(pairs, "&")
}

// GetOrCompute implements cache-aside reads: a hit is decoded and returned
// without invoking compute; a miss invokes compute once, stores the encoded
// result under key with TTL, and returns it. Store and compute errors
// propagate unmodified and nothing is cached on error. Two concurrent misses
// both compute; last write wins.
func GetOrCompute[T any](ctx context.Context, store kv.Store, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := store.Get(ctx, key)
	if err == nil {
		var value T
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return zero, fmt.Errorf("decode cached value: %w", err)
		}
		return value, nil
	}
	if !errors.Is(err, kv.ErrMiss) {
		return zero, err
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("encode value for cache: %w", err)
	}
	if err := store.Set(ctx, key, string(data), TTL); err != nil {
		return zero, err
	}

	return value, nil
}
