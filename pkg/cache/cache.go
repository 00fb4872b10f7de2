// Package cache stores encoded images keyed by everything that determines
// their pixels.
//
// Rendering is deterministic: the same resolved entry content, template,
// dimensions, watermark flag and font data always produce the same PNG
// bytes. The pipeline hashes those inputs into a key with [ImageKey] and asks
// a [Cache] before composing, so re-rendering an unchanged entry only costs a
// lookup. Naming and storing still happen on every render.
//
// Three implementations are provided: [FileCache] for long-running
// deployments, [MemoryCache] for a bounded in-process cache, and
// [NullCache] which disables caching.
package cache

import (
	"context"
	"time"
)

// TTLImage is the default lifetime of a cached image.
const TTLImage = 24 * time.Hour

// Cache is a byte cache with optional per-entry expiry.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
