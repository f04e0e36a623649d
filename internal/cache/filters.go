// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// filters.go provides a Valkey-backed cache for the dynamic filter-option
// lists. Computing them needs one distinct-scan per attribute key, so the
// serialized result is cached and invalidated whenever an attribute write
// may have changed the option set.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// filterOptionsKey is the Valkey key for the cached option lists.
	filterOptionsKey = "catalog:filter-options"

	// DefaultFilterTTL is how long computed filter options stay cached.
	DefaultFilterTTL = 10 * time.Minute
)

// FilterOptions caches the serialized filter-option payload in Valkey.
// All errors are logged and treated as cache misses; the cache never
// breaks a read path.
type FilterOptions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFilterOptions creates a filter-option cache backed by the given client.
func NewFilterOptions(client *redis.Client, ttl time.Duration) *FilterOptions {
	if ttl == 0 {
		ttl = DefaultFilterTTL
	}
	return &FilterOptions{client: client, ttl: ttl}
}

// Get retrieves the cached payload. Returns false on miss.
func (fc *FilterOptions) Get(ctx context.Context) ([]byte, bool) {
	val, err := fc.client.Get(ctx, filterOptionsKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("filter cache get error", "error", err)
		return nil, false
	}
	slog.Debug("filter cache hit")
	return val, true
}

// Set stores the serialized payload with the configured TTL.
func (fc *FilterOptions) Set(ctx context.Context, payload []byte) {
	if err := fc.client.Set(ctx, filterOptionsKey, payload, fc.ttl).Err(); err != nil {
		slog.Warn("filter cache set error", "error", err)
	}
}

// Invalidate drops the cached payload. Called after attribute writes.
func (fc *FilterOptions) Invalidate(ctx context.Context) {
	if err := fc.client.Del(ctx, filterOptionsKey).Err(); err != nil {
		slog.Warn("filter cache invalidate error", "error", err)
	}
	slog.Debug("filter cache invalidated")
}
