// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go provides a Valkey-backed cache of rendered public API
// responses (L2). It is shared by every instance, so a hit skips both the
// category service and JSON encoding. Valkey calls run behind a circuit
// breaker; when Valkey is down the cache degrades to a permanent miss.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"omexcatalog/internal/models"
)

const (
	// responseKeyPrefix is the Valkey key prefix for cached responses.
	responseKeyPrefix = "catalog:response:"

	// DefaultResponseTTL is how long a rendered response stays cached.
	DefaultResponseTTL = 5 * time.Minute
)

// ResponseCache manages cached API response bodies in Valkey.
type ResponseCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewResponseCache creates a response cache backed by the given Valkey client.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl == 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{
		client:  client,
		ttl:     ttl,
		breaker: newBreaker("valkey-response-cache"),
	}
}

// newBreaker trips after 5 consecutive Valkey failures and probes again
// after 30 seconds.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// Get retrieves a cached response body. Returns false on miss or error.
func (rc *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	res, err := rc.breaker.Execute(func() (interface{}, error) {
		val, err := rc.client.Get(ctx, responseKeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		if !errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("response cache get error", "key", key, "error", err)
		}
		return nil, false
	}
	val, _ := res.([]byte)
	if val == nil {
		return nil, false
	}
	slog.Debug("response cache hit", "key", key)
	return val, true
}

// Set stores a response body with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	_, err := rc.breaker.Execute(func() (interface{}, error) {
		return nil, rc.client.Set(ctx, responseKeyPrefix+key, body, rc.ttl).Err()
	})
	if err != nil && !errors.Is(err, gobreaker.ErrOpenState) {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached response by scanning for the prefix.
// While the breaker is open it returns at once; entries then age out by TTL.
func (rc *ResponseCache) InvalidateAll(ctx context.Context) {
	res, err := rc.breaker.Execute(func() (interface{}, error) {
		var cursor uint64
		var deleted int
		for {
			keys, next, err := rc.client.Scan(ctx, cursor, responseKeyPrefix+"*", 100).Result()
			if err != nil {
				return deleted, err
			}
			if len(keys) > 0 {
				if err := rc.client.Del(ctx, keys...).Err(); err != nil {
					return deleted, err
				}
				deleted += len(keys)
			}
			cursor = next
			if cursor == 0 {
				return deleted, nil
			}
		}
	})
	if err != nil {
		if !errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("response cache invalidation error", "error", err)
		}
		return
	}
	if deleted, _ := res.(int); deleted > 0 {
		slog.Info("response cache cleared", "deleted", deleted)
	}
}

// CategoriesChanged drops every cached response; any category change can
// affect the tree, listings and breadcrumbs alike.
func (rc *ResponseCache) CategoriesChanged(ctx context.Context, ev models.CategoryEvent) {
	rc.InvalidateAll(ctx)
}
