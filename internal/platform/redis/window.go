// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	stdctx "context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindow counts hits per key in fixed windows that start at the first hit.
//
// The counter and its TTL live in Redis, so every replica shares the same view.
type FixedWindow struct {
	client *redis.Client
	prefix string
}

// NewFixedWindow creates a counter whose keys are namespaced by prefix.
func NewFixedWindow(client *redis.Client, prefix string) *FixedWindow {
	return &FixedWindow{client: client, prefix: prefix}
}

// Hit records one hit for key and returns the count within the current window
// together with the time left until the window resets.
func (window *FixedWindow) Hit(context stdctx.Context, key string, length time.Duration) (int64, time.Duration, error) {
	fullKey := window.prefix + key

	// INCR and PTTL travel in one MULTI/EXEC round trip.
	pipe := window.client.TxPipeline()
	incr := pipe.Incr(context, fullKey)
	pttl := pipe.PTTL(context, fullKey)
	if _, err := pipe.Exec(context); err != nil {
		return 0, 0, fmt.Errorf("redis: window hit failed: %w", err)
	}

	remaining := pttl.Val()

	// First hit of a window, or a key that lost its TTL: start the window now.
	if remaining <= 0 {
		if err := window.client.PExpire(context, fullKey, length).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis: window expire failed: %w", err)
		}
		remaining = length
	}

	return incr.Val(), remaining, nil
}
