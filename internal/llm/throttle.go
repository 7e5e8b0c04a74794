// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// throttled waits on a token bucket before each request.
type throttled struct {
	inner   Provider
	limiter *rate.Limiter
}

// Throttled wraps p so that requests respect limiter. A nil limiter
// returns p unchanged.
func Throttled(p Provider, limiter *rate.Limiter) Provider {
	if limiter == nil {
		return p
	}
	return &throttled{inner: p, limiter: limiter}
}

// PerMinute builds a limiter allowing n requests per minute with the given
// burst. n <= 0 means unlimited and yields nil.
func PerMinute(n, burst int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), burst)
}

func (t *throttled) Name() string {
	return t.inner.Name()
}

func (t *throttled) StreamChat(ctx context.Context, req Request, onFragment FragmentFunc) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return t.inner.StreamChat(ctx, req, onFragment)
}

// timeoutProvider bounds each request with a deadline.
type timeoutProvider struct {
	inner Provider
	d     time.Duration
}

// WithTimeout wraps p so that each request, including its whole stream,
// is cancelled after d. d <= 0 returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, d: d}
}

func (t *timeoutProvider) Name() string {
	return t.inner.Name()
}

func (t *timeoutProvider) StreamChat(ctx context.Context, req Request, onFragment FragmentFunc) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.StreamChat(ctx, req, onFragment)
}
