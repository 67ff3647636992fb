package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// WithTimeout bounds every call with a deadline. A call that runs out of time
// comes back as a failed Completion like any other gateway failure.
//
// On timeout the call is abandoned, not cancelled: the wrapped gateway sees
// the expired context, but one that ignores it keeps running in the
// background until it returns. Its result is then discarded.
func WithTimeout(g Gateway, d time.Duration) Gateway {
	if d <= 0 {
		return g
	}
	return GatewayFunc(func(ctx context.Context, systemRole, userPrompt string) Completion {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan Completion, 1)
		go func() { done <- g.Complete(ctx, systemRole, userPrompt) }()

		select {
		case c := <-done:
			return c
		case <-ctx.Done():
			slog.Warn("llm call abandoned", "comp", "llm", "timeout", d, "err", ctx.Err())
			return Failed(fmt.Errorf("llm call: %w", ctx.Err()))
		}
	})
}

// NewLimiter returns a limiter admitting rpm calls per minute, or nil when rpm <= 0.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// WithRateLimit waits on limiter before each call. A nil limiter disables limiting.
func WithRateLimit(g Gateway, limiter *rate.Limiter) Gateway {
	if limiter == nil {
		return g
	}
	return GatewayFunc(func(ctx context.Context, systemRole, userPrompt string) Completion {
		if err := limiter.Wait(ctx); err != nil {
			return Failed(fmt.Errorf("rate limit: %w", err))
		}
		return g.Complete(ctx, systemRole, userPrompt)
	})
}
