package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestCompletion_String(t *testing.T) {
	ok := Succeeded("  summary text \n")
	assert.True(t, ok.OK())
	assert.Equal(t, "summary text", ok.String())
	assert.False(t, IsSentinel(ok.String()))

	failed := Failed(errors.New("401 unauthorized"))
	assert.False(t, failed.OK())
	assert.Equal(t, "Error: 401 unauthorized", failed.String())
	assert.True(t, IsSentinel(failed.String()))
}

func TestFailed_NilErrorStillFails(t *testing.T) {
	c := Failed(nil)
	assert.False(t, c.OK())
	assert.ErrorIs(t, c.Err, ErrEmptyResponse)
}

func TestWithTimeout_SlowCallBecomesFailure(t *testing.T) {
	slow := GatewayFunc(func(ctx context.Context, _, _ string) Completion {
		<-ctx.Done()
		return Failed(ctx.Err())
	})

	c := WithTimeout(slow, 10*time.Millisecond).Complete(context.Background(), "role", "prompt")

	assert.False(t, c.OK())
	assert.ErrorIs(t, c.Err, context.DeadlineExceeded)
	assert.True(t, IsSentinel(c.String()))
}

func TestWithTimeout_AbandonsGatewayIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	stubborn := GatewayFunc(func(context.Context, string, string) Completion {
		defer close(finished)
		<-release
		return Succeeded("late")
	})

	start := time.Now()
	c := WithTimeout(stubborn, 10*time.Millisecond).Complete(context.Background(), "r", "p")
	assert.ErrorIs(t, c.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// The abandoned call can still finish without blocking on its result.
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned call did not finish")
	}
}

func TestWithTimeout_FastCallPassesThrough(t *testing.T) {
	fast := GatewayFunc(func(_ context.Context, role, prompt string) Completion {
		return Succeeded(role + "/" + prompt)
	})

	c := WithTimeout(fast, time.Second).Complete(context.Background(), "r", "p")

	assert.True(t, c.OK())
	assert.Equal(t, "r/p", c.Text)
}

func TestWithTimeout_ZeroDisables(t *testing.T) {
	g := GatewayFunc(func(context.Context, string, string) Completion { return Succeeded("x") })
	assert.Equal(t, "x", WithTimeout(g, 0).Complete(context.Background(), "", "").Text)
}

func TestWithRateLimit(t *testing.T) {
	calls := 0
	g := GatewayFunc(func(context.Context, string, string) Completion {
		calls++
		return Succeeded("ok")
	})
	limited := WithRateLimit(g, rate.NewLimiter(rate.Every(time.Hour), 1))

	first := limited.Complete(context.Background(), "", "")
	assert.True(t, first.OK())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	second := limited.Complete(ctx, "", "")

	assert.False(t, second.OK())
	assert.True(t, IsSentinel(second.String()))
	assert.Equal(t, 1, calls)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	lim := NewLimiter(60)
	if assert.NotNil(t, lim) {
		assert.InDelta(t, 1.0, float64(lim.Limit()), 1e-9)
	}
}
