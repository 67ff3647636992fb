package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateway_ServesInOrderThenRepeatsLast(t *testing.T) {
	g := New("one", "two")
	ctx := context.Background()

	assert.Equal(t, "one", g.Complete(ctx, "r", "p1").Text)
	assert.Equal(t, "two", g.Complete(ctx, "r", "p2").Text)
	assert.Equal(t, "two", g.Complete(ctx, "r", "p3").Text)

	calls := g.Calls()
	assert.Len(t, calls, 3)
	assert.Equal(t, Call{SystemRole: "r", UserPrompt: "p3"}, calls[2])
}

func TestGateway_EchoWithoutResponses(t *testing.T) {
	assert.Equal(t, "hello", New().Complete(context.Background(), "r", " hello ").Text)
}

func TestGateway_Err(t *testing.T) {
	g := &Gateway{Err: errors.New("boom")}
	c := g.Complete(context.Background(), "r", "p")
	assert.Equal(t, "Error: boom", c.String())
}

func TestGateway_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New("x").Complete(ctx, "r", "p")
	assert.ErrorIs(t, c.Err, context.Canceled)
}
