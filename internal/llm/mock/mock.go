// Package mock provides a canned-response gateway for tests and offline runs.
package mock

import (
	"context"
	"sync"

	"coachrag/internal/llm"
)

// Call records one Complete invocation.
type Call struct {
	SystemRole string
	UserPrompt string
}

// Gateway serves Responses in order, repeating the last one once the queue is
// drained. When Err is set every call fails with it. With no responses the
// gateway echoes the user prompt.
type Gateway struct {
	Responses []string
	Err       error

	mu    sync.Mutex
	next  int
	calls []Call
}

// New creates a gateway serving the given responses.
func New(responses ...string) *Gateway {
	return &Gateway{Responses: responses}
}

// Complete implements llm.Gateway.
func (g *Gateway) Complete(ctx context.Context, systemRole, userPrompt string) llm.Completion {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, Call{SystemRole: systemRole, UserPrompt: userPrompt})
	if err := ctx.Err(); err != nil {
		return llm.Failed(err)
	}
	if g.Err != nil {
		return llm.Failed(g.Err)
	}
	if len(g.Responses) == 0 {
		return llm.Succeeded(userPrompt)
	}
	i := g.next
	if i >= len(g.Responses) {
		i = len(g.Responses) - 1
	} else {
		g.next++
	}
	return llm.Succeeded(g.Responses[i])
}

// Calls returns a copy of the recorded calls.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Call, len(g.calls))
	copy(out, g.calls)
	return out
}
