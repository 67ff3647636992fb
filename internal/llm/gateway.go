// Package llm wraps chat-completion calls behind a single-method gateway.
//
// A gateway never returns a Go error. Failures travel inside the Completion
// and are rendered as sentinel text only where the text leaves the pipeline.
package llm

import (
	"context"
	"errors"
	"strings"
)

// SentinelPrefix starts every rendered gateway failure.
const SentinelPrefix = "Error: "

// ErrEmptyResponse is reported when the model answered with no text.
var ErrEmptyResponse = errors.New("empty completion")

// Gateway performs one chat completion with a system role and a user prompt.
type Gateway interface {
	Complete(ctx context.Context, systemRole, userPrompt string) Completion
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, systemRole, userPrompt string) Completion

// Complete calls f.
func (f GatewayFunc) Complete(ctx context.Context, systemRole, userPrompt string) Completion {
	return f(ctx, systemRole, userPrompt)
}

// Completion is the outcome of one gateway call.
type Completion struct {
	Text string
	Err  error
}

// Succeeded builds a successful completion with the text trimmed.
func Succeeded(text string) Completion {
	return Completion{Text: strings.TrimSpace(text)}
}

// Failed builds a failed completion.
func Failed(err error) Completion {
	if err == nil {
		err = ErrEmptyResponse
	}
	return Completion{Err: err}
}

// OK reports whether the call succeeded.
func (c Completion) OK() bool { return c.Err == nil }

// String renders the completion as plain text: the model output on success,
// the sentinel message otherwise.
func (c Completion) String() string {
	if c.Err != nil {
		return SentinelPrefix + c.Err.Error()
	}
	return c.Text
}

// IsSentinel reports whether s is a rendered gateway failure.
func IsSentinel(s string) bool {
	return strings.HasPrefix(s, SentinelPrefix)
}
