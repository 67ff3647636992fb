// Package summarizer turns one raw answer into one summary string.
package summarizer

import (
	"context"

	"coachrag/internal/domain"
	"coachrag/internal/llm"
)

const summaryTemplate = "Summarize the following answer: "

// Summarizer produces a summary of a single answer. It never fails: problems
// are reported inside the returned text.
type Summarizer interface {
	Summarize(ctx context.Context, rawText string) string
}

// LLM summarizes through a language model gateway.
type LLM struct {
	gateway llm.Gateway
}

// NewLLM creates a summarizer backed by g.
func NewLLM(g llm.Gateway) *LLM {
	return &LLM{gateway: g}
}

// Summarize returns the model's summary, or the gateway's sentinel text when
// the call failed. The sentinel is returned verbatim so it can be stored.
func (s *LLM) Summarize(ctx context.Context, rawText string) string {
	return s.gateway.Complete(ctx, domain.CoachPersona, summaryTemplate+rawText).String()
}
