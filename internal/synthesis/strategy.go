// Package synthesis turns a user's summarized answers into one report and
// one piece of advice.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"coachrag/internal/domain"
	"coachrag/internal/index"
	"coachrag/internal/llm"
)

// Strategy names accepted by New.
const (
	StrategyRAG    = "rag"
	StrategyDirect = "direct"
)

// Strategy synthesizes a result from the documents of one user.
// Gateway failures surface as sentinel text in the result, not as errors.
type Strategy interface {
	Name() string
	Synthesize(ctx context.Context, docs []domain.Document, instruction string) (domain.SynthesisResult, error)
}

// Options configures New.
type Options struct {
	Strategy   string
	Gateway    llm.Gateway
	Builder    index.Builder
	TopK       int
	Structured bool
}

// New returns the strategy named by o.Strategy ("rag" when empty).
func New(o Options) (Strategy, error) {
	switch strings.ToLower(o.Strategy) {
	case StrategyRAG, "":
		return NewRAG(o.Gateway, o.Builder, o.TopK, o.Structured), nil
	case StrategyDirect:
		return NewDirect(o.Gateway), nil
	default:
		return nil, fmt.Errorf("unknown synthesis strategy: %s", o.Strategy)
	}
}

// RAG retrieves the summaries most relevant to the instruction and asks the
// model for a report and advice over them.
type RAG struct {
	gateway    llm.Gateway
	builder    index.Builder
	topK       int
	structured bool
}

// NewRAG creates a retrieval-augmented strategy. topK <= 0 uses index.DefaultK.
func NewRAG(g llm.Gateway, b index.Builder, topK int, structured bool) *RAG {
	if topK <= 0 {
		topK = index.DefaultK
	}
	return &RAG{gateway: g, builder: b, topK: topK, structured: structured}
}

// Name implements Strategy.
func (s *RAG) Name() string { return StrategyRAG }

// Synthesize builds a throwaway index over docs and synthesizes from it.
func (s *RAG) Synthesize(ctx context.Context, docs []domain.Document, instruction string) (domain.SynthesisResult, error) {
	idx, err := s.Build(ctx, docs)
	if err != nil {
		return domain.SynthesisResult{}, err
	}
	defer func() {
		if err := idx.Close(ctx); err != nil {
			slog.Warn("closing index failed", "comp", "synthesis", "err", err)
		}
	}()
	return s.SynthesizeFrom(ctx, idx, instruction)
}

// Build indexes docs with the strategy's builder.
func (s *RAG) Build(ctx context.Context, docs []domain.Document) (*index.Index, error) {
	return s.builder.Build(ctx, docs)
}

// SynthesizeFrom synthesizes from an already built index.
func (s *RAG) SynthesizeFrom(ctx context.Context, idx *index.Index, instruction string) (domain.SynthesisResult, error) {
	raw, err := s.Raw(ctx, idx, instruction)
	if err != nil {
		return domain.SynthesisResult{}, err
	}
	if s.structured {
		return ParseStructured(raw), nil
	}
	return Parse(raw), nil
}

// Raw retrieves context for instruction and returns the unparsed model text.
func (s *RAG) Raw(ctx context.Context, idx *index.Index, instruction string) (string, error) {
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstruction
	}
	results, err := idx.Retrieve(ctx, instruction, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}
	slog.Debug("retrieved context", "comp", "synthesis", "docs", len(results), "k", s.topK)
	return s.gateway.Complete(ctx, domain.CoachPersona, ragPrompt(results, instruction, s.structured)).String(), nil
}

// Direct concatenates every summary into one prompt without retrieval. It
// attempts no split: report and advice are the same response under two
// labels. It is the lower-quality fallback mode.
type Direct struct {
	gateway llm.Gateway
}

// NewDirect creates the concatenation strategy.
func NewDirect(g llm.Gateway) *Direct {
	return &Direct{gateway: g}
}

// Name implements Strategy.
func (s *Direct) Name() string { return StrategyDirect }

// Synthesize implements Strategy. The instruction is not used.
func (s *Direct) Synthesize(ctx context.Context, docs []domain.Document, _ string) (domain.SynthesisResult, error) {
	if len(docs) == 0 {
		return domain.SynthesisResult{}, domain.ErrNoContent
	}
	raw := s.gateway.Complete(ctx, domain.CoachPersona, directPrompt(docs)).String()
	return domain.SynthesisResult{
		Report: reportLabel + " " + raw,
		Advice: adviceLabel + " " + raw,
	}, nil
}
