package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"coachrag/internal/domain"
	"coachrag/internal/index"
	"coachrag/internal/store"
	"coachrag/internal/summarizer"
	"coachrag/internal/synthesis"
)

// ErrEmptyAnswer is returned by Submit for blank answers.
var ErrEmptyAnswer = errors.New("answer text is empty")

// indexedStrategy is a strategy whose index can be built once and reused.
type indexedStrategy interface {
	Build(ctx context.Context, docs []domain.Document) (*index.Index, error)
	SynthesizeFrom(ctx context.Context, idx *index.Index, instruction string) (domain.SynthesisResult, error)
}

// Options wires a Coach.
type Options struct {
	Store       store.Store
	Summarizer  summarizer.Summarizer
	Strategy    synthesis.Strategy
	Instruction string
	// Workers bounds concurrent summaries in SummarizePending.
	Workers int
}

// Coach implements domain.CoachService.
type Coach struct {
	store       store.Store
	summarizer  summarizer.Summarizer
	strategy    synthesis.Strategy
	instruction string
	workers     int

	mu    sync.Mutex
	users map[string]*userIndex
}

// userIndex caches the index of one user's summaries. mu serializes reports
// so an index is never closed while in use.
type userIndex struct {
	mu          sync.Mutex
	fingerprint string
	idx         *index.Index
}

var _ domain.CoachService = (*Coach)(nil)

// New creates a Coach.
func New(o Options) *Coach {
	return &Coach{
		store:       o.Store,
		summarizer:  o.Summarizer,
		strategy:    o.Strategy,
		instruction: o.Instruction,
		workers:     o.Workers,
		users:       make(map[string]*userIndex),
	}
}

// Submit stores an answer and summarizes it. A failed model call still
// stores its sentinel text as the summary, and so does a call cut short by
// ctx. A context that is already done stores nothing.
func (c *Coach) Submit(ctx context.Context, userID, rawText string) (domain.Answer, error) {
	if strings.TrimSpace(rawText) == "" {
		return domain.Answer{}, ErrEmptyAnswer
	}
	if err := ctx.Err(); err != nil {
		return domain.Answer{}, err
	}
	a, err := c.store.Create(ctx, userID, rawText)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("store answer: %w", err)
	}
	summary := c.summarizer.Summarize(ctx, rawText)
	if err := c.store.SetSummary(context.WithoutCancel(ctx), a.ID, summary); err != nil {
		return a, fmt.Errorf("store summary: %w", err)
	}
	a.Summary = &summary
	slog.Debug("answer submitted", "comp", "service", "user", userID, "answer", a.ID)
	return a, nil
}

// SummarizePending summarizes every stored answer of the user that has no
// summary yet and returns how many summaries were written. Cancellation is
// handled as in Submit: calls cut short store their sentinel text.
func (c *Coach) SummarizePending(ctx context.Context, userID string) (int, error) {
	pending, err := c.store.ListPending(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	texts := make([]string, len(pending))
	for i, a := range pending {
		texts[i] = a.RawText
	}
	summaries := summarizer.SummarizeAll(ctx, c.summarizer, texts, c.workers)
	persist := context.WithoutCancel(ctx)
	written := 0
	for i, a := range pending {
		err := c.store.SetSummary(persist, a.ID, summaries[i])
		switch {
		case errors.Is(err, store.ErrSummaryExists):
			// summarized concurrently by another caller
		case err != nil:
			return written, fmt.Errorf("store summary: %w", err)
		default:
			written++
		}
	}
	slog.Info("summarized pending answers", "comp", "service", "user", userID, "count", written)
	return written, nil
}

// Answers returns every stored answer of the user in submission order.
func (c *Coach) Answers(ctx context.Context, userID string) ([]domain.Answer, error) {
	return c.store.List(ctx, userID)
}

// Report synthesizes a report from the user's summarized answers. Answers
// still pending are not part of it. With no summarized answers it returns
// domain.ErrNoContent.
func (c *Coach) Report(ctx context.Context, userID string) (domain.SynthesisResult, error) {
	answers, err := c.store.ListWithSummary(ctx, userID)
	if err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("list summaries: %w", err)
	}
	docs := domain.DocumentsFrom(answers)
	if len(docs) == 0 {
		return domain.SynthesisResult{}, domain.ErrNoContent
	}
	is, ok := c.strategy.(indexedStrategy)
	if !ok {
		return c.strategy.Synthesize(ctx, docs, c.instruction)
	}

	u := c.userIndex(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	fp := fingerprint(docs)
	if u.idx == nil || u.fingerprint != fp {
		idx, err := is.Build(ctx, docs)
		if err != nil {
			return domain.SynthesisResult{}, err
		}
		if u.idx != nil {
			if err := u.idx.Close(ctx); err != nil {
				slog.Warn("closing stale index failed", "comp", "service", "user", userID, "err", err)
			}
		}
		u.idx, u.fingerprint = idx, fp
		slog.Debug("index rebuilt", "comp", "service", "user", userID, "docs", len(docs))
	}
	return is.SynthesizeFrom(ctx, u.idx, c.instruction)
}

// Close releases every cached index.
func (c *Coach) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for id, u := range c.users {
		u.mu.Lock()
		if u.idx != nil {
			errs = append(errs, u.idx.Close(ctx))
			u.idx = nil
		}
		u.mu.Unlock()
		delete(c.users, id)
	}
	return errors.Join(errs...)
}

func (c *Coach) userIndex(userID string) *userIndex {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[userID]
	if !ok {
		u = &userIndex{}
		c.users[userID] = u
	}
	return u
}

// fingerprint identifies a document set by ids and texts, in order.
func fingerprint(docs []domain.Document) string {
	h := sha1.New()
	for _, d := range docs {
		h.Write([]byte(d.ID))
		h.Write([]byte{0})
		h.Write([]byte(d.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
