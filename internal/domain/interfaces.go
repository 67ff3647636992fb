package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// CoachPersona is the system role used for every coaching call.
const CoachPersona = "You are a coach who specializes in marriage and relationships."

// ErrNoContent is returned when there are no summarized answers to synthesize from.
var ErrNoContent = errors.New("no content to synthesize")

// Answer is one free-text answer submitted by a user.
// Summary stays nil until the summarizer has produced it.
type Answer struct {
	ID        string
	UserID    string
	RawText   string
	Summary   *string
	CreatedAt time.Time
}

// HasSummary reports whether the answer carries a non-empty summary.
func (a Answer) HasSummary() bool {
	return a.Summary != nil && strings.TrimSpace(*a.Summary) != ""
}

// Document is the read-only projection of an answer's summary used for indexing.
type Document struct {
	ID   string
	Text string
}

// DocumentsFrom projects answers into documents, skipping unsummarized ones.
// Input order is preserved.
func DocumentsFrom(answers []Answer) []Document {
	docs := make([]Document, 0, len(answers))
	for _, a := range answers {
		if !a.HasSummary() {
			continue
		}
		docs = append(docs, Document{ID: a.ID, Text: *a.Summary})
	}
	return docs
}

// SearchResult represents a matching document with a relevance score.
type SearchResult struct {
	Document Document
	Score    float64
}

// SynthesisResult is the report and advice generated from a user's answers.
type SynthesisResult struct {
	Report string `json:"report"`
	Advice string `json:"advice"`
}

// CoachService defines the operations exposed by the application core.
type CoachService interface {
	Submit(ctx context.Context, userID, rawText string) (Answer, error)
	SummarizePending(ctx context.Context, userID string) (int, error)
	Answers(ctx context.Context, userID string) ([]Answer, error)
	Report(ctx context.Context, userID string) (SynthesisResult, error)
}
