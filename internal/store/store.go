// Package store persists submitted answers and their write-once summaries.
package store

import (
	"context"
	"errors"

	"coachrag/internal/domain"
)

var (
	// ErrNotFound is returned when an answer id does not exist.
	ErrNotFound = errors.New("answer not found")
	// ErrSummaryExists is returned when an answer already carries a summary.
	ErrSummaryExists = errors.New("answer already summarized")
)

// Store is the answer repository. Lists are returned in submission order.
type Store interface {
	Create(ctx context.Context, userID, rawText string) (domain.Answer, error)
	// SetSummary attaches a summary. A summary is written at most once.
	SetSummary(ctx context.Context, id, summary string) error
	Get(ctx context.Context, id string) (domain.Answer, error)
	// List returns every answer of the user.
	List(ctx context.Context, userID string) ([]domain.Answer, error)
	// ListWithSummary returns the user's answers that carry a summary.
	ListWithSummary(ctx context.Context, userID string) ([]domain.Answer, error)
	// ListPending returns the user's answers still waiting for a summary.
	ListPending(ctx context.Context, userID string) ([]domain.Answer, error)
	Close() error
}
