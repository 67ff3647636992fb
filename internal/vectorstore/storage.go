package vectorstore

import (
	"context"
	"errors"

	"coachrag/internal/domain"
)

// Storage errors shared by the backends.
var (
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrLengthMismatch    = errors.New("documents and vectors length mismatch")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Storage persists vectors and supports similarity search.
// Search returns results by non-increasing score; equal scores keep
// insertion order.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, docs []domain.Document, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Clear(ctx context.Context) error
}
