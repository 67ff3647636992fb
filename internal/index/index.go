// Package index builds an immutable semantic index over answer summaries and
// retrieves the summaries closest to a query.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coachrag/internal/domain"
	"coachrag/internal/embedding"
	"coachrag/internal/vectorstore"
)

// DefaultK is the number of documents retrieved when k is not positive.
const DefaultK = 6

// Builder embeds documents and loads them into a fresh vector store.
// Every Build gets its own embedder and store, so an index never shares
// mutable state with another.
type Builder struct {
	NewEmbedder func() embedding.Embedder
	NewStore    func() vectorstore.Storage
}

// Index is a built, read-only semantic index. Retrieve is safe for
// concurrent use.
type Index struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
	docs     []domain.Document
}

// Build indexes docs. An empty document set returns domain.ErrNoContent.
func (b Builder) Build(ctx context.Context, docs []domain.Document) (*Index, error) {
	if len(docs) == 0 {
		return nil, domain.ErrNoContent
	}
	start := time.Now()
	emb := b.NewEmbedder()
	corpus := make([]string, len(docs))
	for i, d := range docs {
		corpus[i] = d.Text
	}
	if err := emb.Prepare(corpus); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors := make([][]float64, len(docs))
	for i, text := range corpus {
		vec, err := emb.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed document %s: %w", docs[i].ID, err)
		}
		vectors[i] = vec
	}
	// Remote embedders learn their dimension on the first call.
	dim := emb.Dimension()
	if dim == 0 {
		dim = len(vectors[0])
	}
	store := b.NewStore()
	if err := store.Init(ctx, dim); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	if err := store.Upsert(ctx, docs, vectors); err != nil {
		_ = store.Clear(ctx)
		return nil, fmt.Errorf("upsert vectors: %w", err)
	}
	slog.Debug("index built", "comp", "index", "embedder", emb.Name(), "docs", len(docs), "dim", dim, "dur", time.Since(start))
	return &Index{
		embedder: emb,
		store:    store,
		docs:     append([]domain.Document(nil), docs...),
	}, nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.docs) }

// Close releases the backing vector store.
func (x *Index) Close(ctx context.Context) error {
	return x.store.Clear(ctx)
}
