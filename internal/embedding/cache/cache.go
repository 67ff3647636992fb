// Package cache memoizes remote embeddings so rebuilding an index over an
// unchanged set of summaries does not re-embed every text.
//
// Only embedders whose vectors do not depend on a prepared corpus may be
// cached; TF-IDF vectors change whenever the corpus does.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"

	"coachrag/internal/embedding"
)

// Store keeps vectors by key.
type Store interface {
	Get(ctx context.Context, key string) ([]float64, bool, error)
	Set(ctx context.Context, key string, vec []float64) error
}

// Embedder wraps another embedder with a Store.
type Embedder struct {
	inner embedding.Embedder
	store Store
}

var _ embedding.Embedder = (*Embedder)(nil)

// New wraps inner with store.
func New(inner embedding.Embedder, store Store) *Embedder {
	return &Embedder{inner: inner, store: store}
}

// Name returns the wrapped embedder's name.
func (e *Embedder) Name() string { return e.inner.Name() }

// Prepare forwards to the wrapped embedder.
func (e *Embedder) Prepare(corpus []string) error { return e.inner.Prepare(corpus) }

// Dimension forwards to the wrapped embedder.
func (e *Embedder) Dimension() int { return e.inner.Dimension() }

// Embed returns the cached vector for text or computes and stores it.
// Cache failures are logged and never fail the embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := Key(e.inner.Name(), text)
	if vec, ok, err := e.store.Get(ctx, key); err != nil {
		slog.Warn("embedding cache read failed", "comp", "embedding", "err", err)
	} else if ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.store.Set(ctx, key, vec); err != nil {
		slog.Warn("embedding cache write failed", "comp", "embedding", "err", err)
	}
	return vec, nil
}

// Key derives the cache key for text embedded by the named model.
func Key(model, text string) string {
	h := sha1.Sum([]byte(text))
	return model + ":" + hex.EncodeToString(h[:])
}
