package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachrag/internal/embedding"
)

var _ embedding.Embedder = (*Embedder)(nil)

func TestEmbed_RequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestPrepare_EmptyCorpus(t *testing.T) {
	assert.ErrorIs(t, NewEmbedder().Prepare(nil), ErrEmptyCorpus)
}

func TestPrepare_NoIndexableWords(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"We did it.", "10/10"}))
	assert.Equal(t, 1, e.Dimension())

	v, err := e.Embed(context.Background(), "We did it.")
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, v)
}

func TestEmbed_NormalizedAndDeterministic(t *testing.T) {
	corpus := []string{"dislikes chores split", "wants more communication", "feels unheard"}
	a, b := NewEmbedder(), NewEmbedder()
	require.NoError(t, a.Prepare(corpus))
	require.NoError(t, b.Prepare(corpus))
	assert.Equal(t, 8, a.Dimension())

	va, err := a.Embed(context.Background(), "more communication please")
	require.NoError(t, err)
	vb, err := b.Embed(context.Background(), "more communication please")
	require.NoError(t, err)

	assert.Equal(t, va, vb)
	norm := 0.0
	for _, v := range va {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbed_UnknownVocabularyIsZero(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"feels unheard"}))

	v, err := e.Embed(context.Background(), "completely different words")

	require.NoError(t, err)
	assert.True(t, embedding.IsZero(v))
	assert.Len(t, v, 2)
}
