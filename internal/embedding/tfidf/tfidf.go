// Package tfidf embeds text as L2-normalized TF-IDF vectors.
package tfidf

import (
	"context"
	"errors"
	"maps"
	"math"
	"slices"

	"coachrag/internal/textutil"
)

var (
	// ErrNotPrepared is returned by Embed before Prepare has succeeded.
	ErrNotPrepared = errors.New("tfidf embedder not prepared")
	// ErrEmptyCorpus is returned by Prepare for an empty corpus.
	ErrEmptyCorpus = errors.New("tfidf: empty corpus")
)

// Embedder is a local TF-IDF vectorizer. Vectors live in the space of the
// last prepared corpus; after Prepare it is read-only and safe for
// concurrent Embed calls.
type Embedder struct {
	vocabulary map[string]int
	idf        []float64
	dimension  int
	prepared   bool
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{vocabulary: make(map[string]int)}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare fixes the vocabulary and smoothed IDF weights for corpus. Terms
// are indexed in lexical order so equal corpora give equal vector layouts.
// A corpus with no word left after stopword removal gets an empty vocabulary
// in a one-dimensional space, where every text embeds to the zero vector.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return ErrEmptyCorpus
	}
	df := make(map[string]int)
	for _, text := range corpus {
		for term := range distinct(textutil.Terms(text)) {
			df[term]++
		}
	}
	terms := slices.Sorted(maps.Keys(df))
	n := float64(len(corpus))
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	for i, term := range terms {
		e.vocabulary[term] = i
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	e.dimension = max(len(terms), 1)
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the L2-normalized TF-IDF embedding for the given text.
// Text sharing no vocabulary with the corpus yields the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	if !e.prepared {
		return nil, ErrNotPrepared
	}
	vec := make([]float64, e.dimension)
	terms := textutil.Terms(text)
	counts := make(map[int]int, len(terms))
	total := 0
	for _, term := range terms {
		if idx, ok := e.vocabulary[term]; ok {
			counts[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, c := range counts {
		vec[idx] = float64(c) / float64(total) * e.idf[idx]
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float64) {
	sum := 0.0
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

func distinct(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
