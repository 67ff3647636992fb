package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"coachrag/internal/domain"
	"coachrag/internal/embedding"
	"coachrag/internal/textutil"
)

// Retrieve returns up to k documents ordered by non-increasing similarity to
// query. The query is embedded with the index's own embedder. When the query
// shares nothing with the indexed vocabulary, documents are ranked by lexical
// overlap instead.
func (x *Index) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = DefaultK
	}
	k = min(k, len(x.docs))
	vec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if embedding.IsZero(vec) {
		return x.lexicalSearch(query, k), nil
	}
	res, err := x.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	allZero := true
	for _, r := range res {
		if r.Score > 1e-9 {
			allZero = false
			break
		}
	}
	if allZero {
		return x.lexicalSearch(query, k), nil
	}
	if len(res) > k {
		res = res[:k]
	}
	return res, nil
}

func (x *Index) lexicalSearch(query string, k int) []domain.SearchResult {
	qset := textutil.Set(query)
	out := make([]domain.SearchResult, len(x.docs))
	for i, d := range x.docs {
		out[i] = domain.SearchResult{Document: d, Score: overlapOchiai(qset, textutil.Set(d.Text))}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out[:k]
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct words.
func overlapOchiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range b {
		if _, ok := a[w]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}
