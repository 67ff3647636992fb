package summarizer

import (
	"context"
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"

	"coachrag/internal/textutil"
)

// A sentence ends at terminal punctuation or at the end of the text.
var sentenceRe = regexp.MustCompile(`(?U)[^.!?。！？]+(?:[.!?。！？]|$)`)

// Frequency is an extractive summarizer: it keeps the sentences whose words
// are most frequent across the answer. It needs no model and is used when
// none is configured.
type Frequency struct {
	maxSentences int
}

// NewFrequency creates a summarizer keeping at most maxSentences (3 when <= 0).
func NewFrequency(maxSentences int) *Frequency {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Frequency{maxSentences: maxSentences}
}

// Summarize returns the highest-ranked sentences in their original order.
// Text with at most one sentence is returned trimmed.
func (s *Frequency) Summarize(_ context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	sentences := sentenceRe.FindAllString(trimmed, -1)
	if len(sentences) <= 1 {
		return trimmed
	}

	weight := termWeights(sentences)
	type ranked struct {
		idx   int
		score float64
	}
	ranks := make([]ranked, len(sentences))
	for i, sent := range sentences {
		words := textutil.Words(sent)
		score := 0.0
		for _, w := range words {
			score += weight[w]
		}
		// long sentences must not win on length alone
		if len(words) > 0 {
			score /= math.Sqrt(float64(len(words)))
		}
		ranks[i] = ranked{i, score}
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].score > ranks[j].score })

	keep := make([]int, 0, s.maxSentences)
	for _, r := range ranks[:min(s.maxSentences, len(ranks))] {
		keep = append(keep, r.idx)
	}
	slices.Sort(keep)
	out := make([]string, len(keep))
	for i, idx := range keep {
		out[i] = strings.TrimSpace(sentences[idx])
	}
	return strings.Join(out, " ")
}

// termWeights counts non-stopword terms over all sentences, scaled so the
// most frequent term weighs 1.
func termWeights(sentences []string) map[string]float64 {
	weight := make(map[string]float64)
	for _, sent := range sentences {
		for _, term := range textutil.Terms(sent) {
			weight[term]++
		}
	}
	top := 0.0
	for _, v := range weight {
		top = max(top, v)
	}
	if top > 0 {
		for k, v := range weight {
			weight[k] = v / top
		}
	}
	return weight
}
