package summarizer

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent summaries when no limit is given.
const DefaultWorkers = 4

// SummarizeAll summarizes independent texts concurrently with at most limit
// calls in flight. The result is aligned with texts. A cancelled context does
// not stop the batch: each remaining call reports the cancellation in its
// summary text, like any other failed model call.
func SummarizeAll(ctx context.Context, s Summarizer, texts []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultWorkers
	}
	start := time.Now()
	out := make([]string, len(texts))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, text := range texts {
		g.Go(func() error {
			out[i] = s.Summarize(ctx, text)
			return nil
		})
	}
	_ = g.Wait()
	slog.Debug("summarized batch", "comp", "summarizer", "count", len(texts), "dur", time.Since(start))
	return out
}
