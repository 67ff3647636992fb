package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachrag/internal/domain"
	"coachrag/internal/embedding"
	"coachrag/internal/embedding/tfidf"
	"coachrag/internal/index"
	"coachrag/internal/llm"
	"coachrag/internal/llm/mock"
	"coachrag/internal/vectorstore"
	"coachrag/internal/vectorstore/memory"
)

const cannedReport = "Report: The relationship shows communication gaps.\nAdvice: Schedule weekly check-ins."

func builder() index.Builder {
	return index.Builder{
		NewEmbedder: func() embedding.Embedder { return tfidf.NewEmbedder() },
		NewStore:    func() vectorstore.Storage { return memory.NewStorage() },
	}
}

func summaries() []domain.Document {
	return []domain.Document{
		{ID: "1", Text: "dislikes chores split"},
		{ID: "2", Text: "wants more communication"},
		{ID: "3", Text: "feels unheard"},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.SynthesisResult
	}{
		{"labelled", "Report: A\nAdvice: B", domain.SynthesisResult{Report: "A", Advice: "B"}},
		{"no advice label", "just a note", domain.SynthesisResult{Report: "just a note"}},
		{"split at first advice", "Report: X Advice: Y Advice: Z", domain.SynthesisResult{Report: "X", Advice: "Y Advice: Z"}},
		{"only first report label removed", "Report: A Report: B\nAdvice: C", domain.SynthesisResult{Report: "A Report: B", Advice: "C"}},
		{"no report label", "Things are fine. Advice: keep going", domain.SynthesisResult{Report: "Things are fine.", Advice: "keep going"}},
		{"empty", "", domain.SynthesisResult{}},
		{"sentinel", "Error: boom", domain.SynthesisResult{Report: "Error: boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestParse_UnlabelledTextIsUntouched(t *testing.T) {
	raw := "  Report: padded text  "
	assert.Equal(t, raw, Parse(raw).Report)
}

func TestParseStructured(t *testing.T) {
	got := ParseStructured(`{"report": " calm ", "advice": "talk more"}`)
	assert.Equal(t, domain.SynthesisResult{Report: "calm", Advice: "talk more"}, got)

	// Missing field and non-JSON both fall back to the labelled format.
	assert.Equal(t, domain.SynthesisResult{Report: `{"report": "only"}`}, ParseStructured(`{"report": "only"}`))
	assert.Equal(t, domain.SynthesisResult{Report: "A", Advice: "B"}, ParseStructured("Report: A\nAdvice: B"))
}

func TestRAG_EndToEnd(t *testing.T) {
	g := mock.New(cannedReport)
	s := NewRAG(g, builder(), 0, false)

	got, err := s.Synthesize(context.Background(), summaries(), "")
	require.NoError(t, err)
	assert.Equal(t, "The relationship shows communication gaps.", got.Report)
	assert.Equal(t, "Schedule weekly check-ins.", got.Advice)

	calls := g.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.CoachPersona, calls[0].SystemRole)
	for _, d := range summaries() {
		assert.Contains(t, calls[0].UserPrompt, d.Text)
	}
	assert.Contains(t, calls[0].UserPrompt, DefaultInstruction)
	assert.Contains(t, calls[0].UserPrompt, "Advice: <Your advice text>")
}

func TestRAG_TopKLimitsContext(t *testing.T) {
	g := mock.New(cannedReport)
	s := NewRAG(g, builder(), 1, false)

	_, err := s.Synthesize(context.Background(), summaries(), "communication")
	require.NoError(t, err)
	prompt := g.Calls()[0].UserPrompt
	assert.Contains(t, prompt, "wants more communication")
	assert.NotContains(t, prompt, "dislikes chores split")
	assert.NotContains(t, prompt, "feels unheard")
}

func TestRAG_Structured(t *testing.T) {
	g := mock.New(`{"report":"R","advice":"A"}`)
	s := NewRAG(g, builder(), 0, true)

	got, err := s.Synthesize(context.Background(), summaries(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.SynthesisResult{Report: "R", Advice: "A"}, got)
	assert.Contains(t, g.Calls()[0].UserPrompt, `"report" and "advice"`)
}

func TestRAG_GatewayFailureBecomesReportText(t *testing.T) {
	g := &mock.Gateway{Err: errors.New("401 unauthorized")}
	s := NewRAG(g, builder(), 0, false)

	got, err := s.Synthesize(context.Background(), summaries(), "")
	require.NoError(t, err)
	assert.True(t, llm.IsSentinel(got.Report))
	assert.Contains(t, got.Report, "401 unauthorized")
	assert.Empty(t, got.Advice)
}

func TestRAG_EmptyDocs(t *testing.T) {
	g := mock.New(cannedReport)
	_, err := NewRAG(g, builder(), 0, false).Synthesize(context.Background(), nil, "")
	assert.ErrorIs(t, err, domain.ErrNoContent)
	assert.Empty(t, g.Calls())
}

func TestRAG_ReusesBuiltIndex(t *testing.T) {
	ctx := context.Background()
	g := mock.New(cannedReport)
	s := NewRAG(g, builder(), 0, false)

	idx, err := s.Build(ctx, summaries())
	require.NoError(t, err)
	defer idx.Close(ctx)

	for i := 0; i < 2; i++ {
		got, err := s.SynthesizeFrom(ctx, idx, "")
		require.NoError(t, err)
		assert.Equal(t, "Schedule weekly check-ins.", got.Advice)
	}
	assert.Len(t, g.Calls(), 2)
}

func TestDirect_PrefixesWholeResponse(t *testing.T) {
	g := mock.New(cannedReport)
	got, err := NewDirect(g).Synthesize(context.Background(), summaries(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Report: "+cannedReport, got.Report)
	assert.Equal(t, "Advice: "+cannedReport, got.Advice)

	prompt := g.Calls()[0].UserPrompt
	assert.True(t, strings.HasPrefix(prompt, directPrefix))
	assert.Contains(t, prompt, "feels unheard")
}

func TestDirect_EmptyDocs(t *testing.T) {
	_, err := NewDirect(mock.New()).Synthesize(context.Background(), nil, "")
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestNew(t *testing.T) {
	s, err := New(Options{Gateway: mock.New(), Builder: builder()})
	require.NoError(t, err)
	assert.Equal(t, StrategyRAG, s.Name())

	s, err = New(Options{Strategy: "Direct", Gateway: mock.New()})
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, s.Name())

	_, err = New(Options{Strategy: "map-reduce"})
	assert.Error(t, err)
}
