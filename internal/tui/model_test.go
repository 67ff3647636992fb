package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachrag/internal/domain"
)

type fakeService struct {
	answers   []domain.Answer
	submitted []string
	result    domain.SynthesisResult
	reportErr error
}

func (f *fakeService) Submit(_ context.Context, userID, rawText string) (domain.Answer, error) {
	f.submitted = append(f.submitted, rawText)
	summary := "summary of " + rawText
	a := domain.Answer{ID: rawText, UserID: userID, RawText: rawText, Summary: &summary}
	f.answers = append(f.answers, a)
	return a, nil
}

func (f *fakeService) SummarizePending(context.Context, string) (int, error) { return 0, nil }

func (f *fakeService) Answers(context.Context, string) ([]domain.Answer, error) {
	return f.answers, nil
}

func (f *fakeService) Report(context.Context, string) (domain.SynthesisResult, error) {
	return f.result, f.reportErr
}

// run feeds msg to m and then every message produced by the returned command.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for cmd != nil {
		out := cmd()
		if out == nil {
			break
		}
		next, cmd = m.Update(out)
		m = next.(Model)
	}
	return m
}

func newModel(svc *fakeService) Model {
	m := New(context.Background(), svc, "u1")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func TestSubmitOnEnter(t *testing.T) {
	svc := &fakeService{}
	m := newModel(svc)
	m.input.SetValue("  we argue about chores  ")

	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"we argue about chores"}, svc.submitted)
	assert.Empty(t, m.input.Value())
	assert.False(t, m.busy)
	assert.Equal(t, "Answer saved.", m.status)
	require.Len(t, m.answers, 1)
	assert.Contains(t, m.View(), "summary of we argue about chores")
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	svc := &fakeService{}
	m := run(t, newModel(svc), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, svc.submitted)
	assert.False(t, m.busy)
}

func TestReportOnCtrlR(t *testing.T) {
	svc := &fakeService{result: domain.SynthesisResult{Report: "Communication gaps.", Advice: "Weekly check-ins."}}
	m := run(t, newModel(svc), tea.KeyMsg{Type: tea.KeyCtrlR})

	assert.Equal(t, reportPane, m.pane)
	assert.Equal(t, "Report ready.", m.status)
	view := m.View()
	assert.Contains(t, view, "Communication gaps.")
	assert.Contains(t, view, "Weekly check-ins.")

	m = run(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, answersPane, m.pane)
}

func TestReportWithoutAnswers(t *testing.T) {
	svc := &fakeService{reportErr: domain.ErrNoContent}
	m := run(t, newModel(svc), tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, answersPane, m.pane)
	assert.Contains(t, m.status, "Submit at least one answer")
}
