package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"coachrag/internal/domain"
	"coachrag/internal/llm"
)

type pane int

const (
	answersPane pane = iota
	reportPane
)

type answersMsg struct {
	answers []domain.Answer
	err     error
}

type submittedMsg struct {
	answer domain.Answer
	err    error
}

type reportMsg struct {
	result domain.SynthesisResult
	err    error
}

// Model is the Bubble Tea model for an interactive coaching session.
type Model struct {
	ctx      context.Context
	service  domain.CoachService
	userID   string
	input    textinput.Model
	viewport viewport.Model
	answers  []domain.Answer
	report   *domain.SynthesisResult
	pane     pane
	status   string
	busy     bool
	ready    bool
}

// New creates a new TUI model for userID.
func New(ctx context.Context, service domain.CoachService, userID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type an answer and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  service,
		userID:   userID,
		input:    ti,
		viewport: vp,
		status:   "Enter submits an answer, ctrl+r writes the report, tab switches view.",
	}
}

// Init loads the stored answers and starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadAnswers())
}

// Update handles key, window and service events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := bodyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header and hint, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case answersMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.answers = msg.answers
		m.refresh()
		return m, nil
	case submittedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.status = "Answer saved."
		if msg.answer.Summary != nil && llm.IsSentinel(*msg.answer.Summary) {
			m.status = "Answer saved, but summarizing failed: " + *msg.answer.Summary
		}
		m.pane = answersPane
		return m, m.loadAnswers()
	case reportMsg:
		m.busy = false
		if msg.err != nil {
			if errors.Is(msg.err, domain.ErrNoContent) {
				m.status = "Submit at least one answer before asking for a report."
			} else {
				m.status = "Error: " + msg.err.Error()
			}
			return m, nil
		}
		m.report = &msg.result
		m.pane = reportPane
		m.status = "Report ready."
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			m.status = "Summarizing answer..."
			return m, m.submit(text)
		case "ctrl+r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Writing report..."
			return m, m.generateReport()
		case "tab":
			if m.pane == answersPane && m.report != nil {
				m.pane = reportPane
			} else {
				m.pane = answersPane
			}
			m.refresh()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Relationship Coach")
	hint := hintStyle.Render(fmt.Sprintf("user %s  |  %d answers", m.userID, len(m.answers)))
	body := bodyBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + hint + "\n" + body + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	if m.pane == reportPane && m.report != nil {
		m.viewport.SetContent(renderReport(*m.report))
	} else {
		m.viewport.SetContent(renderAnswers(m.answers))
	}
	m.viewport.GotoTop()
}

func (m Model) loadAnswers() tea.Cmd {
	return func() tea.Msg {
		answers, err := m.service.Answers(m.ctx, m.userID)
		return answersMsg{answers: answers, err: err}
	}
}

func (m Model) submit(text string) tea.Cmd {
	return func() tea.Msg {
		a, err := m.service.Submit(m.ctx, m.userID, text)
		return submittedMsg{answer: a, err: err}
	}
}

func (m Model) generateReport() tea.Cmd {
	return func() tea.Msg {
		res, err := m.service.Report(m.ctx, m.userID)
		return reportMsg{result: res, err: err}
	}
}

var (
	bodyBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sectionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

func renderAnswers(answers []domain.Answer) string {
	if len(answers) == 0 {
		return "No answers yet."
	}
	var b strings.Builder
	for i, a := range answers {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.RawText)
		if a.HasSummary() {
			b.WriteString("   " + *a.Summary)
		} else {
			b.WriteString("   " + pendingStyle.Render("(not summarized)"))
		}
	}
	return b.String()
}

func renderReport(r domain.SynthesisResult) string {
	advice := r.Advice
	if advice == "" {
		advice = pendingStyle.Render("(none)")
	}
	return sectionStyle.Render("Report") + "\n" + r.Report + "\n\n" +
		sectionStyle.Render("Advice") + "\n" + advice
}
