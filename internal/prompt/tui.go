package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	markStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TUI asks questions in the terminal, one after another.
type TUI struct {
	In  io.Reader // defaults to the terminal
	Out io.Writer // defaults to stdout
}

func (t *TUI) Ask(ctx context.Context, questions []Question) (map[string]any, error) {
	if len(questions) == 0 {
		return map[string]any{}, nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(newModel(questions), opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("running prompt: %w", err)
	}
	m := final.(model)
	if m.aborted {
		return nil, ErrAborted
	}
	return m.answers, nil
}

// model walks the questions in order.
type model struct {
	questions  []Question
	current    int
	answers    map[string]any
	transcript []string

	input   textinput.Model
	cursor  int
	problem string
	aborted bool
}

func newModel(questions []Question) model {
	m := model{
		questions: questions,
		answers:   make(map[string]any, len(questions)),
	}
	m.prepare()
	return m
}

func (m *model) question() Question {
	return m.questions[m.current]
}

// prepare resets the widgets for the current question.
func (m *model) prepare() {
	q := m.question()
	m.problem = ""
	m.cursor = 0
	if q.Kind == KindList {
		if i := q.defaultIndex(); i >= 0 {
			m.cursor = i
		}
		return
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 4096
	ti.Width = 60
	ti.Placeholder = q.DisplayDefault()
	if q.Kind == KindPassword {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
	}
	ti.Focus()
	m.input = ti
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.question().Kind == KindList {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.aborted = true
		return m, tea.Quit
	}

	q := m.question()
	if q.Kind == KindList {
		switch key.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(q.Options)-1 {
				m.cursor++
			}
		case "enter":
			if len(q.Options) == 0 {
				return m.answer(q.Default, fmt.Sprint(q.Default))
			}
			return m.answer(q.Options[m.cursor], q.Options[m.cursor])
		}
		return m, nil
	}

	if key.Type == tea.KeyEnter {
		value, err := q.accept(m.input.Value())
		if err != nil {
			m.problem = err.Error()
			return m, nil
		}
		shown := fmt.Sprint(value)
		if q.Kind == KindPassword {
			shown = strings.Repeat("*", len(m.input.Value()))
		}
		return m.answer(value, shown)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// answer records value and moves to the next question or quits.
func (m model) answer(value any, shown string) (tea.Model, tea.Cmd) {
	q := m.question()
	m.answers[q.Name] = value
	m.transcript = append(m.transcript, fmt.Sprintf("%s %s %s", markStyle.Render("?"), questionStyle.Render(q.Message), answerStyle.Render(shown)))
	if m.current == len(m.questions)-1 {
		return m, tea.Quit
	}
	m.current++
	m.prepare()
	return m, textinput.Blink
}

func (m model) View() string {
	var b strings.Builder
	for _, line := range m.transcript {
		b.WriteString(line + "\n")
	}
	if m.aborted || len(m.transcript) == len(m.questions) {
		return b.String()
	}

	q := m.question()
	b.WriteString(markStyle.Render("?") + " " + questionStyle.Render(q.Message) + " ")
	if q.Kind == KindList {
		b.WriteString(mutedStyle.Render("[↑/↓] Navigate  [Enter] Select") + "\n")
		for i, opt := range q.Options {
			if i == m.cursor {
				b.WriteString("  " + selectedStyle.Render("> "+opt) + "\n")
			} else {
				b.WriteString("    " + opt + "\n")
			}
		}
		return b.String()
	}

	b.WriteString(m.input.View() + "\n")
	if m.problem != "" {
		b.WriteString(errorStyle.Render(">> "+m.problem) + "\n")
	}
	return b.String()
}
