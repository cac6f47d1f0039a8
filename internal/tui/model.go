// Package tui runs the session behind a bubbletea prompt with line editing
// and input recall.
package tui

import (
	"bytes"
	"context"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/pona-cli/internal/tui/theme"
)

// Prompt is printed before every input line.
const Prompt = "> "

// Executor runs one command line at a time.
type Executor interface {
	Execute(ctx context.Context, line string)
	Done() bool
	SetOutput(w io.Writer)
}

type executedMsg struct {
	output string
}

type Model struct {
	ctx      context.Context
	exec     Executor
	theme    theme.Theme
	input    []rune
	cursor   int
	recall   []string
	recallAt int
	busy     bool
	quitting bool
	width    int
}

func NewModel(ctx context.Context, exec Executor) Model {
	return Model{
		ctx:   ctx,
		exec:  exec,
		theme: theme.Default(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case executedMsg:
		m.busy = false
		var cmds []tea.Cmd
		if out := strings.TrimRight(msg.output, "\n"); out != "" {
			cmds = append(cmds, tea.Println(out))
		}
		if m.exec.Done() {
			m.quitting = true
			cmds = append(cmds, tea.Quit)
		}
		return m, tea.Sequence(cmds...)
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			return m.submit(string(m.input))
		case "ctrl+d":
			if len(m.input) == 0 {
				return m.submit("EOF")
			}
			m.deleteAt(m.cursor)
			return m, nil
		case "ctrl+c":
			m.input = nil
			m.cursor = 0
			m.recallAt = len(m.recall)
			return m, nil
		case "backspace", "ctrl+h":
			if m.cursor > 0 {
				m.cursor--
				m.deleteAt(m.cursor)
			}
			return m, nil
		case "delete":
			m.deleteAt(m.cursor)
			return m, nil
		case "left", "ctrl+b":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "right", "ctrl+f":
			if m.cursor < len(m.input) {
				m.cursor++
			}
			return m, nil
		case "home", "ctrl+a":
			m.cursor = 0
			return m, nil
		case "end", "ctrl+e":
			m.cursor = len(m.input)
			return m, nil
		case "ctrl+u":
			m.input = append([]rune(nil), m.input[m.cursor:]...)
			m.cursor = 0
			return m, nil
		case "up":
			m.recallBy(-1)
			return m, nil
		case "down":
			m.recallBy(1)
			return m, nil
		}
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.insert(msg.Runes)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.busy {
		return m.theme.Busy.Render("working...") + "\n"
	}
	return m.theme.Prompt.Render(Prompt) + m.theme.RenderInput([]rune(maskLine(string(m.input))), m.cursor) + "\n"
}

func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	m.input = nil
	m.cursor = 0
	echo := Prompt
	if line != "EOF" {
		echo += maskLine(line)
		if strings.TrimSpace(line) != "" && !isPasswordLine(line) {
			m.recall = append(m.recall, line)
		}
	}
	m.recallAt = len(m.recall)
	m.busy = true
	return m, tea.Sequence(tea.Println(m.theme.Echo.Render(echo)), executeCmd(m.ctx, m.exec, line))
}

func (m *Model) insert(runes []rune) {
	next := make([]rune, 0, len(m.input)+len(runes))
	next = append(next, m.input[:m.cursor]...)
	next = append(next, runes...)
	next = append(next, m.input[m.cursor:]...)
	m.input = next
	m.cursor += len(runes)
}

func (m *Model) deleteAt(pos int) {
	if pos < 0 || pos >= len(m.input) {
		return
	}
	m.input = append(m.input[:pos:pos], m.input[pos+1:]...)
}

func (m *Model) recallBy(delta int) {
	if len(m.recall) == 0 {
		return
	}
	at := m.recallAt + delta
	if at < 0 {
		at = 0
	}
	if at >= len(m.recall) {
		m.recallAt = len(m.recall)
		m.input = nil
		m.cursor = 0
		return
	}
	m.recallAt = at
	m.input = []rune(m.recall[at])
	m.cursor = len(m.input)
}

func executeCmd(ctx context.Context, exec Executor, line string) tea.Cmd {
	return func() tea.Msg {
		var buf bytes.Buffer
		exec.SetOutput(&buf)
		exec.Execute(ctx, line)
		return executedMsg{output: buf.String()}
	}
}

// maskLine hides the argument of a password command.
func maskLine(line string) string {
	if !isPasswordLine(line) {
		return line
	}
	trimmed := strings.TrimLeft(line, " ")
	lead := line[:len(line)-len(trimmed)]
	rest := strings.TrimPrefix(trimmed, "password")
	return lead + "password" + strings.Map(func(r rune) rune {
		if r == ' ' {
			return r
		}
		return '*'
	}, rest)
}

func isPasswordLine(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && fields[0] == "password"
}
