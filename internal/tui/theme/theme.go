package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Prompt lipgloss.Style
	Input  lipgloss.Style
	Cursor lipgloss.Style
	Busy   lipgloss.Style
	Echo   lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpPeach := lipgloss.Color("#fab387")
	cpSky := lipgloss.Color("#89dceb")
	cpText := lipgloss.Color("#cdd6f4")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpBase := lipgloss.Color("#1e1e2e")

	return Theme{
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(cpSky),
		Input:  lipgloss.NewStyle().Foreground(cpText),
		Cursor: lipgloss.NewStyle().Foreground(cpBase).Background(cpMauve),
		Busy:   lipgloss.NewStyle().Italic(true).Foreground(cpPeach),
		Echo:   lipgloss.NewStyle().Foreground(cpOverlay1),
	}
}

// RenderInput draws the edit line with the cursor on the rune at pos, or on
// a trailing blank when pos is at the end.
func (t Theme) RenderInput(input []rune, pos int) string {
	if pos < 0 {
		pos = 0
	}
	if pos > len(input) {
		pos = len(input)
	}
	under := " "
	after := ""
	if pos < len(input) {
		under = string(input[pos])
		after = string(input[pos+1:])
	}
	return t.Input.Render(string(input[:pos])) + t.Cursor.Render(under) + t.Input.Render(after)
}
