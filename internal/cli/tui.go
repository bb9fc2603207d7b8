package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowpack/pkg/layout"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// AlgorithmPicker - Interactive algorithm selection
// =============================================================================

// AlgorithmPicker is the bubbletea model behind `layout -i`.
type AlgorithmPicker struct {
	Algorithms []layout.Algorithm
	Cursor     int
	Selected   *layout.Algorithm
}

// NewAlgorithmPicker creates a picker with the cursor on current, or on
// the first algorithm when current is not in the list.
func NewAlgorithmPicker(current layout.Algorithm) AlgorithmPicker {
	m := AlgorithmPicker{Algorithms: layout.Algorithms}
	for i, a := range m.Algorithms {
		if a == current {
			m.Cursor = i
		}
	}
	return m
}

func (m AlgorithmPicker) Init() tea.Cmd {
	return nil
}

func (m AlgorithmPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Algorithms)-1 {
			m.Cursor++
		}
	case "enter":
		a := m.Algorithms[m.Cursor]
		m.Selected = &a
		return m, tea.Quit
	}
	return m, nil
}

func (m AlgorithmPicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layout Algorithm"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, a := range m.Algorithms {
		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		line := fmt.Sprintf("%s%-8s", cursor, a)
		b.WriteString(style.Render(line))
		b.WriteString("  ")
		b.WriteString(listDimStyle.Render(a.Description()))
		b.WriteString("\n")
	}
	return b.String()
}

// pickAlgorithm runs the picker on stderr. It returns false when the user
// quits without choosing.
func pickAlgorithm(current layout.Algorithm) (layout.Algorithm, bool, error) {
	final, err := tea.NewProgram(NewAlgorithmPicker(current), tea.WithOutput(statusOut)).Run()
	if err != nil {
		return "", false, fmt.Errorf("algorithm picker: %w", err)
	}
	m, ok := final.(AlgorithmPicker)
	if !ok || m.Selected == nil {
		return "", false, nil
	}
	return *m.Selected, true, nil
}

// =============================================================================
// Algorithm Table
// =============================================================================

// algorithmTable renders every algorithm with its description and tuning.
func algorithmTable() string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, len(layout.Algorithms))
	for i, a := range layout.Algorithms {
		def := ""
		if a == layout.DefaultAlgorithm {
			def = iconSuccess
		}
		rows[i] = []string{a.String(), def, a.Description(), formatTuning(a)}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Algorithm", "Default", "Description", "Tuning").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 0:
				return base.Foreground(colorCyan)
			case col == 1:
				return base.Foreground(colorGreen)
			case col == 3:
				return base.Foreground(colorDim)
			}
			return base
		})

	return t.Render()
}

// formatTuning lists an algorithm's option defaults, one per line.
func formatTuning(a layout.Algorithm) string {
	opts := layout.AlgorithmOptions(a)
	lines := make([]string, 0, len(opts))
	for _, k := range opts.Keys() {
		lines = append(lines, k+"="+opts[k])
	}
	return strings.Join(lines, "\n")
}
