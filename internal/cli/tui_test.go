package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/flowpack/pkg/layout"
)

func press(m tea.Model, keys ...tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(k)
	}
	return m, cmd
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyJ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
)

func TestNewAlgorithmPicker(t *testing.T) {
	tests := []struct {
		current layout.Algorithm
		want    int
	}{
		{layout.Layered, 0},
		{layout.Radial, 4},
		{"", 0},
	}
	for _, tt := range tests {
		if got := NewAlgorithmPicker(tt.current).Cursor; got != tt.want {
			t.Errorf("NewAlgorithmPicker(%q).Cursor = %d, want %d", tt.current, got, tt.want)
		}
	}
}

func TestAlgorithmPickerSelect(t *testing.T) {
	m, cmd := press(NewAlgorithmPicker(layout.Layered), keyDown, keyJ, keyUp, keyDown, keyEnter)

	p := m.(AlgorithmPicker)
	if p.Selected == nil {
		t.Fatal("Selected = nil after enter")
	}
	if *p.Selected != layout.Algorithms[2] {
		t.Errorf("Selected = %s, want %s", *p.Selected, layout.Algorithms[2])
	}
	if cmd == nil {
		t.Error("enter did not quit the program")
	}
}

func TestAlgorithmPickerBounds(t *testing.T) {
	m, _ := press(NewAlgorithmPicker(layout.Layered), keyUp, keyUp)
	if got := m.(AlgorithmPicker).Cursor; got != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", got)
	}

	keys := make([]tea.KeyMsg, len(layout.Algorithms)+3)
	for i := range keys {
		keys[i] = keyDown
	}
	m, _ = press(m, keys...)
	if got := m.(AlgorithmPicker).Cursor; got != len(layout.Algorithms)-1 {
		t.Errorf("Cursor = %d after scrolling past the end, want %d", got, len(layout.Algorithms)-1)
	}
}

func TestAlgorithmPickerQuit(t *testing.T) {
	m, cmd := press(NewAlgorithmPicker(layout.Layered), keyDown, keyEsc)
	if m.(AlgorithmPicker).Selected != nil {
		t.Error("Selected set after esc")
	}
	if cmd == nil {
		t.Error("esc did not quit the program")
	}
}

func TestAlgorithmPickerView(t *testing.T) {
	view := NewAlgorithmPicker(layout.Force).View()
	for _, a := range layout.Algorithms {
		if !strings.Contains(view, a.String()) {
			t.Errorf("View() missing %s", a)
		}
	}
	if !strings.Contains(view, "▸ force") {
		t.Errorf("View() does not mark the cursor on force:\n%s", view)
	}
}

func TestFormatTuning(t *testing.T) {
	got := formatTuning(layout.Stress)
	if got != "elk.stress.desiredEdgeLength=300.0" {
		t.Errorf("formatTuning(stress) = %q", got)
	}
	if lines := strings.Split(formatTuning(layout.Layered), "\n"); len(lines) != 4 {
		t.Errorf("formatTuning(layered) has %d lines, want 4", len(lines))
	}
}
