package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func browser() WalkBrowser {
	return newWalkBrowser(
		[]string{"CHM13", "HG00438", "NA12878"},
		[]pangraph.Walk{
			{pangraph.Fwd("s1"), pangraph.Fwd("s2")},
			{pangraph.Fwd("s1"), pangraph.Rev("s5"), pangraph.Fwd("s2")},
			nil,
		},
	)
}

func update(m WalkBrowser, keys ...string) WalkBrowser {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(WalkBrowser)
	}
	return m
}

func TestWalkBrowser_Navigation(t *testing.T) {
	m := update(browser(), "down", "down", "down")
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2 (clamped)", m.Cursor)
	}
	m = update(m, "up", "k")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", m.Cursor)
	}
}

func TestWalkBrowser_Detail(t *testing.T) {
	m := update(browser(), "j", "enter")
	if !m.Detail {
		t.Fatal("enter should open the walk")
	}
	if view := m.View(); !strings.Contains(view, "s1+,s5-,s2+") {
		t.Errorf("detail view missing walk:\n%s", view)
	}
	m = update(m, "esc")
	if m.Detail {
		t.Error("esc should return to the list")
	}
}

func TestWalkBrowser_MissingWalkHasNoDetail(t *testing.T) {
	m := update(browser(), "j", "j", "enter")
	if m.Detail {
		t.Error("a sample without a walk has no detail view")
	}
	if view := m.View(); !strings.Contains(view, "NA12878") {
		t.Errorf("list view missing sample:\n%s", view)
	}
}

func TestWalkBrowser_DetailWraps(t *testing.T) {
	m := browser()
	m.Width = 10
	m = update(m, "j", "enter")
	lines := m.detailLines()
	if len(lines) != 2 || lines[0] != "s1+,s5-," || lines[1] != "s2+" {
		t.Errorf("detailLines() = %q", lines)
	}
}

func TestWalkBrowser_Quit(t *testing.T) {
	_, cmd := browser().Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}
