package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// WalkBrowser - Interactive walk listing
// =============================================================================

// WalkBrowser is the bubbletea model behind "walks browse". The list view
// shows one row per sample; enter opens the node sequence of the selected
// walk.
type WalkBrowser struct {
	Samples []string
	Walks   []pangraph.Walk
	Cursor  int
	Height  int
	Offset  int
	Width   int

	// Detail is set while the walk of the cursor row is shown.
	Detail bool
	// Scroll is the first visible line of the detail view.
	Scroll int
}

func newWalkBrowser(samples []string, walks []pangraph.Walk) WalkBrowser {
	return WalkBrowser{Samples: samples, Walks: walks, Height: 15, Width: 80}
}

func (m WalkBrowser) Init() tea.Cmd {
	return nil
}

func (m WalkBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Detail {
				m.Detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.Detail {
				if m.Scroll > 0 {
					m.Scroll--
				}
			} else if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Detail {
				if m.Scroll < len(m.detailLines())-1 {
					m.Scroll++
				}
			} else if m.Cursor < len(m.Samples)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if !m.Detail && m.Walks[m.Cursor] != nil {
				m.Detail = true
				m.Scroll = 0
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		m.Width = max(msg.Width, 20)
	}
	return m, nil
}

func (m WalkBrowser) View() string {
	if m.Detail {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Walks"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ show walk  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Samples))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		w := m.Walks[i]
		if w == nil {
			rows = append(rows, []string{cursor, m.Samples[i], "—", "—", "—"})
			continue
		}
		rows = append(rows, []string{cursor, m.Samples[i], fmt.Sprint(len(w)), w[0].String(), w[len(w)-1].String()})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Sample", "Nodes", "First", "Last").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			switch {
			case idx >= len(m.Samples):
				return lipgloss.NewStyle()
			case m.Walks[idx] == nil:
				return lipgloss.NewStyle().Foreground(colorDim)
			case idx == m.Cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Samples))))
	return b.String()
}

// detailLines wraps the walk of the cursor row to the terminal width.
func (m WalkBrowser) detailLines() []string {
	w := m.Walks[m.Cursor]
	var lines []string
	var line strings.Builder
	for i, n := range w {
		s := n.String()
		if i < len(w)-1 {
			s += ","
		}
		if line.Len() > 0 && line.Len()+len(s) > m.Width-2 {
			lines = append(lines, line.String())
			line.Reset()
		}
		line.WriteString(s)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func (m WalkBrowser) detailView() string {
	var b strings.Builder
	b.WriteString(listSelectedStyle.Render(m.Samples[m.Cursor]))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d nodes", len(m.Walks[m.Cursor]))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ scroll  esc back  q quit"))
	b.WriteString("\n\n")

	lines := m.detailLines()
	end := min(m.Scroll+m.Height, len(lines))
	for _, l := range lines[m.Scroll:end] {
		b.WriteString(StyleValue.Render(l))
		b.WriteString("\n")
	}
	return b.String()
}
