package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the picker.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w == 0 {
		w = 80
	}
	h := m.height
	if h == 0 {
		h = 24
	}

	switch m.focus {
	case focusHelp:
		return m.helpView(w, h)
	case focusNewProject, focusOpenPath:
		if m.form != nil {
			box := m.theme.Renderer.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(m.theme.Primary).
				Padding(1, 2).
				Render(m.form.View())
			return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
		}
	case focusConfirmDelete:
		return m.confirmView(w, h)
	}

	var b strings.Builder

	// Title bar with the active launch target
	title := " Project Launcher "
	if ide, ok := m.currentIDE(); ok {
		title = fmt.Sprintf(" Project Launcher [%s] ", ide.Label)
	}
	b.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Center, m.theme.Header.Render(title)))
	b.WriteString("\n")

	chrome := 3 // title + footer + status
	if m.focus == focusSearch {
		b.WriteString(" " + m.theme.PrimaryBold.Render("/") + " " + m.searchInput.View())
		b.WriteString("\n")
		chrome++
	}

	listHeight := h - chrome
	if listHeight < 1 {
		listHeight = 1
	}
	b.WriteString(m.listView(w, listHeight))

	b.WriteString(m.statusView(w))
	b.WriteString("\n")
	b.WriteString(m.footerView(w))

	return b.String()
}

// listView renders the scrolled record window.
func (m Model) listView(w, height int) string {
	t := m.theme

	if len(m.records) == 0 {
		var sb strings.Builder
		msg := "  No projects found"
		if m.query() != "" {
			msg = "  No matches"
		}
		sb.WriteString(t.MutedText.Italic(true).Render(msg))
		sb.WriteString(strings.Repeat("\n", height))
		return sb.String()
	}

	// Keep the cursor centered once the list overflows
	start := 0
	if len(m.records) > height {
		start = m.cursor - height/2
		if start+height > len(m.records) {
			start = len(m.records) - height
		}
		if start < 0 {
			start = 0
		}
	}
	end := min(start+height, len(m.records))

	var sb strings.Builder
	for i := start; i < end; i++ {
		rec := m.records[i]

		pin := "  "
		if rec.Pinned {
			pin = "★ "
		}

		if i == m.cursor {
			line := fmt.Sprintf("> %s%s  (%s)", pin, rec.Label, rec.Path)
			if rec.Missing {
				line += " [missing]"
			}
			line = truncate(line, w-3)
			sb.WriteString(t.Selected.Render(padRight(line, w-3)))
		} else {
			var line strings.Builder
			line.WriteString(" ")
			if rec.Pinned {
				line.WriteString(t.PinStar.Render(pin))
			} else {
				line.WriteString(pin)
			}
			line.WriteString(t.Base.Bold(true).Render(rec.Label))
			pathPart := fmt.Sprintf("  (%s)", rec.Path)
			avail := w - 4 - lipgloss.Width(rec.Label) - len(pin)
			if avail > 8 {
				line.WriteString(t.PathText.Render(truncate(pathPart, avail)))
			}
			if rec.Missing {
				line.WriteString(t.MissingMark.Render(" [missing]"))
			}
			sb.WriteString(line.String())
		}
		sb.WriteString("\n")
	}

	// Pad so the footer stays put on short lists
	for i := end - start; i < height; i++ {
		sb.WriteString("\n")
	}
	return sb.String()
}

// statusView renders the transient status line.
func (m Model) statusView(w int) string {
	if m.statusMsg == "" {
		return ""
	}
	return m.theme.MutedText.Italic(true).Render(truncate(" "+m.statusMsg, w-1))
}

// footerView renders the keybinding hints for the current mode.
func (m Model) footerView(w int) string {
	var text string
	switch m.focus {
	case focusSearch:
		text = " ENTER: Open | ESC: Clear Search | Type to filter "
	default:
		text = " ENTER: Open | n: New | o: Open path | /: Search | p: Pin | x: Remove | t: Terminal | TAB: Switch | ?: Help | q: Quit "
	}
	return m.theme.SecondaryText.Render(truncate(text, w-1))
}

// confirmView renders the delete confirmation overlay.
func (m Model) confirmView(w, h int) string {
	t := m.theme

	var lines []string
	lines = append(lines, t.PrimaryBold.Render("Remove from history?"))
	lines = append(lines, "")
	lines = append(lines, t.Base.Render(truncate(m.confirmPath, 60)))
	lines = append(lines, "")
	lines = append(lines, t.MutedText.Italic(true).Render("y: remove from every editor's history | n: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Missing).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
}
