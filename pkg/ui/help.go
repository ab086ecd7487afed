package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// helpMarkdown is the help overlay content, rendered with glamour.
const helpMarkdown = `# pj - project launcher

Lists the projects your editors opened recently, across every installed
VS Code-family editor.

## Keys

| Key | Action |
|-----|--------|
| enter | Open the selected project in the current editor |
| n | Create a new project directory and open it |
| o | Open an arbitrary path |
| / | Filter the list (fuzzy) |
| p | Pin / unpin the selected project |
| x | Remove the project from every editor's history |
| t | Open a terminal in the project directory |
| y | Copy the project path to the clipboard |
| tab, s | Cycle the editor used for opening |
| r | Refresh the list |
| q | Quit |

Pinned projects (★) stay at the top. A pinned project whose directory has
been deleted is shown with a [missing] marker until you unpin or remove it.

Pin state is stored in ~/.config/pj/config.yaml. Editor history databases
are only written when you remove an entry.
`

// helpView renders the glamour help overlay.
func (m Model) helpView(w, h int) string {
	wrap := min(w-8, 76)
	if wrap < 20 {
		wrap = 20
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	var body string
	if err == nil {
		body, err = renderer.Render(helpMarkdown)
	}
	if err != nil {
		// Fall back to plain text if the renderer is unhappy
		body = helpMarkdown
	}

	box := m.theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(0, 1).
		Render(body + "\n" + m.theme.MutedText.Italic(true).Render(" press any key to close "))

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
}
