// Package ui implements the interactive project picker: a bubbletea
// program over the merged project registry. The UI is a state machine of
// input modes; browse is the default, search re-ranks on every keystroke,
// and destructive actions go through an explicit confirmation mode.
package ui

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/projector/internal/datasource"
	"github.com/vanderheijden86/projector/pkg/debug"
	"github.com/vanderheijden86/projector/pkg/fuzzy"
	"github.com/vanderheijden86/projector/pkg/launch"
	"github.com/vanderheijden86/projector/pkg/registry"
	"github.com/vanderheijden86/projector/pkg/watcher"
)

// focus represents which input mode has the keyboard.
type focus int

const (
	focusBrowse focus = iota
	focusSearch
	focusConfirmDelete
	focusNewProject
	focusOpenPath
	focusHelp
)

// storeChangedMsg is emitted when a watched history store changes on disk.
type storeChangedMsg struct {
	index int
}

// Model is the picker's bubbletea model.
type Model struct {
	reg     *registry.Registry
	ides    []datasource.IDE
	ideIdx  int
	records []registry.ProjectRecord
	cursor  int
	focus   focus

	searchInput textinput.Model

	form        *huh.Form
	newName     string
	newLocation string
	openTarget  string

	confirmPath string

	watchers []*watcher.Watcher

	width     int
	height    int
	statusMsg string
	theme     Theme
	quitting  bool
}

// NewModel builds the picker over a refreshed registry. ides are the
// launchable editors in discovery order; storePaths are the history store
// files to watch for live refresh.
func NewModel(reg *registry.Registry, ides []datasource.IDE, storePaths []string) Model {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 100
	ti.Width = 40

	m := Model{
		reg:         reg,
		ides:        ides,
		searchInput: ti,
		theme:       DefaultTheme(lipgloss.DefaultRenderer()),
	}

	// Restore the preferred launch target
	if id := reg.Config().DefaultIDE; id != "" {
		for i, ide := range ides {
			if ide.ID == id {
				m.ideIdx = i
				break
			}
		}
	}

	for _, path := range storePaths {
		w, err := watcher.New(path)
		if err != nil {
			debug.Log("watcher for %s: %v", path, err)
			continue
		}
		m.watchers = append(m.watchers, w)
	}

	m.refresh()
	if warnings := reg.Warnings(); len(warnings) > 0 {
		m.statusMsg = warningStatus(warnings)
	}
	return m
}

// Stop shuts down the store watchers.
func (m Model) Stop() {
	for _, w := range m.watchers {
		w.Stop()
	}
}

// Init starts the store watchers and arms their change channels.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for i, w := range m.watchers {
		if err := w.Start(); err != nil {
			debug.Log("cannot watch %s: %v", w.Path(), err)
			continue
		}
		cmds = append(cmds, waitForChange(i, w))
	}
	return tea.Batch(cmds...)
}

// waitForChange blocks on a watcher's change channel and re-emits it as a
// message. Re-armed after every delivery.
func waitForChange(index int, w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return storeChangedMsg{index: index}
	}
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case storeChangedMsg:
		m.refresh()
		m.statusMsg = "Project list refreshed"
		if msg.index < len(m.watchers) {
			return m, waitForChange(msg.index, m.watchers[msg.index])
		}
		return m, nil

	case tea.KeyMsg:
		// Transient status clears on the next keypress
		m.statusMsg = ""

		switch m.focus {
		case focusSearch:
			return m.updateSearch(msg)
		case focusConfirmDelete:
			return m.updateConfirmDelete(msg)
		case focusNewProject, focusOpenPath:
			return m.updateForm(msg)
		case focusHelp:
			m.focus = focusBrowse
			return m, nil
		default:
			return m.updateBrowse(msg)
		}
	}

	if m.focus == focusNewProject || m.focus == focusOpenPath {
		return m.updateForm(msg)
	}
	return m, nil
}

// updateBrowse handles keys in the default mode.
func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, len(m.records)-1)

	case "enter":
		return m.openSelected()

	case "/":
		m.focus = focusSearch
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		m.cursor = 0
		m.applyRank()

	case "p", "P":
		if rec, ok := m.selected(); ok {
			pinned, err := m.reg.TogglePin(rec.Path)
			m.applyRank()
			switch {
			case err != nil:
				m.statusMsg = fmt.Sprintf("Pin not saved: %v", err)
			case pinned:
				m.statusMsg = fmt.Sprintf("Pinned %s", rec.Label)
			default:
				m.statusMsg = fmt.Sprintf("Unpinned %s", rec.Label)
			}
		}

	case "x", "X":
		if rec, ok := m.selected(); ok {
			m.confirmPath = rec.Path
			m.focus = focusConfirmDelete
		}

	case "t", "T":
		if rec, ok := m.selected(); ok {
			if rec.Missing {
				m.statusMsg = fmt.Sprintf("%s no longer exists", rec.Path)
				return m, nil
			}
			term, err := launch.SpawnTerminal(rec.Path, m.reg.Config().Terminal)
			if err != nil {
				m.statusMsg = fmt.Sprintf("Terminal failed: %v", err)
				return m, nil
			}
			debug.Log("spawned %s in %s", term, rec.Path)
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "s", "S":
		m.cycleIDE()

	case "n", "N":
		return m, m.startNewProjectForm()

	case "o", "O":
		return m, m.startOpenPathForm()

	case "y", "Y":
		if rec, ok := m.selected(); ok {
			if err := clipboard.WriteAll(rec.Path); err != nil {
				m.statusMsg = fmt.Sprintf("Clipboard failed: %v", err)
			} else {
				m.statusMsg = fmt.Sprintf("Copied %s", rec.Path)
			}
		}

	case "r", "R":
		m.refresh()
		m.statusMsg = "Project list refreshed"

	case "?":
		m.focus = focusHelp
	}
	return m, nil
}

// updateSearch handles keys while the filter input is focused.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusBrowse
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.cursor = 0
		m.applyRank()
		return m, nil

	case "enter":
		return m.openSelected()

	case "up", "ctrl+k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
		return m, nil

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.cursor = 0
		m.applyRank()
		return m, cmd
	}
}

// updateConfirmDelete requires an explicit yes before removal.
func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		path := m.confirmPath
		m.confirmPath = ""
		m.focus = focusBrowse
		warnings := m.reg.Remove(path)
		m.applyRank()
		if len(warnings) > 0 {
			m.statusMsg = warningStatus(warnings)
		} else {
			m.statusMsg = fmt.Sprintf("Removed %s", path)
		}
	case "n", "N", "esc", "q":
		m.confirmPath = ""
		m.focus = focusBrowse
	}
	return m, nil
}

// updateForm feeds messages to the active huh form and reacts when it
// completes or aborts.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.focus = focusBrowse
		return m, nil
	}

	// Always allow escape to close
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.form = nil
		m.focus = focusBrowse
		return m, nil
	}

	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.form = nil
		m.focus = focusBrowse
		return m, nil

	case huh.StateCompleted:
		kind := m.focus
		m.form = nil
		m.focus = focusBrowse
		if kind == focusNewProject {
			return m.finishNewProject()
		}
		return m.finishOpenPath()
	}

	return m, cmd
}

// startNewProjectForm opens the name/location form.
func (m *Model) startNewProjectForm() tea.Cmd {
	m.newName = ""
	m.newLocation = m.reg.Config().ProjectsRoot
	if m.newLocation == "" {
		if home, err := os.UserHomeDir(); err == nil {
			m.newLocation = home
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Project name").
				Value(&m.newName).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Key("location").
				Title("Location").
				Value(&m.newLocation),
		),
	).WithShowHelp(false).WithTheme(huh.ThemeDracula())

	m.focus = focusNewProject
	return m.form.Init()
}

// finishNewProject creates the directory and opens it.
func (m Model) finishNewProject() (tea.Model, tea.Cmd) {
	path, err := launch.CreateProject(m.newLocation, m.newName)
	if err != nil {
		m.statusMsg = fmt.Sprintf("New project failed: %v", err)
		return m, nil
	}
	return m.openPath(path)
}

// startOpenPathForm opens the direct-path form.
func (m *Model) startOpenPathForm() tea.Cmd {
	m.openTarget = m.reg.Config().ProjectsRoot

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Open path").
				Value(&m.openTarget).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithTheme(huh.ThemeDracula())

	m.focus = focusOpenPath
	return m.form.Init()
}

// finishOpenPath opens the entered path if it exists.
func (m Model) finishOpenPath() (tea.Model, tea.Cmd) {
	if _, err := os.Stat(m.openTarget); err != nil {
		m.statusMsg = fmt.Sprintf("No such path: %s", m.openTarget)
		return m, nil
	}
	return m.openPath(m.openTarget)
}

// openSelected launches the editor on the record under the cursor.
func (m Model) openSelected() (tea.Model, tea.Cmd) {
	rec, ok := m.selected()
	if !ok {
		return m, nil
	}
	if rec.Missing {
		m.statusMsg = fmt.Sprintf("%s no longer exists", rec.Path)
		return m, nil
	}
	return m.openPath(rec.Path)
}

// openPath launches the current editor on a path and quits on success.
func (m Model) openPath(path string) (tea.Model, tea.Cmd) {
	ide, ok := m.currentIDE()
	if !ok {
		m.statusMsg = "No launchable editor found on PATH"
		return m, nil
	}
	if err := launch.OpenInIDE(ide, path); err != nil {
		m.statusMsg = fmt.Sprintf("Launch failed: %v", err)
		return m, nil
	}
	m.quitting = true
	return m, tea.Quit
}

// cycleIDE switches the launch target to the next installed editor.
func (m *Model) cycleIDE() {
	if len(m.ides) == 0 {
		return
	}
	m.ideIdx = (m.ideIdx + 1) % len(m.ides)
	ide := m.ides[m.ideIdx]
	if err := m.reg.SetDefaultIDE(ide.ID); err != nil {
		m.statusMsg = fmt.Sprintf("Editor set to %s (not saved: %v)", ide.Label, err)
		return
	}
	m.statusMsg = fmt.Sprintf("Editor set to %s", ide.Label)
}

// currentIDE returns the active launch target.
func (m Model) currentIDE() (datasource.IDE, bool) {
	if len(m.ides) == 0 {
		return datasource.IDE{}, false
	}
	if m.ideIdx >= len(m.ides) {
		return m.ides[0], true
	}
	return m.ides[m.ideIdx], true
}

// selected returns the record under the cursor.
func (m Model) selected() (registry.ProjectRecord, bool) {
	if len(m.records) == 0 || m.cursor >= len(m.records) {
		return registry.ProjectRecord{}, false
	}
	return m.records[m.cursor], true
}

// query returns the active filter text.
func (m Model) query() string {
	if m.focus == focusSearch {
		return m.searchInput.Value()
	}
	return ""
}

// refresh re-reads the stores and re-ranks the view.
func (m *Model) refresh() {
	if err := m.reg.Refresh(context.Background()); err != nil {
		m.statusMsg = fmt.Sprintf("Refresh failed: %v", err)
	}
	m.applyRank()
}

// applyRank rebuilds the visible record list for the current query.
func (m *Model) applyRank() {
	m.records = fuzzy.Rank(m.query(), m.reg.Records())
	if m.cursor >= len(m.records) {
		m.cursor = max(0, len(m.records)-1)
	}
}

// warningStatus summarizes refresh/remove warnings for the status line.
func warningStatus(warnings []registry.Warning) string {
	if len(warnings) == 1 {
		return warnings[0].String()
	}
	return fmt.Sprintf("%s (+%d more)", warnings[0].String(), len(warnings)-1)
}
