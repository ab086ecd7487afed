// Package launch starts external processes on behalf of the picker:
// editor binaries, terminals, and the occasional xdg-open fallback.
// Everything is spawned detached so quitting the picker never kills the
// thing it just opened.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/vanderheijden86/projector/internal/datasource"
	"github.com/vanderheijden86/projector/pkg/debug"
)

// OpenInIDE launches the editor with the given path as its argument.
func OpenInIDE(ide datasource.IDE, path string) error {
	bin, err := exec.LookPath(ide.Command)
	if err != nil {
		return fmt.Errorf("%s not found on PATH: %w", ide.Command, err)
	}
	cmd := exec.Command(bin, path)
	return startDetached(cmd)
}

// terminalSpec describes how one terminal emulator takes a working
// directory. Terminals without a workdir flag get cwd set instead.
type terminalSpec struct {
	name        string
	workdirFlag string
}

// knownTerminals in preference order: desktop defaults first, then the
// generic alternatives.
var knownTerminals = []terminalSpec{
	{name: "konsole", workdirFlag: "--workdir"},
	{name: "gnome-terminal", workdirFlag: "--working-directory"},
	{name: "xfce4-terminal", workdirFlag: "--working-directory"},
	{name: "x-terminal-emulator"},
	{name: "kitty"},
	{name: "alacritty"},
}

// SpawnTerminal opens a terminal in the given directory. A preferred
// terminal name (from config) is tried first; otherwise the known
// terminals are probed in order, with xdg-open as the last resort.
// Returns the command that was launched.
func SpawnTerminal(dir, preferred string) (string, error) {
	candidates := knownTerminals
	if preferred != "" {
		spec := terminalSpec{name: preferred}
		for _, t := range knownTerminals {
			if t.name == preferred {
				spec = t
				break
			}
		}
		candidates = append([]terminalSpec{spec}, knownTerminals...)
	}

	for _, t := range candidates {
		bin, err := exec.LookPath(t.name)
		if err != nil {
			continue
		}
		cmd := exec.Command(bin, TerminalArgs(t.name, dir)...)
		if t.workdirFlag == "" {
			cmd.Dir = dir
		}
		if err := startDetached(cmd); err != nil {
			return "", fmt.Errorf("starting %s: %w", t.name, err)
		}
		return t.name, nil
	}

	// Last resort: xdg-open (may open a file manager instead)
	bin, err := exec.LookPath("xdg-open")
	if err != nil {
		return "", fmt.Errorf("no terminal emulator found")
	}
	if err := startDetached(exec.Command(bin, dir)); err != nil {
		return "", fmt.Errorf("starting xdg-open: %w", err)
	}
	return "xdg-open", nil
}

// TerminalArgs returns the argument list used to open the named terminal
// in the given directory. Exposed for tests.
func TerminalArgs(name, dir string) []string {
	for _, t := range knownTerminals {
		if t.name == name && t.workdirFlag != "" {
			return []string{t.workdirFlag, dir}
		}
	}
	return nil
}

// CreateProject makes a new project directory under root and returns its
// path. An already-existing directory is returned as-is so the caller can
// open it instead of erroring.
func CreateProject(root, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("project name is empty")
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("project name must not contain %q", string(filepath.Separator))
	}
	if root == "" {
		return "", fmt.Errorf("no projects root configured")
	}

	path := filepath.Join(root, name)
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("%s exists and is not a directory", path)
		}
		return path, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("creating project directory: %w", err)
	}
	return path, nil
}

// startDetached starts the command in its own session with the picker's
// stdio disconnected, then releases it.
func startDetached(cmd *exec.Cmd) error {
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	debug.Log("launched %s (pid %d)", cmd.Path, cmd.Process.Pid)
	return cmd.Process.Release()
}
