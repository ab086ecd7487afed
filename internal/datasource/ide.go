package datasource

import "os/exec"

// IDE describes one known VS Code-family editor: where it keeps its
// per-user state and how to invoke it.
type IDE struct {
	// ID is the short identifier used in config and on the CLI
	ID string `json:"id"`
	// ConfigDir is the directory name under ~/.config
	ConfigDir string `json:"config_dir"`
	// Command is the launcher binary expected on PATH
	Command string `json:"command"`
	// Label is the human-readable name shown in the UI
	Label string `json:"label"`
}

// KnownIDEs lists the editors whose history stores we understand.
// All of them use the same state.vscdb layout.
var KnownIDEs = []IDE{
	{ID: "code", ConfigDir: "Code", Command: "code", Label: "VS Code"},
	{ID: "insiders", ConfigDir: "Code - Insiders", Command: "code-insiders", Label: "VS Code Insiders"},
	{ID: "antigravity", ConfigDir: "Antigravity", Command: "antigravity", Label: "Antigravity"},
	{ID: "cursor", ConfigDir: "Cursor", Command: "cursor", Label: "Cursor"},
	{ID: "vscodium", ConfigDir: "VSCodium", Command: "codium", Label: "VSCodium"},
}

// FindIDE returns the known IDE with the given ID, or false.
func FindIDE(id string) (IDE, bool) {
	for _, ide := range KnownIDEs {
		if ide.ID == id {
			return ide, true
		}
	}
	return IDE{}, false
}

// OnPath reports whether the IDE's launcher binary resolves on PATH.
func (i IDE) OnPath() bool {
	_, err := exec.LookPath(i.Command)
	return err == nil
}
