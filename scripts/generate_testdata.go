//go:build ignore

// generate_testdata.go creates a synthetic editor config tree for manual
// testing. Usage: go run scripts/generate_testdata.go [dir]
//
// Creates under dir (default ./testdata/config):
//   Code/User/globalStorage/state.vscdb      (8 projects)
//   Cursor/User/globalStorage/state.vscdb    (4 projects, 2 shared)
//   VSCodium/User/globalStorage/state.vscdb  (2 projects)
//
// Point the picker at it with PJ_CONFIG_ROOT to exercise multi-editor
// merging without touching real editor state:
//
//	PJ_CONFIG_ROOT=testdata/config pj --list
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/projector/pkg/testutil"
)

type storeSpec struct {
	configDir string
	projects  []string
}

var stores = []storeSpec{
	{"Code", []string{
		"~/src/api-gateway",
		"~/src/billing-service",
		"~/src/frontend",
		"~/src/infra-terraform",
		"~/src/dotfiles",
		"~/src/notes",
		"~/src/scratch",
		"~/src/shared-libs",
	}},
	{"Cursor", []string{
		"~/src/api-gateway",
		"~/src/frontend",
		"~/src/ml-experiments",
		"~/src/cursor-only",
	}},
	{"VSCodium", []string{
		"~/src/dotfiles",
		"~/src/codium-only",
	}},
}

func main() {
	root := "testdata/config"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "home directory: %v\n", err)
		os.Exit(1)
	}

	for _, spec := range stores {
		paths := make([]string, len(spec.projects))
		for i, p := range spec.projects {
			paths[i] = filepath.Join(home, p[2:])
		}

		dbPath := filepath.Join(root, spec.configDir, "User", "globalStorage", "state.vscdb")
		if err := testutil.CreateHistoryDB(dbPath, paths); err != nil {
			fmt.Fprintf(os.Stderr, "creating %s: %v\n", dbPath, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s (%d projects)\n", dbPath, len(paths))
	}
}
