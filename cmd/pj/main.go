package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/projector/internal/datasource"
	"github.com/vanderheijden86/projector/pkg/config"
	"github.com/vanderheijden86/projector/pkg/debug"
	"github.com/vanderheijden86/projector/pkg/launch"
	"github.com/vanderheijden86/projector/pkg/registry"
	"github.com/vanderheijden86/projector/pkg/ui"
	"github.com/vanderheijden86/projector/pkg/version"
)

func main() {
	openPath := flag.String("open", "", "Open a path directly, bypassing the interactive list")
	ideFlag := flag.String("ide", "", "Editor to use for opening (code, insiders, cursor, ...)")
	listFlag := flag.Bool("list", false, "Print the merged project list and exit")
	sourcesFlag := flag.Bool("sources", false, "Print per-editor store diagnostics and exit")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *help {
		fmt.Println("Usage: pj [options]")
		fmt.Println("\nA terminal launcher for recently opened editor projects.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("pj %s\n", version.Version)
		os.Exit(0)
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: %v\n", cfgErr)
		cfg = config.DefaultConfig()
	}

	ides := launchableIDEs()

	// Direct open bypasses discovery entirely
	if *openPath != "" {
		ide, err := pickIDE(ides, *ideFlag, cfg.DefaultIDE)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := launch.OpenInIDE(ide, *openPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *sourcesFlag {
		if err := printSources(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		ConfigRoot:             os.Getenv("PJ_CONFIG_ROOT"),
		ValidateAfterDiscovery: true,
		IncludeInvalid:         true,
		Verbose:                debug.Enabled(),
		Logger:                 func(msg string) { debug.Log("%s", msg) },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering editor stores: %v\n", err)
		os.Exit(1)
	}

	if len(sources) == 0 && len(cfg.Pinned) == 0 && cfg.ProjectsRoot == "" {
		fmt.Fprintln(os.Stderr, "No editor history stores found.")
		fmt.Fprintln(os.Stderr, "Install a VS Code-family editor, or set projects_root in ~/.config/pj/config.yaml.")
		os.Exit(1)
	}

	reg := registry.New(registry.SourcesFor(sources), &cfg)

	// Piped or scripted use gets the plain listing, not the TUI
	if *listFlag || !term.IsTerminal(int(os.Stdin.Fd())) {
		if err := listProjects(reg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	storePaths := make([]string, len(sources))
	for i, src := range sources {
		storePaths[i] = src.Path
	}

	m := ui.NewModel(reg, ides, storePaths)
	defer m.Stop()

	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error running launcher: %v\n", err)
		os.Exit(1)
	}
}

// launchableIDEs returns the known editors whose binary is on PATH, in
// table order.
func launchableIDEs() []datasource.IDE {
	var ides []datasource.IDE
	for _, ide := range datasource.KnownIDEs {
		if ide.OnPath() {
			ides = append(ides, ide)
		}
	}
	return ides
}

// pickIDE resolves the editor for direct open: explicit flag first, then
// the configured default, then the first launchable one.
func pickIDE(ides []datasource.IDE, flagID, configID string) (datasource.IDE, error) {
	if flagID != "" {
		ide, ok := datasource.FindIDE(flagID)
		if !ok {
			return datasource.IDE{}, fmt.Errorf("unknown editor %q", flagID)
		}
		if !ide.OnPath() {
			return datasource.IDE{}, fmt.Errorf("%s not found on PATH", ide.Command)
		}
		return ide, nil
	}
	if configID != "" {
		for _, ide := range ides {
			if ide.ID == configID {
				return ide, nil
			}
		}
	}
	if len(ides) == 0 {
		return datasource.IDE{}, fmt.Errorf("no launchable editor found on PATH")
	}
	return ides[0], nil
}

// printSources reads every discovered store concurrently and prints one
// diagnostic line per editor.
func printSources() error {
	results, err := datasource.Load(context.Background(), datasource.DiscoveryOptions{
		ConfigRoot: os.Getenv("PJ_CONFIG_ROOT"),
		Verbose:    debug.Enabled(),
		Logger:     func(msg string) { debug.Log("%s", msg) },
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No editor history stores found.")
		return nil
	}
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("%-12s %s\n    error: %v\n", res.Source.IDE.ID, res.Source.Path, res.Err)
			continue
		}
		fmt.Printf("%-12s %s\n    %d entries, modified %s\n",
			res.Source.IDE.ID, res.Source.Path,
			len(res.Entries), res.Source.ModTime.Format(time.RFC3339))
	}
	return nil
}

// listProjects prints the merged registry, one project per line.
func listProjects(reg *registry.Registry) error {
	if err := reg.Refresh(context.Background()); err != nil {
		return err
	}
	for _, warning := range reg.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}
	for _, rec := range reg.Records() {
		marker := " "
		if rec.Pinned {
			marker = "*"
		}
		fmt.Printf("%s %s\t[%s]\n", marker, rec.Path, strings.Join(rec.Sources, ","))
	}
	return nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set PJ_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("PJ_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
