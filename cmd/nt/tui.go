package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/nodetree/pkg/config"
	"github.com/vanderheijden86/nodetree/pkg/treestate"
	"github.com/vanderheijden86/nodetree/pkg/ui"
)

func newTUICmd(e *env) *cobra.Command {
	var (
		scanPaths []string
		scanDepth int
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the tree interactively",
		Long: `Open the terminal tree browser. The view reloads when the source changes
on disk. Editing keys (a, r, m, d) need an SQLite source.

Outside a project, a picker lists the projects found under --scan.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := e.openWorkspace()
			if errors.Is(err, errNoProject) {
				picked, ok, perr := pickProject(scanPaths, scanDepth)
				if perr != nil {
					return perr
				}
				if !ok {
					return nil
				}
				e.v.Set("project", picked.Path)
				ws, err = e.openWorkspace()
			}
			if err != nil {
				return err
			}
			defer ws.Close()
			return e.runBrowser(ws)
		},
	}
	cmd.Flags().StringSliceVar(&scanPaths, "scan", nil, "Directories to search for projects (default: home and working directory)")
	cmd.Flags().IntVar(&scanDepth, "scan-depth", config.DefaultScanDepth, "How deep to search for projects")
	return cmd
}

// pickProject runs the project picker. ok is false when the user quit
// without choosing.
func pickProject(scanPaths []string, depth int) (config.Project, bool, error) {
	if len(scanPaths) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			scanPaths = append(scanPaths, home)
		}
		if wd, err := os.Getwd(); err == nil {
			scanPaths = append(scanPaths, wd)
		}
	}
	projects := config.DiscoverProjects(scanPaths, depth)
	if len(projects) == 0 {
		return config.Project{}, false, errNoProject
	}

	picker := ui.NewProjectPicker(projects, ui.DefaultTheme(lipgloss.DefaultRenderer()))
	final, err := tea.NewProgram(picker, tea.WithAltScreen()).Run()
	if err != nil {
		return config.Project{}, false, err
	}
	chosen, ok := final.(ui.ProjectPickerModel).Chosen()
	return chosen, ok, nil
}

// runBrowser wires the worker, the writer and the app together and runs
// the program until the user quits.
func (e *env) runBrowser(ws *workspace) error {
	logOut, closeLog := e.tuiLogOutput(ws)
	defer closeLog()
	e.logger.SetOutput(logOut)
	treestate.SetLogger(e.logger)

	cfg := ws.cfg
	wcfg := ui.WorkerConfig{
		DebounceDelay: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		Logger:        e.logger,
	}
	if cfg.Watch.IsEnabled() {
		wcfg.SourcePath = ws.path
	}
	if ws.store != nil {
		wcfg.Source = ws.store
	} else {
		wcfg.Source = ui.FileSource(ws.path)
	}
	worker, err := ui.NewBackgroundWorker(wcfg)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer worker.Stop()

	// The SQLite store keeps expand state in the collapsed flags; snapshot
	// files keep it beside the config instead.
	stateDir := ""
	if ws.store == nil {
		if info, err := os.Stat(ws.StateDir()); err == nil && info.IsDir() {
			stateDir = ws.StateDir()
		}
	}

	app := ui.NewApp(ui.AppConfig{
		Title:     cfg.DisplayName(ws.root),
		Worker:    worker,
		Writer:    ui.NewNodeWriter(ws.store),
		StateDir:  stateDir,
		ShowOrder: cfg.UI.ShowOrder,
		PageSize:  cfg.UI.PageSize,
		Logger:    e.logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	worker.SetProgram(p)
	if err := worker.Start(); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	_, err = p.Run()
	return err
}

// tuiLogOutput sends logs to .nodetree/nt.log while the screen belongs to
// the browser. Without a state directory logs are dropped.
func (e *env) tuiLogOutput(ws *workspace) (io.Writer, func()) {
	dir := ws.StateDir()
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "nt.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}
