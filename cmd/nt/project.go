package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/nodetree/pkg/config"
	"github.com/vanderheijden86/nodetree/pkg/loader"
	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/store"
)

var errNoProject = errors.New("no nodetree project found (run `nt init` or pass --project/--source)")

// workspace is an opened node source plus the project it belongs to.
type workspace struct {
	root string // project root; for a bare --source, the file's directory
	cfg  *config.Config
	kind string // config.SourceSQLite or config.SourceJSONL
	path string

	store *store.Store // nil for JSONL sources
}

// sourceKind guesses the kind of a source file from its extension.
func sourceKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".json", ".ndjson":
		return config.SourceJSONL
	}
	return config.SourceSQLite
}

// findRoot resolves the project root from --project or the working
// directory.
func (e *env) findRoot() (string, error) {
	start := e.project()
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = wd
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	root, ok := config.FindProjectRoot(abs)
	if !ok {
		return "", errNoProject
	}
	return root, nil
}

// loadProjectConfig reads the project's config, falling back to defaults
// when the state directory exists without a config file.
func loadProjectConfig(root string) (*config.Config, error) {
	cfg, err := config.LoadConfig(config.ConfigPath(root))
	if errors.Is(err, fs.ErrNotExist) {
		def := config.DefaultConfig()
		return &def, nil
	}
	return cfg, err
}

// openWorkspace resolves and opens the node source. --source wins over the
// project config.
func (e *env) openWorkspace() (*workspace, error) {
	ws := &workspace{}

	if src := e.source(); src != "" {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, err
		}
		ws.path = abs
		ws.kind = sourceKind(abs)
		if root, err := e.findRoot(); err == nil {
			ws.root = root
		} else {
			ws.root = filepath.Dir(abs)
		}
		def := config.DefaultConfig()
		ws.cfg = &def
		if cfg, err := loadProjectConfig(ws.root); err == nil {
			ws.cfg = cfg
		}
	} else {
		root, err := e.findRoot()
		if err != nil {
			return nil, err
		}
		cfg, err := loadProjectConfig(root)
		if err != nil {
			return nil, err
		}
		ws.root = root
		ws.cfg = cfg
		ws.kind = cfg.Source.Kind
		ws.path = cfg.ResolvedSourcePath(root)
	}

	if ws.kind == config.SourceSQLite {
		s, err := store.Open(ws.path)
		if err != nil {
			return nil, err
		}
		ws.store = s
	}

	e.logger.WithFields(logrus.Fields{
		"root":   ws.root,
		"source": ws.path,
		"kind":   ws.kind,
	}).Debug("opened workspace")
	return ws, nil
}

// Close releases the store, if any.
func (w *workspace) Close() error {
	if w.store == nil {
		return nil
	}
	return w.store.Close()
}

// Nodes reads the current snapshot.
func (w *workspace) Nodes(ctx context.Context) ([]model.NodeRecord, error) {
	if w.store != nil {
		return w.store.Snapshot(ctx)
	}
	nodes, err := loader.LoadNodesFromFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.NodeRecord{}, nil
	}
	return nodes, err
}

// Mutate runs fn against a store. JSONL sources are loaded into an
// in-memory store and written back only when fn succeeds.
func (w *workspace) Mutate(ctx context.Context, fn func(s *store.Store) error) error {
	if w.store != nil {
		return fn(w.store)
	}

	nodes, err := w.Nodes(ctx)
	if err != nil {
		return err
	}
	mem, err := store.OpenMemory()
	if err != nil {
		return err
	}
	defer mem.Close()

	if err := mem.Import(ctx, nodes); err != nil {
		return fmt.Errorf("loading %s: %w", w.path, err)
	}
	if err := fn(mem); err != nil {
		return err
	}
	updated, err := mem.Snapshot(ctx)
	if err != nil {
		return err
	}
	return loader.SaveNodesToFile(w.path, updated)
}

// StateDir is where view state is kept for this workspace.
func (w *workspace) StateDir() string {
	return config.StateDir(w.root)
}
