// Package treestate persists the tree view's expand map for snapshot sources
// that cannot store collapsed flags themselves (JSONL files).
//
// File format (.nodetree/tree-state.json):
//
//	{
//	  "version": 1,
//	  "expanded": {
//	    "folder-a": true,
//	    "folder-b": false
//	  }
//	}
//
// A missing or corrupt file means "no saved state": callers fall back to the
// persisted collapsed flags of the snapshot.
package treestate

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/nodetree/pkg/tree"
)

// Version is the current schema version.
const Version = 1

const fileName = "tree-state.json"

// State is the on-disk form of an expand map.
type State struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
}

var logger = logrus.StandardLogger()

// SetLogger replaces the logger used for load/save warnings.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		logger = l
	}
}

// Path returns the state file location inside stateDir.
func Path(stateDir string) string {
	return filepath.Join(stateDir, fileName)
}

// Load returns the saved expand map, or nil if there is none. A corrupt file
// or an unknown schema version is logged and treated as absent.
func Load(stateDir string) tree.ExpandMap {
	path := Path(stateDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).WithField("path", path).Warn("cannot read tree state")
		}
		return nil
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		logger.WithError(err).WithField("path", path).Warn("invalid tree state file, using defaults")
		return nil
	}
	if state.Version != Version {
		logger.WithFields(logrus.Fields{"path": path, "version": state.Version}).
			Warn("unsupported tree state version, using defaults")
		return nil
	}
	return tree.ExpandMap(state.Expanded).Clone()
}

// Save writes expanded to stateDir, creating the directory if needed.
func Save(stateDir string, expanded tree.ExpandMap) error {
	state := State{Version: Version, Expanded: expanded.Clone()}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tree state: %w", err)
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("create state directory %s: %w", stateDir, err)
	}
	path := Path(stateDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write tree state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace tree state: %w", err)
	}
	logger.WithFields(logrus.Fields{"path": path, "expanded": expanded.ExpandedCount()}).Debug("saved tree state")
	return nil
}
