package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Project is a directory containing a .nodetree/ state directory.
type Project struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// DefaultScanDepth is used when DiscoverProjects gets a depth <= 0.
const DefaultScanDepth = 3

// DiscoverProjects scans each path for project directories, at most maxDepth
// levels deep. Results are de-duplicated and keep scan order.
func DiscoverProjects(scanPaths []string, maxDepth int) []Project {
	if maxDepth <= 0 {
		maxDepth = DefaultScanDepth
	}
	seen := make(map[string]bool)
	var result []Project
	for _, scanPath := range scanPaths {
		for _, found := range scanForProjects(scanPath, maxDepth) {
			if seen[found] {
				continue
			}
			seen[found] = true
			result = append(result, Project{Name: filepath.Base(found), Path: found})
		}
	}
	return result
}

// scanForProjects walks root up to maxDepth levels deep looking for
// directories that contain a state directory. Hidden directories are skipped
// and projects are not searched for nested projects.
func scanForProjects(root string, maxDepth int) []string {
	root = filepath.Clean(expandHome(root))
	var results []string

	rootDepth := strings.Count(root, string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}

		if strings.Count(filepath.Clean(path), string(filepath.Separator))-rootDepth > maxDepth {
			return filepath.SkipDir
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if isProjectDir(path) {
			results = append(results, path)
			return filepath.SkipDir
		}
		return nil
	})

	return results
}

// FindProjectRoot walks up from dir looking for a state directory, stopping
// at the home directory. An empty dir means the working directory.
func FindProjectRoot(dir string) (string, bool) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	home, _ := os.UserHomeDir()

	for {
		if isProjectDir(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

func isProjectDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, StateDirName))
	return err == nil && info.IsDir()
}
