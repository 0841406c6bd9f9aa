package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/nodetree/pkg/config"
)

const gitignoreHeader = "# nodetree config and view state"

// EnsureStateDirInGitignore makes sure the project's .gitignore covers the
// state directory. The file is created if missing; existing content is kept.
// Calling it again is a no-op. An empty projectDir means the working directory.
func EnsureStateDirInGitignore(projectDir string) error {
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		projectDir = wd
	}
	return ensureGitignoreEntry(filepath.Join(projectDir, ".gitignore"), config.StateDirName)
}

func ensureGitignoreEntry(path, dir string) error {
	covered, err := gitignoreCovers(path, dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if covered {
		return nil
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var b strings.Builder
	if len(existing) > 0 {
		if existing[len(existing)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(gitignoreHeader + "\n" + dir + "/\n")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// gitignoreCovers reports whether any active line of the file ignores dir.
func gitignoreCovers(path, dir string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if coversDir(line, dir) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// coversDir matches the usual spellings of a directory rule: dir, dir/,
// dir/*, dir/** and dir/**/*, each with an optional leading slash.
func coversDir(line, dir string) bool {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(line, "/"), dir)
	if !ok {
		return false
	}
	switch rest {
	case "", "/", "/*", "/**", "/**/*":
		return true
	}
	return false
}
