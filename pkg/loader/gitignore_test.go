package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/nodetree/pkg/config"
)

func TestCoversDir(t *testing.T) {
	tests := []struct {
		line    string
		matches bool
	}{
		{".nodetree", true},
		{".nodetree/", true},
		{".nodetree/*", true},
		{".nodetree/**", true},
		{".nodetree/**/*", true},
		{"/.nodetree/", true},

		{"", false},
		{".nodetree2", false},
		{".nodetree-backup", false},
		{"nodetree/", false},
		{".nodetree/state.json", false},
		{"*.nodetree", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := coversDir(tt.line, config.StateDirName); got != tt.matches {
				t.Errorf("coversDir(%q) = %v, want %v", tt.line, got, tt.matches)
			}
		})
	}
}

func TestGitignoreCovers(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected bool
	}{
		{"empty file", "", false},
		{"bare dir", "node_modules/\n.nodetree\n*.log\n", true},
		{"dir with slash", ".nodetree/\n", true},
		{"commented out", "# .nodetree/\n", false},
		{"indented", "   .nodetree/  \n", true},
		{"lookalikes only", ".nodetree2/\nnodetree/\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".gitignore")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			got, err := gitignoreCovers(path, config.StateDirName)
			if err != nil {
				t.Fatalf("gitignoreCovers() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("gitignoreCovers() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGitignoreCoversMissingFile(t *testing.T) {
	_, err := gitignoreCovers(filepath.Join(t.TempDir(), ".gitignore"), config.StateDirName)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestEnsureStateDirInGitignore(t *testing.T) {
	tests := []struct {
		name       string
		existing   string
		create     bool
		wantPrefix string
		wantHeader bool
	}{
		{"new file", "", false, gitignoreHeader, true},
		{"trailing newline", "node_modules/\n", true, "node_modules/\n\n#", true},
		{"no trailing newline", "node_modules/", true, "node_modules/\n\n#", true},
		{"already present", ".nodetree\n", true, ".nodetree\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ".gitignore")
			if tt.create {
				if err := os.WriteFile(path, []byte(tt.existing), 0644); err != nil {
					t.Fatalf("failed to write .gitignore: %v", err)
				}
			}

			for i := 0; i < 2; i++ {
				if err := EnsureStateDirInGitignore(dir); err != nil {
					t.Fatalf("EnsureStateDirInGitignore() error = %v", err)
				}
			}

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read .gitignore: %v", err)
			}
			got := string(content)
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("expected prefix %q, got:\n%s", tt.wantPrefix, got)
			}
			if strings.Contains(got, gitignoreHeader) != tt.wantHeader {
				t.Errorf("header present = %v, want %v:\n%s", !tt.wantHeader, tt.wantHeader, got)
			}
			if tt.wantHeader && strings.Count(got, ".nodetree/") != 1 {
				t.Errorf("expected exactly one entry, got:\n%s", got)
			}
		})
	}
}

func TestEnsureStateDirInGitignoreUsesWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := EnsureStateDirInGitignore(""); err != nil {
		t.Fatalf("EnsureStateDirInGitignore() error = %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatalf("failed to read .gitignore: %v", err)
	}
	if !strings.Contains(string(content), ".nodetree/") {
		t.Errorf("expected .nodetree/ entry, got:\n%s", content)
	}
}
