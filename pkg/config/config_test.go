package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "name: notes\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Name != "notes" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Source.Kind != SourceSQLite {
		t.Errorf("Source.Kind = %q, want sqlite", cfg.Source.Kind)
	}
	if cfg.Source.Path != filepath.Join(StateDirName, "nodes.db") {
		t.Errorf("Source.Path = %q", cfg.Source.Path)
	}
	if !cfg.Watch.IsEnabled() || cfg.Watch.DebounceMS != DefaultDebounceMS {
		t.Errorf("unexpected watch defaults: %+v", cfg.Watch)
	}
}

func TestLoadConfigFull(t *testing.T) {
	content := `
name: wiki
source:
  kind: jsonl
  path: data/nodes.jsonl
ui:
  page_size: 20
  show_order: true
watch:
  enabled: false
  debounce_ms: 50
`
	cfg, err := LoadConfig(writeConfig(t, content))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Source.Kind != SourceJSONL || cfg.Source.Path != "data/nodes.jsonl" {
		t.Errorf("unexpected source: %+v", cfg.Source)
	}
	if cfg.UI.PageSize != 20 || !cfg.UI.ShowOrder {
		t.Errorf("unexpected ui: %+v", cfg.UI)
	}
	if cfg.Watch.IsEnabled() || cfg.Watch.DebounceMS != 50 {
		t.Errorf("unexpected watch: %+v", cfg.Watch)
	}
	if got := cfg.ResolvedSourcePath("/proj"); got != filepath.Join("/proj", "data/nodes.jsonl") {
		t.Errorf("ResolvedSourcePath = %q", got)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad kind", "source:\n  kind: postgres\n  path: x\n", "source.kind"},
		{"empty path", "source:\n  kind: jsonl\n  path: \"\"\n", "source.path"},
		{"negative page", "ui:\n  page_size: -1\n", "page_size"},
		{"not yaml", "source: [unclosed\n", "parsing project config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Name = "roundtrip"

	if err := SaveConfig(ConfigPath(root), cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	loaded, err := LoadConfig(ConfigPath(root))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Name != "roundtrip" || loaded.Source != cfg.Source {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded.DisplayName(root) != "roundtrip" {
		t.Errorf("DisplayName = %q", loaded.DisplayName(root))
	}
	if (&Config{}).DisplayName("/x/proj") != "proj" {
		t.Error("DisplayName should fall back to the directory name")
	}
}

func TestResolvedSourcePathAbsolute(t *testing.T) {
	cfg := Config{Source: SourceConfig{Kind: SourceSQLite, Path: "/abs/nodes.db"}}
	if got := cfg.ResolvedSourcePath("/proj"); got != "/abs/nodes.db" {
		t.Errorf("ResolvedSourcePath = %q", got)
	}
}
