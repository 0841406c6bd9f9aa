package treestate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/nodetree/pkg/tree"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	prev := logger
	SetLogger(l)
	t.Cleanup(func() { logger = prev })
	return &buf
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".nodetree")
	want := tree.ExpandMap{"a": true, "b": false}

	if err := Save(dir, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got := Load(dir)
	if len(got) != 2 || !got["a"] || got["b"] {
		t.Errorf("Load() = %v, want %v", got, want)
	}
	if _, err := os.Stat(Path(dir) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestLoadMissing(t *testing.T) {
	logs := captureLogs(t)
	if got := Load(t.TempDir()); got != nil {
		t.Errorf("expected nil for missing file, got %v", got)
	}
	if logs.Len() != 0 {
		t.Errorf("missing file should not log, got %q", logs.String())
	}
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantLog string
	}{
		{"not json", "{broken", "invalid tree state"},
		{"future version", `{"version": 99, "expanded": {"a": true}}`, "unsupported tree state version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			dir := t.TempDir()
			if err := os.WriteFile(Path(dir), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if got := Load(dir); got != nil {
				t.Errorf("expected nil, got %v", got)
			}
			if !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("expected log %q, got %q", tt.wantLog, logs.String())
			}
		})
	}
}

func TestSaveNilMap(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"expanded": {}`) {
		t.Errorf("expected empty object, got %s", data)
	}
	if got := Load(dir); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil map, got %v", got)
	}
}
