package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/nodetree/pkg/config"
	"github.com/vanderheijden86/nodetree/pkg/loader"
	"github.com/vanderheijden86/nodetree/pkg/store"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

const sampleJSONL = `{"id":"projects","type":"folder","title":"Projects","order":0,"collapsed":false}
{"id":"alpha","parent_id":"projects","type":"folder","title":"Alpha","order":0,"collapsed":true}
{"id":"spec","parent_id":"alpha","type":"document","title":"spec","order":0}
{"id":"readme","parent_id":"projects","type":"document","title":"readme","order":1}
{"id":"inbox","type":"folder","title":"Inbox","order":1,"collapsed":true}
{"id":"todo","parent_id":"inbox","type":"code","title":"todo","order":0}
`

// testEnv returns an env without a terminal whose prompts must not be
// reached.
func testEnv(t *testing.T) *env {
	t.Helper()
	e := newEnv()
	e.stdinIsTerminal = func() bool { return false }
	e.promptTitle = func(string) (string, error) {
		t.Fatal("unexpected title prompt")
		return "", nil
	}
	e.confirm = func(string) (bool, error) {
		t.Fatal("unexpected confirm prompt")
		return false, nil
	}
	return e
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(e)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, e *env, args ...string) string {
	t.Helper()
	out, err := run(t, e, args...)
	require.NoError(t, err, "nt %s", strings.Join(args, " "))
	return out
}

// newProject creates a project of the given kind loaded with the sample
// snapshot and returns its root.
func newProject(t *testing.T, kind string) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, testEnv(t), "init", dir, "--kind", kind, "--no-gitignore")

	fixture := filepath.Join(t.TempDir(), "sample.jsonl")
	require.NoError(t, os.WriteFile(fixture, []byte(sampleJSONL), 0o644))
	out := mustRun(t, testEnv(t), "-C", dir, "import", fixture)
	require.Equal(t, "Imported 6 nodes\n", out)
	return dir
}

func flatIDs(t *testing.T, out string) []string {
	t.Helper()
	var rows []tree.FlatTreeNode
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestInitCreatesProject(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, testEnv(t), "init", dir, "--name", "Notes")
	assert.Contains(t, out, "Initialized")

	cfg, err := config.LoadConfig(config.ConfigPath(dir))
	require.NoError(t, err)
	assert.Equal(t, "Notes", cfg.Name)
	assert.Equal(t, config.SourceSQLite, cfg.Source.Kind)
	assert.FileExists(t, cfg.ResolvedSourcePath(dir))

	gitignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(gitignore), config.StateDirName+"/")

	out = mustRun(t, testEnv(t), "init", dir)
	assert.Contains(t, out, "Already initialized")

	_, err = run(t, testEnv(t), "init", t.TempDir(), "--kind", "xml")
	assert.Error(t, err)
}

func TestTreeOutput(t *testing.T) {
	for _, kind := range []string{config.SourceSQLite, config.SourceJSONL} {
		t.Run(kind, func(t *testing.T) {
			dir := newProject(t, kind)

			out := mustRun(t, testEnv(t), "-C", dir, "tree")
			want := strings.Join([]string{
				"▣ Projects",
				"├── ▣ Alpha",
				"│   └── ≡ spec",
				"└── ≡ readme",
				"▣ Inbox",
				"└── λ todo",
			}, "\n") + "\n"
			assert.Equal(t, want, out)

			out = mustRun(t, testEnv(t), "-C", dir, "--json", "tree")
			var roots []*tree.TreeNode
			require.NoError(t, json.Unmarshal([]byte(out), &roots))
			require.Len(t, roots, 2)
			assert.Equal(t, 6, tree.CountNodes(roots))
		})
	}
}

func TestTreeEmptyProject(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, testEnv(t), "init", dir, "--no-gitignore")
	assert.Equal(t, "(empty)\n", mustRun(t, testEnv(t), "-C", dir, "tree"))
}

func TestFlatModes(t *testing.T) {
	dir := newProject(t, config.SourceSQLite)

	tests := []struct {
		name  string
		flags []string
		want  []string
	}{
		{"stored flags", nil, []string{"projects", "alpha", "readme", "inbox"}},
		{"expand all", []string{"--expand-all"}, []string{"projects", "alpha", "spec", "readme", "inbox", "todo"}},
		{"collapse all", []string{"--collapse-all"}, []string{"projects", "inbox"}},
		{"reveal keeps open folders", []string{"--reveal", "todo"}, []string{"projects", "alpha", "readme", "inbox", "todo"}},
		{"reveal after collapse", []string{"--collapse-all", "--reveal", "spec"}, []string{"projects", "alpha", "spec", "readme", "inbox"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-C", dir, "--json", "flat"}, tt.flags...)
			assert.Equal(t, tt.want, flatIDs(t, mustRun(t, testEnv(t), args...)))
		})
	}

	_, err := run(t, testEnv(t), "-C", dir, "flat", "--expand-all", "--collapse-all")
	assert.Error(t, err)

	out := mustRun(t, testEnv(t), "-C", dir, "flat", "--ids")
	assert.Contains(t, out, "▾ ▣ Projects  (projects)")
	assert.Contains(t, out, "  ▸ ▣ Alpha  (alpha)")
}

func TestPath(t *testing.T) {
	dir := newProject(t, config.SourceSQLite)

	assert.Equal(t, "Projects / Alpha / spec\n", mustRun(t, testEnv(t), "-C", dir, "path", "spec"))

	out := mustRun(t, testEnv(t), "-C", dir, "--json", "path", "readme")
	var entries []pathEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "projects", entries[0].ID)

	_, err := run(t, testEnv(t), "-C", dir, "path", "ghost")
	assert.ErrorIs(t, err, store.ErrNodeNotFound)
}

func TestAddMoveRename(t *testing.T) {
	for _, kind := range []string{config.SourceSQLite, config.SourceJSONL} {
		t.Run(kind, func(t *testing.T) {
			dir := newProject(t, kind)
			e := testEnv(t)

			id := strings.TrimSpace(mustRun(t, e, "-C", dir, "add", "--title", "Later", "--parent", "inbox", "--index", "0"))
			require.NotEmpty(t, id)

			out := mustRun(t, testEnv(t), "-C", dir, "--json", "flat", "--reveal", id)
			assert.Equal(t, []string{"projects", "alpha", "readme", "inbox", id, "todo"}, flatIDs(t, out))

			out = mustRun(t, testEnv(t), "-C", dir, "move", "todo", "--to", "alpha")
			assert.Equal(t, "Moved todo to alpha\n", out)
			assert.Equal(t, "Projects / Alpha / todo\n", mustRun(t, testEnv(t), "-C", dir, "path", "todo"))

			mustRun(t, testEnv(t), "-C", dir, "move", "todo")
			assert.Equal(t, "todo\n", mustRun(t, testEnv(t), "-C", dir, "path", "todo"))

			out = mustRun(t, testEnv(t), "-C", dir, "rename", "todo", "Done", "list")
			assert.Equal(t, "Renamed todo to \"Done list\"\n", out)
			assert.Equal(t, "Done list\n", mustRun(t, testEnv(t), "-C", dir, "path", "todo"))
		})
	}
}

func TestAddWithFolderPath(t *testing.T) {
	dir := newProject(t, config.SourceSQLite)

	mustRun(t, testEnv(t), "-C", dir, "add", "--title", "notes", "--parent", "projects", "--path", "Alpha/Drafts")

	out := mustRun(t, testEnv(t), "-C", dir, "tree")
	assert.Contains(t, out, "│   ├── ≡ spec\n│   └── ▣ Drafts\n│       └── ≡ notes\n")
}

func TestMoveRejectsCycle(t *testing.T) {
	dir := newProject(t, config.SourceJSONL)
	before, err := os.ReadFile(filepath.Join(dir, "nodes.jsonl"))
	require.NoError(t, err)

	_, err = run(t, testEnv(t), "-C", dir, "move", "projects", "--to", "alpha")
	assert.ErrorIs(t, err, store.ErrCycle)

	after, err := os.ReadFile(filepath.Join(dir, "nodes.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "failed mutation must not rewrite the file")
}

func TestAddTitlePrompt(t *testing.T) {
	dir := newProject(t, config.SourceSQLite)

	_, err := run(t, testEnv(t), "-C", dir, "add")
	assert.EqualError(t, err, "--title is required")

	e := testEnv(t)
	e.stdinIsTerminal = func() bool { return true }
	e.promptTitle = func(label string) (string, error) { return "Prompted", nil }
	id := strings.TrimSpace(mustRun(t, e, "-C", dir, "add", "--type", "folder"))
	assert.Equal(t, "Prompted\n", mustRun(t, testEnv(t), "-C", dir, "path", id))

	e.promptTitle = func(string) (string, error) { return "", errAborted }
	_, err = run(t, e, "-C", dir, "add")
	assert.ErrorIs(t, err, errAborted)
}

func TestRm(t *testing.T) {
	dir := newProject(t, config.SourceSQLite)

	_, err := run(t, testEnv(t), "-C", dir, "rm", "alpha")
	assert.ErrorContains(t, err, "--yes")

	var asked string
	e := testEnv(t)
	e.stdinIsTerminal = func() bool { return true }
	e.confirm = func(q string) (bool, error) {
		asked = q
		return false, nil
	}
	assert.Equal(t, "Cancelled\n", mustRun(t, e, "-C", dir, "rm", "alpha"))
	assert.Equal(t, `Delete "Alpha" and 1 node(s) below it?`, asked)

	e.confirm = func(string) (bool, error) { return true, nil }
	assert.Equal(t, "Deleted 2 node(s)\n", mustRun(t, e, "-C", dir, "rm", "alpha"))

	assert.Equal(t, "Deleted 2 node(s)\n", mustRun(t, testEnv(t), "-C", dir, "rm", "inbox", "--yes"))

	_, err = run(t, testEnv(t), "-C", dir, "rm", "ghost", "--yes")
	assert.ErrorIs(t, err, store.ErrNodeNotFound)
}

func TestCheck(t *testing.T) {
	dir := newProject(t, config.SourceSQLite)
	out := mustRun(t, testEnv(t), "-C", dir, "check")
	assert.Equal(t, "6 nodes, 6 reachable from a root\nok\n", out)

	damaged := filepath.Join(t.TempDir(), "damaged.jsonl")
	require.NoError(t, os.WriteFile(damaged, []byte(sampleJSONL+
		`{"id":"lost","parent_id":"ghost","type":"document","title":"Lost","order":0}`+"\n"), 0o644))

	out, err := run(t, testEnv(t), "--source", damaged, "check")
	require.ErrorIs(t, err, errIntegrity)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, out, "orphans: lost")
	assert.Contains(t, out, "1 problem(s)")

	out, err = run(t, testEnv(t), "--source", damaged, "--json", "check")
	require.ErrorIs(t, err, errIntegrity)
	assert.Contains(t, out, `"orphans": [`)
}

func TestExport(t *testing.T) {
	dir := newProject(t, config.SourceSQLite)

	out := mustRun(t, testEnv(t), "-C", dir, "export")
	nodes, err := loader.LoadNodes(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, nodes, 6)

	target := filepath.Join(t.TempDir(), "out.jsonl")
	mustRun(t, testEnv(t), "-C", dir, "export", target)
	fromFile, err := loader.LoadNodesFromFile(target)
	require.NoError(t, err)
	assert.ElementsMatch(t, nodes, fromFile)
}

func TestSourceFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSONL), 0o644))
	t.Setenv("NODETREE_SOURCE", path)

	out := mustRun(t, testEnv(t), "path", "spec")
	assert.Equal(t, "Projects / Alpha / spec\n", out)
}

func TestNoProject(t *testing.T) {
	_, err := run(t, testEnv(t), "-C", t.TempDir(), "tree")
	assert.True(t, errors.Is(err, errNoProject), "got %v", err)
	assert.Equal(t, 1, exitCode(err))
}

func TestSourceKind(t *testing.T) {
	tests := map[string]string{
		"nodes.jsonl":  config.SourceJSONL,
		"nodes.JSON":   config.SourceJSONL,
		"x.ndjson":     config.SourceJSONL,
		"nodes.db":     config.SourceSQLite,
		"nodes.sqlite": config.SourceSQLite,
		"nodes":        config.SourceSQLite,
	}
	for path, want := range tests {
		assert.Equal(t, want, sourceKind(path), path)
	}
}
