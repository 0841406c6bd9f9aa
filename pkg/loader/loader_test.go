package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

func TestLoadNodesJSONL(t *testing.T) {
	input := `{"id":"root1","parent_id":null,"type":"folder","title":"Root","order":0,"collapsed":false}

{"id":"leaf1","parent_id":"root1","type":"file","title":"Leaf","order":1}
`
	nodes, err := LoadNodes(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, "root1", nodes[0].ID)
	assert.True(t, nodes[0].IsRoot())
	require.NotNil(t, nodes[0].Collapsed)
	assert.False(t, *nodes[0].Collapsed)
	assert.Equal(t, "root1", nodes[1].ParentID)
	assert.Nil(t, nodes[1].Collapsed)
	assert.Equal(t, 1.0, nodes[1].Order)
}

func TestLoadNodesJSONArray(t *testing.T) {
	input := `  [
  {"id":"a","type":"folder","title":"A","order":0},
  {"id":"b","parent_id":"a","type":"document","title":"B","order":0}
]`
	nodes, err := LoadNodes(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, model.TypeDocument, nodes[1].Type)
}

func TestLoadNodesEmpty(t *testing.T) {
	for _, input := range []string{"", "\n\n  \n", "[]"} {
		nodes, err := LoadNodes(strings.NewReader(input))
		require.NoError(t, err, "input %q", input)
		assert.NotNil(t, nodes)
		assert.Empty(t, nodes)
	}
}

func TestLoadNodesErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"malformed line", "{\"id\":\"a\",\"type\":\"folder\"}\n{not json}\n", "line 2"},
		{"missing id", `{"type":"folder","title":"x"}`, "ID cannot be empty"},
		{"missing type", `{"id":"a"}`, "invalid node type"},
		{"self parent", `{"id":"a","parent_id":"a","type":"folder"}`, "own parent"},
		{"bad array record", `[{"id":"a","type":""}]`, "record 0"},
		{"truncated array", `[{"id":"a"`, "decoding JSON array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadNodes(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteNodesJSONLSorted(t *testing.T) {
	nodes := []model.NodeRecord{
		{ID: "b2", ParentID: "b", Type: model.TypeFile, Order: 1},
		{ID: "b", Type: model.TypeFolder, Order: 1},
		{ID: "b1", ParentID: "b", Type: model.TypeFile, Order: 0},
		{ID: "a", Type: model.TypeFolder, Order: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteNodesJSONL(&buf, nodes))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"id":"a"`)
	assert.Contains(t, lines[1], `"id":"b"`)
	assert.Contains(t, lines[2], `"id":"b1"`)
	assert.Contains(t, lines[3], `"id":"b2"`)
	assert.NotContains(t, lines[0], "parent_id", "root records omit the parent")
	assert.Equal(t, "b2", nodes[0].ID, "input must not be reordered")
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.jsonl")
	nodes := []model.NodeRecord{
		{ID: "r", Type: model.TypeFolder, Title: "Root", Collapsed: model.BoolPtr(true)},
		{ID: "c", ParentID: "r", Type: model.TypeCode, Title: "main.go", Order: 2.5},
	}

	require.NoError(t, SaveNodesToFile(path, nodes))
	loaded, err := LoadNodesFromFile(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, nodes, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestLoadNodesFromFileMissing(t *testing.T) {
	_, err := LoadNodesFromFile(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
