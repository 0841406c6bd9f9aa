package tree

import (
	"reflect"
	"testing"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// TestInitializeExpandedFoldersScenario verifies persisted flags and the closed default
func TestInitializeExpandedFoldersScenario(t *testing.T) {
	nodes := append(scenarioNodes(), folder("unflagged", "", 1))

	got := InitializeExpandedFolders(nodes)
	want := ExpandMap{"root1": true, "child1": false, "unflagged": false}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InitializeExpandedFolders = %v, want %v", got, want)
	}
}

// TestExpandCollapseAllOverwrite verifies bulk operations ignore prior state
func TestExpandCollapseAllOverwrite(t *testing.T) {
	nodes := scenarioNodes()

	all := CalculateExpandAllFolders(nodes)
	if !reflect.DeepEqual(all, ExpandMap{"root1": true, "child1": true}) {
		t.Errorf("expand all = %v", all)
	}
	none := CalculateCollapseAllFolders(nodes)
	if !reflect.DeepEqual(none, ExpandMap{"root1": false, "child1": false}) {
		t.Errorf("collapse all = %v", none)
	}
	if !reflect.DeepEqual(CalculateCollapseAllFolders(nodes), none) {
		t.Error("collapse all is not idempotent")
	}
	if _, ok := all["leaf1"]; ok {
		t.Error("leaf nodes must not appear in the expand map")
	}
}

func TestCalculateExpandedFoldersForNode(t *testing.T) {
	got := CalculateExpandedFoldersForNode(scenarioNodes(), "leaf1")
	want := ExpandMap{"root1": true, "child1": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := CalculateExpandedFoldersForNode(scenarioNodes(), "root1"); len(got) != 0 {
		t.Errorf("revealing a root should open nothing, got %v", got)
	}
}

// TestMergeExpandedFoldersForNode verifies merge keeps prior entries and never closes
func TestMergeExpandedFoldersForNode(t *testing.T) {
	nodes := append(scenarioNodes(), folder("other", "", 1))
	current := ExpandMap{"other": true, "root1": false}

	got := MergeExpandedFoldersForNode(current, nodes, "leaf1")
	want := ExpandMap{"other": true, "root1": true, "child1": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merge = %v, want %v", got, want)
	}
	if current["root1"] {
		t.Error("merge mutated the input map")
	}

	fromNil := MergeExpandedFoldersForNode(nil, nodes, "child1")
	if !reflect.DeepEqual(fromNil, ExpandMap{"root1": true}) {
		t.Errorf("merge from nil = %v", fromNil)
	}
}

func TestHasFolders(t *testing.T) {
	if HasFolders(nil) {
		t.Error("empty snapshot has no folders")
	}
	if HasFolders([]model.NodeRecord{leaf("a", "", 0)}) {
		t.Error("leaf-only snapshot has no folders")
	}
	if !HasFolders(scenarioNodes()) {
		t.Error("scenario has folders")
	}
}

func TestToggleFolder(t *testing.T) {
	nodes := scenarioNodes()
	current := ExpandMap{"root1": true}

	got := ToggleFolder(current, nodes, "root1")
	if got["root1"] {
		t.Error("expected root1 closed after toggle")
	}
	got = ToggleFolder(got, nodes, "child1")
	if !got["child1"] {
		t.Error("expected child1 opened after toggle")
	}
	if same := ToggleFolder(current, nodes, "leaf1"); !reflect.DeepEqual(same, current) {
		t.Errorf("toggling a leaf changed the map: %v", same)
	}
	if !current["root1"] {
		t.Error("toggle mutated the input map")
	}
}

func TestPruneExpandedFolders(t *testing.T) {
	nodes := scenarioNodes()
	current := ExpandMap{"root1": true, "leaf1": true, "deleted": true, "child1": false}

	got := PruneExpandedFolders(current, nodes)
	want := ExpandMap{"root1": true, "child1": false}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("prune = %v, want %v", got, want)
	}
}

// TestCollapsedFlags verifies only disagreeing folders are written back
func TestCollapsedFlags(t *testing.T) {
	nodes := append(scenarioNodes(), folder("unflagged", "", 1))

	got := CollapsedFlags(ExpandMap{"root1": true, "child1": true}, nodes)
	want := map[string]bool{"child1": false, "unflagged": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollapsedFlags = %v, want %v", got, want)
	}

	roundTrip := CollapsedFlags(InitializeExpandedFolders(scenarioNodes()), scenarioNodes())
	if len(roundTrip) != 0 {
		t.Errorf("initial map should need no writes, got %v", roundTrip)
	}
}

func TestExpandMapHelpers(t *testing.T) {
	var m ExpandMap
	clone := m.Clone()
	clone["x"] = true
	if m != nil {
		t.Error("clone of nil should not write back")
	}
	if got := (ExpandMap{"a": true, "b": false, "c": true}).ExpandedCount(); got != 2 {
		t.Errorf("ExpandedCount = %d, want 2", got)
	}
}
