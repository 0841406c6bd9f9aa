package analysis

import (
	"reflect"
	"testing"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

func rec(id, parent string, typ model.NodeType, order float64) model.NodeRecord {
	return model.NodeRecord{ID: id, ParentID: parent, Type: typ, Title: id, Order: order}
}

func TestCheckIntegrityHealthy(t *testing.T) {
	nodes := []model.NodeRecord{
		rec("root", "", model.TypeFolder, 0),
		rec("a", "root", model.TypeFolder, 0),
		rec("b", "root", model.TypeDocument, 1),
		rec("a1", "a", model.TypeFile, 0),
	}

	report := CheckIntegrity(nodes)
	if !report.OK() {
		t.Fatalf("expected healthy report, got %+v", report)
	}
	if report.Total != 4 || report.Reachable != 4 {
		t.Errorf("Total/Reachable = %d/%d, want 4/4", report.Total, report.Reachable)
	}
	if len(report.Repairs) != 0 {
		t.Errorf("expected no repairs, got %+v", report.Repairs)
	}
}

func TestCheckIntegrityEmpty(t *testing.T) {
	report := CheckIntegrity(nil)
	if !report.OK() || report.Total != 0 || report.Reachable != 0 {
		t.Errorf("unexpected report for empty snapshot: %+v", report)
	}
}

// TestCheckIntegrityDamage verifies every damage class is reported
func TestCheckIntegrityDamage(t *testing.T) {
	nodes := []model.NodeRecord{
		rec("root", "", model.TypeFolder, 0),
		rec("doc", "root", model.TypeDocument, 0),
		rec("under-doc", "doc", model.TypeFile, 1),
		rec("orphan", "ghost", model.TypeFolder, 0),
		rec("below-orphan", "orphan", model.TypeFile, 0),
		rec("self", "self", model.TypeFolder, 0),
		rec("loop-b", "loop-c", model.TypeFolder, 0),
		rec("loop-c", "loop-a", model.TypeFolder, 0),
		rec("loop-a", "loop-b", model.TypeFolder, 0),
		rec("tail", "loop-a", model.TypeFile, 0),
		rec("root", "", model.TypeFolder, 9),
	}

	report := CheckIntegrity(nodes)
	if report.OK() {
		t.Fatal("expected damaged report")
	}

	checks := []struct {
		name string
		got  []string
		want []string
	}{
		{"orphans", report.Orphans, []string{"orphan"}},
		{"self parented", report.SelfParented, []string{"self"}},
		{"leaf parents", report.LeafParents, []string{"doc"}},
		{"duplicates", report.DuplicateIDs, []string{"root"}},
		{"unreachable", report.Unreachable, []string{"below-orphan", "loop-a", "loop-b", "loop-c", "orphan", "self", "tail"}},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !reflect.DeepEqual(c.got, c.want) {
				t.Errorf("got %v, want %v", c.got, c.want)
			}
		})
	}

	wantCycles := [][]string{{"loop-a", "loop-b", "loop-c"}}
	if !reflect.DeepEqual(report.Cycles, wantCycles) {
		t.Errorf("Cycles = %v, want %v", report.Cycles, wantCycles)
	}
	if report.Reachable != 3 {
		t.Errorf("Reachable = %d, want 3", report.Reachable)
	}
	// orphan, self, one cycle, doc, root
	if got := report.ProblemCount(); got != 5 {
		t.Errorf("ProblemCount = %d, want 5", got)
	}

	repaired := map[string]bool{}
	for _, r := range report.Repairs {
		repaired[r.NodeID] = true
	}
	for _, id := range []string{"orphan", "self", "loop-a"} {
		if !repaired[id] {
			t.Errorf("expected a repair suggestion for %s", id)
		}
	}
}

func TestCheckIntegrityOrderTies(t *testing.T) {
	nodes := []model.NodeRecord{
		rec("p", "", model.TypeFolder, 0),
		rec("x", "p", model.TypeFile, 1),
		rec("y", "p", model.TypeFile, 1),
		rec("z", "p", model.TypeFile, 2),
		rec("q", "", model.TypeFolder, 0),
	}

	report := CheckIntegrity(nodes)
	want := []OrderTie{
		{ParentID: "", Order: 0, IDs: []string{"p", "q"}},
		{ParentID: "p", Order: 1, IDs: []string{"x", "y"}},
	}
	if !reflect.DeepEqual(report.OrderTies, want) {
		t.Errorf("OrderTies = %+v, want %+v", report.OrderTies, want)
	}
	if !report.OK() {
		t.Error("order ties alone should not fail the report")
	}
}

func TestComputeDataHash(t *testing.T) {
	a := []model.NodeRecord{
		rec("a", "", model.TypeFolder, 0),
		rec("b", "a", model.TypeFile, 1),
	}
	reversed := []model.NodeRecord{a[1], a[0]}

	if ComputeDataHash(a) != ComputeDataHash(reversed) {
		t.Error("hash depends on record order")
	}
	if len(ComputeDataHash(a)) != 16 {
		t.Errorf("expected 16 hex chars, got %q", ComputeDataHash(a))
	}

	mutations := map[string]func(n *model.NodeRecord){
		"title":     func(n *model.NodeRecord) { n.Title = "changed" },
		"order":     func(n *model.NodeRecord) { n.Order = 2 },
		"parent":    func(n *model.NodeRecord) { n.ParentID = "" },
		"type":      func(n *model.NodeRecord) { n.Type = model.TypeDrawing },
		"collapsed": func(n *model.NodeRecord) { n.Collapsed = model.BoolPtr(false) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			changed := []model.NodeRecord{a[0], a[1].Clone()}
			mutate(&changed[1])
			if ComputeDataHash(changed) == ComputeDataHash(a) {
				t.Errorf("hash unchanged after %s change", name)
			}
		})
	}

	flagTrue := []model.NodeRecord{{ID: "f", Type: model.TypeFolder, Collapsed: model.BoolPtr(true)}}
	flagNil := []model.NodeRecord{{ID: "f", Type: model.TypeFolder}}
	if ComputeDataHash(flagTrue) == ComputeDataHash(flagNil) {
		t.Error("explicit collapsed flag should hash differently from an absent one")
	}
}
