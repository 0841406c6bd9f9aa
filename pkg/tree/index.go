// Package tree derives navigable views from a flat snapshot of node records:
// the nested hierarchy, the flattened row list a virtualized view renders,
// ancestor paths, sibling order values and folder expand state.
//
// Every function is a pure mapping from its inputs to a fresh output. Nothing
// here performs I/O, keeps state between calls, or mutates its arguments.
// Snapshots may be transiently inconsistent (orphans, cycles, order ties), so
// every walk carries a depth budget and degrades to an empty or partial result
// instead of failing.
package tree

import (
	"sort"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// snapshotIndex is a per-call arena over a snapshot, addressed by id.
// Children lists are pre-sorted in sibling order. The "" key holds the roots.
type snapshotIndex struct {
	byID     map[string]model.NodeRecord
	children map[string][]model.NodeRecord
}

// lookupByID maps ids to records. On duplicate ids the first record wins.
func lookupByID(nodes []model.NodeRecord) map[string]model.NodeRecord {
	byID := make(map[string]model.NodeRecord, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			continue
		}
		byID[n.ID] = n
	}
	return byID
}

func newSnapshotIndex(nodes []model.NodeRecord) *snapshotIndex {
	idx := &snapshotIndex{
		byID:     make(map[string]model.NodeRecord, len(nodes)),
		children: make(map[string][]model.NodeRecord),
	}
	for _, n := range nodes {
		if _, dup := idx.byID[n.ID]; dup {
			continue
		}
		idx.byID[n.ID] = n
		idx.children[n.ParentID] = append(idx.children[n.ParentID], n)
	}
	for _, siblings := range idx.children {
		sortSiblings(siblings)
	}
	return idx
}

// budget is the maximum number of steps any walk over the snapshot may take.
func (idx *snapshotIndex) budget() int {
	return len(idx.byID)
}

// sortSiblings orders records by Order ascending, breaking ties by ID so that
// output is stable even when the data source does not preserve array order.
func sortSiblings(nodes []model.NodeRecord) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func cloneRecords(nodes []model.NodeRecord) []model.NodeRecord {
	out := make([]model.NodeRecord, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
