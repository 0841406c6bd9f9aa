// Package analysis inspects node snapshots for structural damage the tree
// engine tolerates but should not hide: orphans, parent cycles, duplicate ids,
// leaf nodes used as parents and sibling order ties.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// Report summarizes the structural health of one snapshot.
type Report struct {
	Total        int          `json:"total"`
	Reachable    int          `json:"reachable"`               // Nodes reachable from a root
	Orphans      []string     `json:"orphans,omitempty"`       // Parent id missing from the snapshot
	SelfParented []string     `json:"self_parented,omitempty"` // Parent id equals own id
	Cycles       [][]string   `json:"cycles,omitempty"`        // Parent chains that loop, smallest id first
	Unreachable  []string     `json:"unreachable,omitempty"`   // Not reachable from any root, for any reason
	LeafParents  []string     `json:"leaf_parents,omitempty"`  // Non-folders that have children
	DuplicateIDs []string     `json:"duplicate_ids,omitempty"` // Ids carried by more than one record
	OrderTies    []OrderTie   `json:"order_ties,omitempty"`
	Repairs      []RepairItem `json:"repairs,omitempty"`
}

// OrderTie is a group of siblings sharing one order value. The engine breaks
// such ties by id; renumbering the siblings removes them.
type OrderTie struct {
	ParentID string   `json:"parent_id"`
	Order    float64  `json:"order"`
	IDs      []string `json:"ids"`
}

// RepairItem suggests one detach that makes a subtree reachable again.
type RepairItem struct {
	NodeID    string `json:"node_id"`
	Rationale string `json:"rationale"`
}

// OK returns true if the snapshot has no structural damage. Order ties are
// tolerated and do not affect the result.
func (r Report) OK() bool {
	return len(r.Orphans) == 0 &&
		len(r.SelfParented) == 0 &&
		len(r.Cycles) == 0 &&
		len(r.Unreachable) == 0 &&
		len(r.LeafParents) == 0 &&
		len(r.DuplicateIDs) == 0
}

// ProblemCount counts distinct problems. Unreachable nodes are left out since
// every one of them is already explained by an orphan, a cycle or a
// self-parented node upstream.
func (r Report) ProblemCount() int {
	return len(r.Orphans) + len(r.SelfParented) + len(r.Cycles) +
		len(r.LeafParents) + len(r.DuplicateIDs)
}

// CheckIntegrity builds a parent->child graph of the snapshot and reports
// every structural problem found.
func CheckIntegrity(nodes []model.NodeRecord) Report {
	report := Report{Total: len(nodes)}

	// Assign stable graph ids in id order so results are deterministic.
	byID := make(map[string]model.NodeRecord, len(nodes))
	seenDup := make(map[string]bool)
	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			if !seenDup[n.ID] {
				report.DuplicateIDs = append(report.DuplicateIDs, n.ID)
				seenDup[n.ID] = true
			}
			continue
		}
		byID[n.ID] = n
	}
	idList := make([]string, 0, len(byID))
	for id := range byID {
		idList = append(idList, id)
	}
	sort.Strings(idList)

	g := simple.NewDirectedGraph()
	gid := make(map[string]int64, len(idList))
	for i, id := range idList {
		gid[id] = int64(i)
		g.AddNode(simple.Node(int64(i)))
	}

	hasChildren := make(map[string]bool)
	var roots []string
	for _, id := range idList {
		n := byID[id]
		switch {
		case n.IsRoot():
			roots = append(roots, id)
		case n.ParentID == id:
			report.SelfParented = append(report.SelfParented, id)
			report.Repairs = append(report.Repairs, RepairItem{
				NodeID:    id,
				Rationale: "Node is its own parent; move it to the root level.",
			})
		default:
			parent, ok := byID[n.ParentID]
			if !ok {
				report.Orphans = append(report.Orphans, id)
				report.Repairs = append(report.Repairs, RepairItem{
					NodeID:    id,
					Rationale: "Parent " + n.ParentID + " does not exist; move the node to the root level or delete it.",
				})
				continue
			}
			hasChildren[parent.ID] = true
			g.SetEdge(simple.Edge{F: simple.Node(gid[parent.ID]), T: simple.Node(gid[id])})
		}
	}

	for _, id := range idList {
		if hasChildren[id] && !byID[id].IsFolder() {
			report.LeafParents = append(report.LeafParents, id)
		}
	}

	report.Cycles = findCycles(g, idList, byID)
	for _, cycle := range report.Cycles {
		report.Repairs = append(report.Repairs, RepairItem{
			NodeID:    cycle[0],
			Rationale: "Parent chain loops; detaching this node to the root level breaks the cycle.",
		})
	}

	reachable := make(map[int64]bool, len(idList))
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) { reachable[n.ID()] = true },
	}
	for _, root := range roots {
		bf.Walk(g, simple.Node(gid[root]), nil)
	}
	report.Reachable = len(reachable)
	for _, id := range idList {
		if !reachable[gid[id]] {
			report.Unreachable = append(report.Unreachable, id)
		}
	}

	report.OrderTies = findOrderTies(idList, byID)
	return report
}

// findCycles returns every parent loop, each listed from its smallest id
// following child->parent pointers. In a parent pointer graph every strongly
// connected component with more than one member is exactly one loop.
func findCycles(g *simple.DirectedGraph, idList []string, byID map[string]model.NodeRecord) [][]string {
	var cycles [][]string
	for _, component := range topo.TarjanSCC(g) {
		if len(component) < 2 {
			continue
		}
		start := idList[component[0].ID()]
		for _, n := range component[1:] {
			if id := idList[n.ID()]; id < start {
				start = id
			}
		}
		cycle := []string{start}
		for cur := byID[start].ParentID; cur != start && len(cycle) <= len(component); cur = byID[cur].ParentID {
			cycle = append(cycle, cur)
		}
		cycles = append(cycles, cycle)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func findOrderTies(idList []string, byID map[string]model.NodeRecord) []OrderTie {
	type slot struct {
		parent string
		order  float64
	}
	groups := make(map[slot][]string)
	for _, id := range idList {
		n := byID[id]
		key := slot{parent: n.ParentID, order: n.Order}
		groups[key] = append(groups[key], id)
	}

	var ties []OrderTie
	for key, ids := range groups {
		if len(ids) > 1 {
			ties = append(ties, OrderTie{ParentID: key.parent, Order: key.order, IDs: ids})
		}
	}
	sort.Slice(ties, func(i, j int) bool {
		if ties[i].ParentID != ties[j].ParentID {
			return ties[i].ParentID < ties[j].ParentID
		}
		return ties[i].Order < ties[j].Order
	})
	return ties
}
