package tree

import (
	"sort"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// BaseOrder is the order given to the first child of a parent.
const BaseOrder float64 = 0

// OrderAssignment is the order value one sibling should be written with.
type OrderAssignment struct {
	ID    string  `json:"id"`
	Order float64 `json:"order"`
}

// ReorderPlan is a complete order assignment for a sibling set.
// InsertOrder is the order reserved for the inserted item.
type ReorderPlan struct {
	Assignments []OrderAssignment `json:"assignments"`
	InsertOrder float64           `json:"insert_order"`
}

// OrderOf returns the planned order for id.
func (p ReorderPlan) OrderOf(id string) (float64, bool) {
	for _, a := range p.Assignments {
		if a.ID == id {
			return a.Order, true
		}
	}
	return 0, false
}

// GetNextOrder returns one past the largest order among the children of
// parentID, or BaseOrder if it has none. Used when appending a child.
func GetNextOrder(nodes []model.NodeRecord, parentID string) float64 {
	found := false
	highest := BaseOrder
	for _, n := range nodes {
		if n.ParentID != parentID {
			continue
		}
		if !found || n.Order > highest {
			highest = n.Order
			found = true
		}
	}
	if !found {
		return BaseOrder
	}
	return highest + 1
}

// CalculateReorderAfterInsert renumbers siblings to consecutive integers in
// their current sequence, leaving slot insertIndex free for a new item.
//
// insertIndex 0 places the item before every sibling; len(siblings) places it
// after all of them. Out of range values are clamped. The whole plan must be
// written together: renumbering only the moved item would leave gaps and ties.
// Midpoint averaging is deliberately avoided since it loses precision over
// long editing sessions.
func CalculateReorderAfterInsert(siblings []model.NodeRecord, insertIndex int) ReorderPlan {
	sorted := make([]model.NodeRecord, len(siblings))
	copy(sorted, siblings)
	sortSiblings(sorted)

	if insertIndex < 0 {
		insertIndex = 0
	}
	if insertIndex > len(sorted) {
		insertIndex = len(sorted)
	}

	plan := ReorderPlan{
		Assignments: make([]OrderAssignment, 0, len(sorted)),
		InsertOrder: BaseOrder + float64(insertIndex),
	}
	for i, s := range sorted {
		slot := i
		if i >= insertIndex {
			slot = i + 1
		}
		plan.Assignments = append(plan.Assignments, OrderAssignment{
			ID:    s.ID,
			Order: BaseOrder + float64(slot),
		})
	}
	return plan
}

// CalculateMove plans moving movingID to position toIndex among siblings.
// movingID may or may not already be one of the siblings (a reorder within a
// parent vs. a move in from elsewhere). toIndex counts positions in the final
// sequence. The returned assignments include the moving node.
func CalculateMove(siblings []model.NodeRecord, movingID string, toIndex int) ReorderPlan {
	rest := make([]model.NodeRecord, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != movingID {
			rest = append(rest, s)
		}
	}

	plan := CalculateReorderAfterInsert(rest, toIndex)
	plan.Assignments = append(plan.Assignments, OrderAssignment{ID: movingID, Order: plan.InsertOrder})
	sort.Slice(plan.Assignments, func(i, j int) bool {
		return plan.Assignments[i].Order < plan.Assignments[j].Order
	})
	return plan
}
