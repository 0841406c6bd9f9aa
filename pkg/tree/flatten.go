package tree

import "github.com/vanderheijden86/nodetree/pkg/model"

// FlatTreeNode is one visible row of the tree, in render order.
type FlatTreeNode struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Type        model.NodeType `json:"type"`
	Depth       int            `json:"depth"`
	HasChildren bool           `json:"has_children"`
	IsExpanded  bool           `json:"is_expanded"`
	ParentID    string         `json:"parent_id,omitempty"`
	Order       float64        `json:"order"`
}

// IsFolder returns true if the row is a folder
func (f FlatTreeNode) IsFolder() bool {
	return f.Type.IsFolder()
}

// FlattenTree returns exactly the rows a list view must render: a pre-order
// walk from the roots that descends only into expanded folders.
//
// HasChildren is only set for folders. Leaf nodes never descend, whatever the
// map says about them.
func FlattenTree(nodes []model.NodeRecord, expanded ExpandMap) []FlatTreeNode {
	idx := newSnapshotIndex(nodes)
	rows := make([]FlatTreeNode, 0, len(idx.children[""]))
	visited := make(map[string]bool)

	var walk func(parentID string, depth int)
	walk = func(parentID string, depth int) {
		if depth > idx.budget() {
			return
		}
		for _, n := range idx.children[parentID] {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true

			folder := n.IsFolder()
			open := folder && expanded[n.ID]
			rows = append(rows, FlatTreeNode{
				ID:          n.ID,
				Title:       n.Title,
				Type:        n.Type,
				Depth:       depth,
				HasChildren: folder && len(idx.children[n.ID]) > 0,
				IsExpanded:  open,
				ParentID:    n.ParentID,
				Order:       n.Order,
			})
			if open {
				walk(n.ID, depth+1)
			}
		}
	}
	walk("", 0)
	return rows
}

// CountVisibleNodes returns len(FlattenTree(nodes, expanded)).
func CountVisibleNodes(nodes []model.NodeRecord, expanded ExpandMap) int {
	return len(FlattenTree(nodes, expanded))
}

// IndexOfRow returns the position of id in rows, or -1.
func IndexOfRow(rows []FlatTreeNode, id string) int {
	for i, r := range rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}
