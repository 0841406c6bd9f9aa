package tree

import (
	"slices"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// MaxPathDepth bounds upward walks in GetNodePath. Hitting it means the
// parent pointers loop.
const MaxPathDepth = 100

// TreeNode is the nested view of one node and its ordered children.
type TreeNode struct {
	ID       string         `json:"id"`
	Type     model.NodeType `json:"type"`
	Title    string         `json:"title"`
	Children []*TreeNode    `json:"children"`
}

// IsFolder returns true if the node is a folder
func (t *TreeNode) IsFolder() bool {
	return t.Type.IsFolder()
}

// GetRootNodes returns the nodes without a parent, in sibling order.
func GetRootNodes(nodes []model.NodeRecord) []model.NodeRecord {
	return GetChildNodes(nodes, "")
}

// GetChildNodes returns the direct children of parentID, in sibling order.
func GetChildNodes(nodes []model.NodeRecord, parentID string) []model.NodeRecord {
	idx := newSnapshotIndex(nodes)
	return cloneRecords(idx.children[parentID])
}

// BuildTree constructs the nested hierarchy reachable from the roots.
//
// Orphans (nodes whose parent is missing from the snapshot) and everything
// below them are left out: attaching them somewhere would present broken data
// as if it were valid. Nodes caught in a parent cycle can never be reached
// from a root and are left out for the same reason.
func BuildTree(nodes []model.NodeRecord) []*TreeNode {
	idx := newSnapshotIndex(nodes)
	visited := make(map[string]bool, idx.budget())

	var build func(n model.NodeRecord, depth int) *TreeNode
	build = func(n model.NodeRecord, depth int) *TreeNode {
		visited[n.ID] = true
		children := idx.children[n.ID]
		node := &TreeNode{
			ID:       n.ID,
			Type:     n.Type,
			Title:    n.Title,
			Children: make([]*TreeNode, 0, len(children)),
		}
		if depth >= idx.budget() {
			return node
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			node.Children = append(node.Children, build(child, depth+1))
		}
		return node
	}

	roots := idx.children[""]
	result := make([]*TreeNode, 0, len(roots))
	for _, root := range roots {
		result = append(result, build(root, 0))
	}
	return result
}

// CountNodes returns the number of nodes in the given trees.
func CountNodes(roots []*TreeNode) int {
	count := 0
	for _, r := range roots {
		if r == nil {
			continue
		}
		count += 1 + CountNodes(r.Children)
	}
	return count
}

// GetDescendants returns the ids of every transitive child of id, in pre-order.
// The node itself is not included. Unknown ids yield an empty list.
func GetDescendants(nodes []model.NodeRecord, id string) []string {
	idx := newSnapshotIndex(nodes)
	result := []string{}
	if _, ok := idx.byID[id]; !ok {
		return result
	}

	visited := map[string]bool{id: true}
	var walk func(parentID string)
	walk = func(parentID string) {
		for _, child := range idx.children[parentID] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			result = append(result, child.ID)
			walk(child.ID)
		}
	}
	walk(id)
	return result
}

// GetNodePath returns the chain of records from the root down to id, inclusive.
//
// A missing id yields nil. If an ancestor is missing the chain starts at the
// highest ancestor that exists. If the walk exceeds MaxPathDepth the parent
// pointers loop and nil is returned.
func GetNodePath(nodes []model.NodeRecord, id string) []model.NodeRecord {
	byID := lookupByID(nodes)
	current, ok := byID[id]
	if !ok {
		return nil
	}

	var path []model.NodeRecord
	for depth := 0; ; depth++ {
		if depth >= MaxPathDepth {
			return nil
		}
		path = append(path, current.Clone())
		if current.IsRoot() {
			break
		}
		parent, ok := byID[current.ParentID]
		if !ok {
			break
		}
		current = parent
	}

	slices.Reverse(path)
	return path
}
