package tree

import "github.com/vanderheijden86/nodetree/pkg/model"

// WouldCreateCycle reports whether moving movingID under newParentID would
// nest a node inside its own subtree.
//
// Callers that write a reparented snapshot must check this before commit;
// nothing repairs a cycle afterwards. An empty newParentID (move to root)
// never creates a cycle. If the upward walk from newParentID exhausts its
// budget the snapshot already loops, and the move is refused.
func WouldCreateCycle(nodes []model.NodeRecord, movingID, newParentID string) bool {
	if newParentID == "" {
		return false
	}
	if newParentID == movingID {
		return true
	}

	parents := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if _, dup := parents[n.ID]; !dup {
			parents[n.ID] = n.ParentID
		}
	}

	current := newParentID
	for steps := 0; steps <= len(parents); steps++ {
		if current == movingID {
			return true
		}
		parent, ok := parents[current]
		if !ok || parent == "" {
			return false
		}
		current = parent
	}
	return true
}
