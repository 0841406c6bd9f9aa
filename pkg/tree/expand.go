package tree

import (
	"maps"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// ExpandMap maps folder ids to whether the folder is shown open.
// A folder missing from the map is closed.
type ExpandMap map[string]bool

// Clone returns an independent copy. A nil map clones to an empty map.
func (m ExpandMap) Clone() ExpandMap {
	out := make(ExpandMap, len(m))
	maps.Copy(out, m)
	return out
}

// ExpandedCount returns the number of true entries.
func (m ExpandMap) ExpandedCount() int {
	count := 0
	for _, open := range m {
		if open {
			count++
		}
	}
	return count
}

// InitializeExpandedFolders derives the expand map from persisted collapsed
// flags. A folder without a flag starts closed.
func InitializeExpandedFolders(nodes []model.NodeRecord) ExpandMap {
	expanded := make(ExpandMap)
	for _, n := range nodes {
		if n.IsFolder() {
			if _, seen := expanded[n.ID]; !seen {
				expanded[n.ID] = !n.IsCollapsed()
			}
		}
	}
	return expanded
}

// CalculateExpandAllFolders opens every folder, ignoring any prior state.
func CalculateExpandAllFolders(nodes []model.NodeRecord) ExpandMap {
	return allFolders(nodes, true)
}

// CalculateCollapseAllFolders closes every folder, ignoring any prior state.
func CalculateCollapseAllFolders(nodes []model.NodeRecord) ExpandMap {
	return allFolders(nodes, false)
}

func allFolders(nodes []model.NodeRecord, open bool) ExpandMap {
	expanded := make(ExpandMap)
	for _, n := range nodes {
		if n.IsFolder() {
			expanded[n.ID] = open
		}
	}
	return expanded
}

// CalculateExpandedFoldersForNode opens exactly the folders needed to reveal
// targetID and nothing else.
func CalculateExpandedFoldersForNode(nodes []model.NodeRecord, targetID string) ExpandMap {
	return CalculateExpandedAncestors(CalculateAncestorPath(nodes, targetID))
}

// MergeExpandedFoldersForNode reveals targetID on top of current. Every
// entry of current is kept and no open folder is closed. current itself is
// left untouched.
func MergeExpandedFoldersForNode(current ExpandMap, nodes []model.NodeRecord, targetID string) ExpandMap {
	merged := current.Clone()
	for _, id := range CalculateAncestorPath(nodes, targetID) {
		merged[id] = true
	}
	return merged
}

// HasFolders reports whether the snapshot contains any folder.
func HasFolders(nodes []model.NodeRecord) bool {
	for _, n := range nodes {
		if n.IsFolder() {
			return true
		}
	}
	return false
}

// ToggleFolder flips one folder. Ids that are missing or not folders leave
// the map unchanged (the result is still a fresh copy).
func ToggleFolder(current ExpandMap, nodes []model.NodeRecord, id string) ExpandMap {
	next := current.Clone()
	n, ok := lookupByID(nodes)[id]
	if !ok || !n.IsFolder() {
		return next
	}
	next[id] = !current[id]
	return next
}

// PruneExpandedFolders drops entries for ids that are no longer folders in
// the snapshot. Folders new to the snapshot are not added; they read as closed.
func PruneExpandedFolders(current ExpandMap, nodes []model.NodeRecord) ExpandMap {
	byID := lookupByID(nodes)
	pruned := make(ExpandMap, len(current))
	for id, open := range current {
		if n, ok := byID[id]; ok && n.IsFolder() {
			pruned[id] = open
		}
	}
	return pruned
}

// CollapsedFlags converts an expand map back into persisted collapsed flags.
// Only folders whose stored flag disagrees with the map are returned, so the
// result is the minimal set of writes.
func CollapsedFlags(expanded ExpandMap, nodes []model.NodeRecord) map[string]bool {
	flags := make(map[string]bool)
	for id, n := range lookupByID(nodes) {
		if !n.IsFolder() {
			continue
		}
		collapsed := !expanded[id]
		if n.Collapsed == nil || *n.Collapsed != collapsed {
			flags[id] = collapsed
		}
	}
	return flags
}
