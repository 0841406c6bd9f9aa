package tree

import (
	"slices"
	"strings"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// CalculateAncestorPath returns the folder ids above targetID, root first.
//
// The target itself is excluded. A root target or an unknown id yields an
// empty list. If an ancestor is missing from the snapshot the walk stops and
// returns what it collected so far. A walk that exhausts its budget means the
// parent pointers loop, and yields an empty list.
func CalculateAncestorPath(nodes []model.NodeRecord, targetID string) []string {
	byID := lookupByID(nodes)
	target, ok := byID[targetID]
	if !ok || target.IsRoot() {
		return []string{}
	}

	var reversed []string
	current := target
	for steps := 0; steps < len(byID); steps++ {
		if current.IsRoot() {
			slices.Reverse(reversed)
			return nonNil(reversed)
		}
		parent, ok := byID[current.ParentID]
		if !ok {
			slices.Reverse(reversed)
			return nonNil(reversed)
		}
		if parent.IsFolder() {
			reversed = append(reversed, parent.ID)
		}
		current = parent
	}
	return []string{}
}

// CalculateExpandedAncestors marks every id as expanded. Paired with
// CalculateAncestorPath it opens exactly the chain needed to reveal a node.
func CalculateExpandedAncestors(ancestorIDs []string) ExpandMap {
	expanded := make(ExpandMap, len(ancestorIDs))
	for _, id := range ancestorIDs {
		expanded[id] = true
	}
	return expanded
}

// FindFolderByParentAndTitle returns the first folder under parentID (in
// sibling order) whose title matches. Surrounding spaces are ignored.
func FindFolderByParentAndTitle(nodes []model.NodeRecord, parentID, title string) (model.NodeRecord, bool) {
	idx := newSnapshotIndex(nodes)
	return findFolder(idx, parentID, title)
}

func findFolder(idx *snapshotIndex, parentID, title string) (model.NodeRecord, bool) {
	want := strings.TrimSpace(title)
	if want == "" {
		return model.NodeRecord{}, false
	}
	for _, child := range idx.children[parentID] {
		if child.IsFolder() && strings.TrimSpace(child.Title) == want {
			return child.Clone(), true
		}
	}
	return model.NodeRecord{}, false
}

// FolderPathResolution reports how far a title path matches existing folders.
type FolderPathResolution struct {
	MatchedIDs []string `json:"matched_ids"` // Matched folders, outermost first
	Remaining  []string `json:"remaining"`   // Titles with no existing folder yet
	DeepestID  string   `json:"deepest_id"`  // Last matched folder, or the starting parent
}

// Complete returns true if every title matched an existing folder.
func (r FolderPathResolution) Complete() bool {
	return len(r.Remaining) == 0
}

// ResolveFolderPath walks titles downward from parentID, matching one folder
// per level. It never creates anything; callers creating missing folders start
// from DeepestID with the Remaining titles.
func ResolveFolderPath(nodes []model.NodeRecord, parentID string, titles []string) FolderPathResolution {
	idx := newSnapshotIndex(nodes)
	res := FolderPathResolution{
		MatchedIDs: []string{},
		Remaining:  []string{},
		DeepestID:  parentID,
	}

	current := parentID
	for i, title := range titles {
		folder, ok := findFolder(idx, current, title)
		if !ok {
			res.Remaining = append(res.Remaining, titles[i:]...)
			break
		}
		res.MatchedIDs = append(res.MatchedIDs, folder.ID)
		current = folder.ID
	}
	res.DeepestID = current
	return res
}

// SplitFolderPath splits a slash separated path into titles, dropping empty
// segments: "a/ b//c/" yields ["a", "b", "c"].
func SplitFolderPath(path string) []string {
	titles := []string{}
	for _, part := range strings.Split(path, "/") {
		if part = strings.TrimSpace(part); part != "" {
			titles = append(titles, part)
		}
	}
	return titles
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
