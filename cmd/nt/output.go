package main

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func typeGlyph(t model.NodeType) string {
	switch t {
	case model.TypeFolder:
		return "▣"
	case model.TypeDocument:
		return "≡"
	case model.TypeDrawing:
		return "✎"
	case model.TypeCode:
		return "λ"
	}
	return "◦"
}

// writeTree prints the hierarchy with box-drawing branches.
func writeTree(w io.Writer, roots []*tree.TreeNode, showIDs bool) {
	var walk func(nodes []*tree.TreeNode, prefix string, top bool)
	walk = func(nodes []*tree.TreeNode, prefix string, top bool) {
		for i, n := range nodes {
			last := i == len(nodes)-1
			branch, next := "├── ", "│   "
			if last {
				branch, next = "└── ", "    "
			}
			if top {
				branch, next = "", ""
			}
			fmt.Fprintf(w, "%s%s%s %s%s\n", prefix, branch, typeGlyph(n.Type), n.Title, idSuffix(n.ID, showIDs))
			walk(n.Children, prefix+next, false)
		}
	}
	walk(roots, "", true)
}

// writeRows prints flattened rows indented by depth, with the expand marker
// a list view would show.
func writeRows(w io.Writer, rows []tree.FlatTreeNode, showIDs bool) {
	for _, r := range rows {
		marker := " "
		if r.IsFolder() {
			switch {
			case !r.HasChildren:
				marker = "·"
			case r.IsExpanded:
				marker = "▾"
			default:
				marker = "▸"
			}
		}
		fmt.Fprintf(w, "%s%s %s %s%s\n", strings.Repeat("  ", r.Depth), marker, typeGlyph(r.Type), r.Title, idSuffix(r.ID, showIDs))
	}
}

func idSuffix(id string, show bool) string {
	if !show {
		return ""
	}
	return "  (" + id + ")"
}
