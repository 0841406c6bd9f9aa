// tree.go - Virtualized folder tree over the flattened node snapshot
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/tree"
	"github.com/vanderheijden86/nodetree/pkg/treestate"
)

// TreeModel manages the tree view. It owns the current snapshot and the
// expand map; every visible row comes from tree.FlattenTree.
type TreeModel struct {
	nodes    []model.NodeRecord
	expanded tree.ExpandMap
	rows     []tree.FlatTreeNode
	prefixes []string // branch characters per row, unstyled

	cursor         int
	viewportOffset int // index of first visible row
	width          int
	height         int
	theme          Theme
	showOrder      bool
	pageSize       int // 0 means half a viewport

	built bool

	// stateDir holds tree-state.json; empty disables persistence.
	stateDir string
	// expandDirty is set whenever the expand map changes by user action.
	expandDirty bool
}

// NewTreeModel creates an empty tree model
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{
		theme:    theme,
		expanded: tree.ExpandMap{},
	}
}

// SetStateDir enables expand-state persistence under dir. It must be
// called before the first SetSnapshot to restore saved state.
func (t *TreeModel) SetStateDir(dir string) {
	t.stateDir = dir
}

// SetShowOrder toggles the order column.
func (t *TreeModel) SetShowOrder(show bool) {
	t.showOrder = show
}

// SetPageSize sets the PageUp/PageDown step. Zero restores the default.
func (t *TreeModel) SetPageSize(n int) {
	if n < 0 {
		n = 0
	}
	t.pageSize = n
}

// SetSize updates the available dimensions for the tree view
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// SetSnapshot replaces the node snapshot. The first snapshot seeds the
// expand map from saved state or the records' collapsed flags; later ones
// only drop entries for folders that no longer exist. The cursor stays on
// the same node when it is still visible.
func (t *TreeModel) SetSnapshot(nodes []model.NodeRecord) {
	selected := t.GetSelectedID()

	if !t.built {
		t.expanded = t.initialExpandState(nodes)
		t.built = true
	} else {
		t.expanded = tree.PruneExpandedFolders(t.expanded, nodes)
	}
	t.nodes = nodes
	t.rebuildRows()

	if selected == "" || !t.SelectByID(selected) {
		t.clampCursor()
	}
}

func (t *TreeModel) initialExpandState(nodes []model.NodeRecord) tree.ExpandMap {
	if t.stateDir != "" {
		if saved := treestate.Load(t.stateDir); saved != nil {
			return tree.PruneExpandedFolders(saved, nodes)
		}
	}
	return tree.InitializeExpandedFolders(nodes)
}

// Expanded returns a copy of the current expand map.
func (t *TreeModel) Expanded() tree.ExpandMap {
	return t.expanded.Clone()
}

// TakeExpandDirty reports whether the expand map changed since the last
// call, and resets the flag.
func (t *TreeModel) TakeExpandDirty() bool {
	dirty := t.expandDirty
	t.expandDirty = false
	return dirty
}

// Nodes returns the current snapshot.
func (t *TreeModel) Nodes() []model.NodeRecord {
	return t.nodes
}

// Rows returns the visible rows.
func (t *TreeModel) Rows() []tree.FlatTreeNode {
	return t.rows
}

func (t *TreeModel) setExpanded(next tree.ExpandMap) {
	selected := t.GetSelectedID()
	t.expanded = next
	t.expandDirty = true
	t.rebuildRows()
	if selected == "" || !t.SelectByID(selected) {
		t.clampCursor()
	}
	t.saveState()
}

// saveState persists the expand map. Failures are logged and otherwise
// ignored.
func (t *TreeModel) saveState() {
	if t.stateDir == "" {
		return
	}
	if err := treestate.Save(t.stateDir, t.expanded); err != nil {
		logrus.WithError(err).Warn("failed to save tree state")
	}
}

// rebuildRows re-flattens the snapshot and recomputes branch prefixes.
func (t *TreeModel) rebuildRows() {
	t.rows = tree.FlattenTree(t.nodes, t.expanded)
	t.prefixes = branchPrefixes(t.rows)
	t.clampCursor()
}

// branchPrefixes computes the "│   ├── " style prefix of each row from
// depths alone. A row is the last of its siblings when no later row at the
// same depth appears before the walk climbs above it.
func branchPrefixes(rows []tree.FlatTreeNode) []string {
	last := make([]bool, len(rows))
	seen := map[int]bool{}
	for i := len(rows) - 1; i >= 0; i-- {
		d := rows[i].Depth
		for k := range seen {
			if k > d {
				delete(seen, k)
			}
		}
		last[i] = !seen[d]
		seen[d] = true
	}

	prefixes := make([]string, len(rows))
	var open []bool // open[k]: the ancestor at depth k has siblings below
	for i, row := range rows {
		if row.Depth == 0 {
			open = open[:0]
			open = append(open, !last[i])
			continue
		}
		var sb strings.Builder
		for k := 1; k < row.Depth && k < len(open); k++ {
			if open[k] {
				sb.WriteString("│   ")
			} else {
				sb.WriteString("    ")
			}
		}
		if last[i] {
			sb.WriteString("└── ")
		} else {
			sb.WriteString("├── ")
		}
		prefixes[i] = sb.String()

		if len(open) > row.Depth {
			open = open[:row.Depth]
		}
		for len(open) < row.Depth {
			open = append(open, false)
		}
		open = append(open, !last[i])
	}
	return prefixes
}

// View renders the visible window of rows.
func (t *TreeModel) View() string {
	if !t.built || len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		line := t.renderRow(i)
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if t.height > 0 && len(t.rows) > t.height {
		sb.WriteString(t.renderPositionIndicator(start, end))
	}
	return sb.String()
}

func (t *TreeModel) renderPositionIndicator(start, end int) string {
	indicator := fmt.Sprintf(" %d-%d of %d", start+1, end, len(t.rows))
	return t.theme.Renderer.NewStyle().Foreground(t.theme.Muted).Render(indicator)
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	titleStyle := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Tree View"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("No nodes to display."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Create one with:"))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("  nt add --type folder --title Notes"))
	return sb.String()
}

func (t *TreeModel) renderRow(i int) string {
	row := t.rows[i]
	r := t.theme.Renderer
	var sb strings.Builder

	prefix := t.prefixes[i]
	sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render(prefix))

	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(expandIndicator(row)))
	sb.WriteString(" ")

	icon, iconColor := t.theme.GetTypeIcon(row.Type)
	sb.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteString(" ")

	suffix := ""
	if t.showOrder {
		suffix = r.NewStyle().Foreground(t.theme.Muted).Render(fmt.Sprintf(" #%g", row.Order))
	}

	width := t.width
	if width <= 0 {
		width = 80
	}
	maxTitle := width - runewidth.StringWidth(prefix) - 4 - lipgloss.Width(suffix)
	if maxTitle < 10 {
		maxTitle = 10
	}

	titleStyle := t.theme.Base
	if row.IsFolder() {
		titleStyle = titleStyle.Bold(true)
	}
	sb.WriteString(titleStyle.Render(truncateTitle(row.Title, maxTitle)))
	sb.WriteString(suffix)
	return sb.String()
}

func expandIndicator(row tree.FlatTreeNode) string {
	switch {
	case !row.IsFolder():
		return "•"
	case row.IsExpanded:
		return "▾"
	case row.HasChildren:
		return "▸"
	default:
		return "▹"
	}
}

// truncateTitle cuts title to maxWidth display cells, ending in an ellipsis.
func truncateTitle(title string, maxWidth int) string {
	if maxWidth <= 1 {
		return "…"
	}
	return runewidth.Truncate(title, maxWidth, "…")
}

// SelectedRow returns the row under the cursor.
func (t *TreeModel) SelectedRow() (tree.FlatTreeNode, bool) {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor], true
	}
	return tree.FlatTreeNode{}, false
}

// GetSelectedID returns the ID of the selected node, or empty string.
func (t *TreeModel) GetSelectedID() string {
	if row, ok := t.SelectedRow(); ok {
		return row.ID
	}
	return ""
}

// SelectByID moves the cursor to id if it is visible.
func (t *TreeModel) SelectByID(id string) bool {
	i := tree.IndexOfRow(t.rows, id)
	if i < 0 {
		return false
	}
	t.cursor = i
	t.ensureCursorVisible()
	return true
}

// Breadcrumb returns the titles from the root down to the selected node,
// joined by " / ".
func (t *TreeModel) Breadcrumb() string {
	id := t.GetSelectedID()
	if id == "" {
		return ""
	}
	path := tree.GetNodePath(t.nodes, id)
	titles := make([]string, 0, len(path))
	for _, n := range path {
		titles = append(titles, n.Title)
	}
	return strings.Join(titles, " / ")
}

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
	}
	t.ensureCursorVisible()
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.ensureCursorVisible()
}

// ToggleExpand flips the selected folder. Leaves are ignored.
func (t *TreeModel) ToggleExpand() {
	row, ok := t.SelectedRow()
	if !ok || !row.IsFolder() {
		return
	}
	t.setExpanded(tree.ToggleFolder(t.expanded, t.nodes, row.ID))
}

// ExpandAll opens every folder, discarding the previous map.
func (t *TreeModel) ExpandAll() {
	t.setExpanded(tree.CalculateExpandAllFolders(t.nodes))
}

// CollapseAll closes every folder, discarding the previous map.
func (t *TreeModel) CollapseAll() {
	t.setExpanded(tree.CalculateCollapseAllFolders(t.nodes))
}

// Reveal opens the ancestors of id on top of the current map and selects
// it. Folders opened elsewhere stay open.
func (t *TreeModel) Reveal(id string) bool {
	t.setExpanded(tree.MergeExpandedFoldersForNode(t.expanded, t.nodes, id))
	return t.SelectByID(id)
}

// JumpToTop moves the cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves the cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
	}
	t.ensureCursorVisible()
}

// JumpToParent moves the cursor to the parent row of the selection.
func (t *TreeModel) JumpToParent() {
	row, ok := t.SelectedRow()
	if !ok || row.ParentID == "" {
		return
	}
	if i := tree.IndexOfRow(t.rows, row.ParentID); i >= 0 {
		t.cursor = i
		t.ensureCursorVisible()
	}
}

// ExpandOrMoveToChild handles the → / l key:
// - collapsed folder: expand it
// - expanded folder with children: move to the first child
// - leaf: do nothing
func (t *TreeModel) ExpandOrMoveToChild() {
	row, ok := t.SelectedRow()
	if !ok || !row.IsFolder() {
		return
	}
	if !row.IsExpanded {
		t.setExpanded(tree.ToggleFolder(t.expanded, t.nodes, row.ID))
		return
	}
	if row.HasChildren && t.cursor+1 < len(t.rows) {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// CollapseOrJumpToParent handles the ← / h key:
// - expanded folder: collapse it
// - anything else: jump to the parent
func (t *TreeModel) CollapseOrJumpToParent() {
	row, ok := t.SelectedRow()
	if !ok {
		return
	}
	if row.IsExpanded {
		t.setExpanded(tree.ToggleFolder(t.expanded, t.nodes, row.ID))
		return
	}
	t.JumpToParent()
}

// PageDown moves the cursor down one page step.
func (t *TreeModel) PageDown() {
	t.cursor += t.pageStep()
	t.clampCursor()
	t.ensureCursorVisible()
}

// PageUp moves the cursor up one page step.
func (t *TreeModel) PageUp() {
	t.cursor -= t.pageStep()
	t.clampCursor()
	t.ensureCursorVisible()
}

func (t *TreeModel) pageStep() int {
	if t.pageSize > 0 {
		return t.pageSize
	}
	step := t.height / 2
	if step < 1 {
		step = 5
	}
	return step
}

func (t *TreeModel) effectiveVisibleCount() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

func (t *TreeModel) clampCursor() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// ensureCursorVisible scrolls the window so the cursor row is inside it.
func (t *TreeModel) ensureCursorVisible() {
	visible := t.effectiveVisibleCount()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+visible {
		t.viewportOffset = t.cursor - visible + 1
	}
	if t.viewportOffset < 0 {
		t.viewportOffset = 0
	}
}

// visibleRange returns the [start, end) rows inside the viewport.
func (t *TreeModel) visibleRange() (start, end int) {
	if len(t.rows) == 0 {
		return 0, 0
	}

	visible := t.effectiveVisibleCount()
	start = t.viewportOffset
	end = start + visible

	if end > len(t.rows) {
		end = len(t.rows)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}
	if start > len(t.rows) {
		start = len(t.rows)
	}
	return start, end
}

// IsBuilt returns whether a snapshot has been loaded.
func (t *TreeModel) IsBuilt() bool {
	return t.built
}

// NodeCount returns the number of visible rows.
func (t *TreeModel) NodeCount() int {
	return len(t.rows)
}

// Cursor returns the selected row index.
func (t *TreeModel) Cursor() int {
	return t.cursor
}
