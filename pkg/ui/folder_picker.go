package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

// MoveDestination is one place a node can be moved to.
type MoveDestination struct {
	ParentID string // "" is the top level
	Title    string
	Depth    int
}

// FolderPickerModel lists the folders a node can be moved into. Folders
// inside the moving node's own subtree are never offered.
type FolderPickerModel struct {
	movingID      string
	currentParent string
	destinations  []MoveDestination
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewFolderPickerModel builds the destination list for moving movingID
// within nodes. The top level always comes first; folders follow in tree
// order.
func NewFolderPickerModel(nodes []model.NodeRecord, movingID string, theme Theme) FolderPickerModel {
	currentParent := ""
	for _, n := range nodes {
		if n.ID == movingID {
			currentParent = n.ParentID
			break
		}
	}

	dests := []MoveDestination{{ParentID: "", Title: "(top level)"}}
	for _, row := range tree.FlattenTree(nodes, tree.CalculateExpandAllFolders(nodes)) {
		if !row.IsFolder() || tree.WouldCreateCycle(nodes, movingID, row.ID) {
			continue
		}
		dests = append(dests, MoveDestination{ParentID: row.ID, Title: row.Title, Depth: row.Depth + 1})
	}

	selectedIdx := 0
	for i, d := range dests {
		if d.ParentID == currentParent {
			selectedIdx = i
			break
		}
	}

	return FolderPickerModel{
		movingID:      movingID,
		currentParent: currentParent,
		destinations:  dests,
		selectedIndex: selectedIdx,
		theme:         theme,
	}
}

// SetSize updates the picker dimensions
func (m *FolderPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MovingID returns the node being moved.
func (m *FolderPickerModel) MovingID() string {
	return m.movingID
}

// Destinations returns every offered destination.
func (m *FolderPickerModel) Destinations() []MoveDestination {
	return m.destinations
}

// MoveUp moves selection up
func (m *FolderPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *FolderPickerModel) MoveDown() {
	if m.selectedIndex < len(m.destinations)-1 {
		m.selectedIndex++
	}
}

// Selected returns the highlighted destination.
func (m *FolderPickerModel) Selected() (MoveDestination, bool) {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.destinations) {
		return m.destinations[m.selectedIndex], true
	}
	return MoveDestination{}, false
}

// View renders the picker overlay
func (m *FolderPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme

	boxWidth := 44
	if m.width < 54 {
		boxWidth = m.width - 10
	}
	if boxWidth < 25 {
		boxWidth = 25
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)
	lines = append(lines, titleStyle.Render("Move To"))
	lines = append(lines, "")

	// Keep the selection inside the box.
	maxItems := m.height - 10
	if maxItems < 3 {
		maxItems = 3
	}
	start := 0
	if m.selectedIndex >= maxItems {
		start = m.selectedIndex - maxItems + 1
	}
	end := start + maxItems
	if end > len(m.destinations) {
		end = len(m.destinations)
	}

	for i := start; i < end; i++ {
		dest := m.destinations[i]
		isSelected := i == m.selectedIndex

		itemStyle := t.Renderer.NewStyle()
		if isSelected {
			itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
		} else {
			itemStyle = itemStyle.Foreground(t.Base.GetForeground())
		}

		prefix := "  "
		if isSelected {
			prefix = "> "
		}

		suffix := ""
		if dest.ParentID == m.currentParent {
			checkStyle := t.Renderer.NewStyle().Foreground(t.Secondary)
			suffix = " " + checkStyle.Render("✓")
		}

		label := strings.Repeat("  ", dest.Depth) + truncateTitle(dest.Title, boxWidth-8-2*dest.Depth)
		lines = append(lines, itemStyle.Render(prefix+label)+suffix)
	}

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("j/k: navigate | enter: move | esc: cancel"))

	content := strings.Join(lines, "\n")

	boxStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(content),
	)
}
