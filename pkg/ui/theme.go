package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/nodetree/pkg/model"
)

// Theme holds the colors and base styles shared by every view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Folder   lipgloss.AdaptiveColor
	Document lipgloss.AdaptiveColor
	Drawing  lipgloss.AdaptiveColor
	Code     lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Border   lipgloss.Style
}

// DefaultTheme builds the theme against a renderer. Tests pass
// lipgloss.NewRenderer(nil) to get colorless output.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6C4AB6", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#0B7285", Dark: "#8BE9FD"},
		Highlight: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6272A4"},
		Warning:   lipgloss.AdaptiveColor{Light: "#7A5600", Dark: "#F1FA8C"},
		Danger:    lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF5555"},

		Folder:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Document: lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#81c784"},
		Drawing:  lipgloss.AdaptiveColor{Light: "#AD1457", Dark: "#FF79C6"},
		Code:     lipgloss.AdaptiveColor{Light: "#0B7285", Dark: "#8BE9FD"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#E8E8E8"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"}).
		Bold(true)
	t.Border = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary)
	return t
}

// GetTypeIcon returns the glyph and color for a node type. Unknown leaf
// types share the generic file icon.
func (t Theme) GetTypeIcon(nodeType model.NodeType) (string, lipgloss.AdaptiveColor) {
	switch nodeType {
	case model.TypeFolder:
		return "▣", t.Folder
	case model.TypeDocument:
		return "≡", t.Document
	case model.TypeDrawing:
		return "✎", t.Drawing
	case model.TypeCode:
		return "λ", t.Code
	default:
		return "◦", t.Muted
	}
}
