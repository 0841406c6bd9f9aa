package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/nodetree/pkg/analysis"
)

// PagerModel shows a markdown page (key reference, integrity report) in a
// scrollable modal.
type PagerModel struct {
	title    string
	markdown string
	viewport viewport.Model
	theme    Theme
	style    string // glamour standard style; empty means auto-detect
	width    int
	height   int
}

// NewPagerModel creates an empty pager. style names a glamour standard
// style ("dark", "light", "notty"); empty picks one from the terminal.
func NewPagerModel(theme Theme, style string) PagerModel {
	return PagerModel{
		viewport: viewport.New(60, 20),
		theme:    theme,
		style:    style,
	}
}

// SetSize resizes the modal and re-renders the current page.
func (p *PagerModel) SetSize(width, height int) {
	p.width = width
	p.height = height
	w, h := p.innerSize()
	p.viewport.Width = w
	p.viewport.Height = h
	if p.markdown != "" {
		p.render()
	}
}

// SetContent replaces the page and scrolls back to the top.
func (p *PagerModel) SetContent(title, markdown string) {
	p.title = title
	p.markdown = markdown
	p.render()
	p.viewport.GotoTop()
}

// Title returns the page title.
func (p *PagerModel) Title() string {
	return p.title
}

func (p *PagerModel) innerSize() (int, int) {
	w := 72
	if p.width > 0 && w > p.width-6 {
		w = p.width - 6
	}
	if w < 20 {
		w = 20
	}
	h := 20
	if p.height > 0 {
		h = p.height - 6
	}
	if h < 3 {
		h = 3
	}
	return w, h
}

func (p *PagerModel) render() {
	w, _ := p.innerSize()
	styleOpt := glamour.WithAutoStyle()
	if p.style != "" {
		styleOpt = glamour.WithStandardStyle(p.style)
	}
	out := p.markdown
	if r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(w)); err == nil {
		if rendered, err := r.Render(p.markdown); err == nil {
			out = strings.TrimRight(rendered, "\n")
		}
	}
	p.viewport.SetContent(out)
}

// ScrollDown scrolls n lines.
func (p *PagerModel) ScrollDown(n int) {
	p.viewport.ScrollDown(n)
}

// ScrollUp scrolls n lines.
func (p *PagerModel) ScrollUp(n int) {
	p.viewport.ScrollUp(n)
}

// View renders the modal
func (p *PagerModel) View() string {
	r := p.theme.Renderer

	titleStyle := r.NewStyle().Bold(true).Foreground(p.theme.Primary)
	footerStyle := r.NewStyle().Foreground(p.theme.Muted).Italic(true)

	footer := "j/k: scroll | esc: close"
	if pct := p.viewport.ScrollPercent(); p.viewport.TotalLineCount() > p.viewport.Height {
		footer = fmt.Sprintf("%3.0f%% | %s", pct*100, footer)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(p.title),
		"",
		p.viewport.View(),
		"",
		footerStyle.Render(footer),
	)

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.theme.Primary).
		Padding(0, 1).
		Render(body)
}

// helpMarkdown lists every binding of the key map as a markdown table.
func helpMarkdown(keys KeyMap) string {
	var sb strings.Builder
	for _, group := range keys.FullHelp() {
		sb.WriteString("## " + group.Name + "\n\n")
		sb.WriteString("| Key | Action |\n|---|---|\n")
		for _, b := range group.Bindings {
			h := b.Help()
			fmt.Fprintf(&sb, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Folders open on their first visit follow the saved collapsed flags. ")
	sb.WriteString("Folders that appear later start closed.\n")
	return sb.String()
}

// reportMarkdown renders an integrity report.
func reportMarkdown(r analysis.Report) string {
	var sb strings.Builder
	if r.OK() {
		fmt.Fprintf(&sb, "**No structural problems** in %d nodes.\n\n", r.Total)
	} else {
		fmt.Fprintf(&sb, "**%d of %d nodes** are reachable from a root.\n\n", r.Reachable, r.Total)
	}

	section := func(title string, ids []string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## %s (%d)\n\n", title, len(ids))
		for _, id := range ids {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
		sb.WriteString("\n")
	}
	section("Orphans", r.Orphans)
	section("Self-parented", r.SelfParented)
	section("Unreachable", r.Unreachable)
	section("Non-folder parents", r.LeafParents)
	section("Duplicate ids", r.DuplicateIDs)

	if len(r.Cycles) > 0 {
		fmt.Fprintf(&sb, "## Cycles (%d)\n\n", len(r.Cycles))
		for _, c := range r.Cycles {
			fmt.Fprintf(&sb, "- %s\n", "`"+strings.Join(c, "` → `")+"`")
		}
		sb.WriteString("\n")
	}
	if len(r.OrderTies) > 0 {
		fmt.Fprintf(&sb, "## Order ties (%d)\n\n", len(r.OrderTies))
		for _, tie := range r.OrderTies {
			parent := tie.ParentID
			if parent == "" {
				parent = "(root)"
			}
			fmt.Fprintf(&sb, "- under `%s` at %g: %s\n", parent, tie.Order, strings.Join(tie.IDs, ", "))
		}
		sb.WriteString("\n")
	}
	if len(r.Repairs) > 0 {
		sb.WriteString("## Suggested repairs\n\n")
		for _, fix := range r.Repairs {
			fmt.Fprintf(&sb, "- `%s`: %s\n", fix.NodeID, fix.Rationale)
		}
	}
	return sb.String()
}

// keyGroup is one titled section of the help page.
type keyGroup struct {
	Name     string
	Bindings []key.Binding
}
