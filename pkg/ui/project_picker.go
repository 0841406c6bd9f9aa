package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/nodetree/pkg/config"
)

// SwitchProjectMsg is sent when the user picks a project.
type SwitchProjectMsg struct {
	Project config.Project
}

// ProjectPickerModel lists discovered projects with an inline filter. It
// runs as its own program before the tree browser when no project root was
// found from the working directory.
type ProjectPickerModel struct {
	projects    []config.Project
	filtered    []int // indices into projects
	cursor      int
	width       int
	height      int
	filterInput textinput.Model
	filtering   bool
	theme       Theme

	chosen   *config.Project
	quitting bool
}

// NewProjectPicker creates a picker over projects.
func NewProjectPicker(projects []config.Project, theme Theme) ProjectPickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 50
	ti.Width = 30

	m := ProjectPickerModel{
		projects:    projects,
		filterInput: ti,
		theme:       theme,
	}
	m.applyFilter()
	return m
}

// SetSize updates the picker dimensions.
func (m *ProjectPickerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Init implements tea.Model.
func (m ProjectPickerModel) Init() tea.Cmd {
	return nil
}

// Update handles keyboard input for the project picker.
func (m ProjectPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFiltering(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m ProjectPickerModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.filtering = true
		m.filterInput.SetValue("")
		m.filterInput.Focus()
	case "j", "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, len(m.filtered)-1)
	case "enter":
		return m.choose()
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ProjectPickerModel) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.applyFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m.choose()
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.applyFilter()
		return m, cmd
	}
}

func (m ProjectPickerModel) choose() (tea.Model, tea.Cmd) {
	entry := m.SelectedProject()
	if entry == nil {
		return m, nil
	}
	m.chosen = entry
	project := *entry
	return m, tea.Sequence(
		func() tea.Msg { return SwitchProjectMsg{Project: project} },
		tea.Quit,
	)
}

// Chosen returns the picked project once the program has quit.
func (m ProjectPickerModel) Chosen() (config.Project, bool) {
	if m.chosen == nil {
		return config.Project{}, false
	}
	return *m.chosen, true
}

// applyFilter recomputes the visible entries from the filter input.
func (m *ProjectPickerModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if query == "" {
		m.filtered = make([]int, len(m.projects))
		for i := range m.projects {
			m.filtered[i] = i
		}
		if m.cursor >= len(m.filtered) {
			m.cursor = max(0, len(m.filtered)-1)
		}
		return
	}

	type scored struct {
		index int
		score int
	}
	var matches []scored
	for i, p := range m.projects {
		best := max(fuzzyScore(strings.ToLower(p.Name), query), fuzzyScore(strings.ToLower(p.Path), query))
		if best > 0 {
			matches = append(matches, scored{i, best})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	m.filtered = make([]int, len(matches))
	for i, match := range matches {
		m.filtered[i] = match.index
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// fuzzyScore returns 0 when query is not a subsequence of s. Substring
// matches beat scattered ones and prefix matches beat both.
func fuzzyScore(s, query string) int {
	if query == "" {
		return 1
	}
	if strings.HasPrefix(s, query) {
		return 300 + len(query)
	}
	if strings.Contains(s, query) {
		return 200 + len(query)
	}
	qi := 0
	q := []rune(query)
	for _, r := range s {
		if qi < len(q) && r == q[qi] {
			qi++
		}
	}
	if qi < len(q) {
		return 0
	}
	return 100 + len(q)
}

// View renders the picker.
func (m ProjectPickerModel) View() string {
	if m.quitting || m.chosen != nil {
		return ""
	}
	t := m.theme
	r := t.Renderer

	var sb strings.Builder
	sb.WriteString(r.NewStyle().Foreground(t.Primary).Bold(true).
		Render(fmt.Sprintf("projects[%d]", len(m.filtered))))
	sb.WriteString("\n")

	if m.filtering {
		sb.WriteString(r.NewStyle().Foreground(t.Primary).Render("/ " + m.filterInput.View()))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(m.filtered) == 0 {
		sb.WriteString(r.NewStyle().Foreground(t.Secondary).Italic(true).
			Render("  No projects found. Run `nt init` in a project directory."))
		sb.WriteString("\n")
	}

	for i, idx := range m.filtered {
		p := m.projects[idx]
		line := fmt.Sprintf("  %s  %s", p.Name, r.NewStyle().Foreground(t.Muted).Render(p.Path))
		if i == m.cursor {
			line = r.NewStyle().Foreground(t.Primary).Bold(true).Render("> "+p.Name) +
				"  " + r.NewStyle().Foreground(t.Muted).Render(p.Path)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(r.NewStyle().Foreground(t.Secondary).Italic(true).
		Render("j/k: navigate | /: filter | enter: open | q: quit"))
	return sb.String()
}

// Filtering returns whether the picker is in filter mode.
func (m *ProjectPickerModel) Filtering() bool {
	return m.filtering
}

// Cursor returns the current cursor position.
func (m *ProjectPickerModel) Cursor() int {
	return m.cursor
}

// FilteredCount returns the number of entries matching the current filter.
func (m *ProjectPickerModel) FilteredCount() int {
	return len(m.filtered)
}

// SelectedProject returns the highlighted project, or nil if none.
func (m *ProjectPickerModel) SelectedProject() *config.Project {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	p := m.projects[m.filtered[m.cursor]]
	return &p
}
